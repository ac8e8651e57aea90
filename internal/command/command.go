// SPDX-License-Identifier: MIT
//
// Package command carries control requests from producers (CLI, TUI,
// network front-ends) to the renderer.
package command

import (
	"fmt"

	"soundstrip/internal/effect"
	"soundstrip/internal/led"
)

// Kind selects which field of a Command is meaningful.
type Kind uint8

const (
	KindSetEffect Kind = iota + 1
	KindSetBrightness
	KindSetColor
	KindSetSpeed
	KindSetPower
	KindSetFPS
)

func (k Kind) String() string {
	switch k {
	case KindSetEffect:
		return "SetEffect"
	case KindSetBrightness:
		return "SetBrightness"
	case KindSetColor:
		return "SetColor"
	case KindSetSpeed:
		return "SetSpeed"
	case KindSetPower:
		return "SetPower"
	case KindSetFPS:
		return "SetFPS"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Command is a small value type so it can sit in the inbox ring without
// allocating.
type Command struct {
	Kind   Kind
	Effect effect.ID
	Level  float64 // brightness, 0..1
	Color  led.RGB
	Speed  uint8
	On     bool
	FPS    int
}

func SetEffect(id effect.ID) Command { return Command{Kind: KindSetEffect, Effect: id} }

// SetBrightness clamps level to [0, 1].
func SetBrightness(level float64) Command {
	return Command{Kind: KindSetBrightness, Level: min(max(level, 0), 1)}
}

func SetColor(c led.RGB) Command { return Command{Kind: KindSetColor, Color: c} }
func SetSpeed(s uint8) Command   { return Command{Kind: KindSetSpeed, Speed: s} }
func SetPower(on bool) Command   { return Command{Kind: KindSetPower, On: on} }
func SetFPS(fps int) Command     { return Command{Kind: KindSetFPS, FPS: fps} }

func (c Command) String() string {
	switch c.Kind {
	case KindSetEffect:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Effect)
	case KindSetBrightness:
		return fmt.Sprintf("%s(%.2f)", c.Kind, c.Level)
	case KindSetColor:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Color.Hex())
	case KindSetSpeed:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Speed)
	case KindSetPower:
		return fmt.Sprintf("%s(%t)", c.Kind, c.On)
	case KindSetFPS:
		return fmt.Sprintf("%s(%d)", c.Kind, c.FPS)
	default:
		return c.Kind.String()
	}
}
