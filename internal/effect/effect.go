// SPDX-License-Identifier: MIT
//
// Package effect implements the closed catalog of strip animations. Each
// effect owns its animation state and draws into a buffer lent to it by the
// renderer for the duration of one Update call.
//
// Time is passed in as a monotonic offset from renderer start. Update
// returns the absolute time at which the effect next wants to be called, or
// ok=false when nothing changes until the next SetColor/SetSpeed.
package effect

import (
	"time"

	"soundstrip/internal/analysis"
	"soundstrip/internal/led"
)

// FrameTime is the step used by frame-counted effects (42 fps).
const FrameTime = time.Second / 42

const (
	DefaultSpeed uint8 = 128
	minCycle           = 50 * time.Millisecond
	maxCycle           = 2 * time.Second
)

// Effect is the contract every catalog member satisfies.
type Effect interface {
	Name() string
	Update(now time.Duration, buf []led.RGB) (next time.Duration, ok bool)

	// SetColor and SetSpeed report whether the change needs a redraw.
	SetColor(c led.RGB) bool
	SetSpeed(s uint8) bool

	// Color and Speed report false for effects without that parameter.
	Color() (led.RGB, bool)
	Speed() (uint8, bool)
}

// AudioReactive effects receive the latest audio snapshot each frame. Their
// plain Update renders as if the room were silent.
type AudioReactive interface {
	Effect
	UpdateAudio(now time.Duration, snap analysis.Snapshot, buf []led.RGB) (next time.Duration, ok bool)
}

// Params seeds a new effect instance.
type Params struct {
	NumLEDs int
	Color   led.RGB
	Speed   uint8
}

func clampSpeed(s uint8) uint8 {
	return max(s, 1)
}

// speedFactor maps speed 1..255 onto (0, 1].
func speedFactor(s uint8) float64 {
	return float64(s) / 255
}

// cycleTime maps speed onto a period between 2 s (slowest) and 50 ms.
func cycleTime(s uint8) time.Duration {
	s = clampSpeed(s)
	return maxCycle - time.Duration(s)*(maxCycle-minCycle)/255
}

func seconds(d time.Duration) float64 {
	return d.Seconds()
}

type colorField struct {
	color led.RGB
}

func (f *colorField) SetColor(c led.RGB) bool {
	changed := f.color != c
	f.color = c
	return changed
}

func (f *colorField) Color() (led.RGB, bool) { return f.color, true }

type speedField struct {
	speed uint8
}

func (f *speedField) SetSpeed(s uint8) bool {
	s = clampSpeed(s)
	changed := f.speed != s
	f.speed = s
	return changed
}

func (f *speedField) Speed() (uint8, bool) { return f.speed, true }

type noColor struct{}

func (noColor) SetColor(led.RGB) bool  { return false }
func (noColor) Color() (led.RGB, bool) { return led.Black, false }

type noSpeed struct{}

func (noSpeed) SetSpeed(uint8) bool  { return false }
func (noSpeed) Speed() (uint8, bool) { return 0, false }
