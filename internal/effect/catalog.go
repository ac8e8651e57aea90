// SPDX-License-Identifier: MIT
package effect

import (
	"fmt"
	"strings"
)

// ID identifies a catalog entry.
type ID uint8

const (
	IDStatic ID = iota
	IDRainbow
	IDVUMeter
	IDBreathe
	IDComet
	IDColorWipe
	IDBounce
	IDTheaterChase
	IDScanner
	IDGravimeter
	IDRadialPulse
	IDBlink
	IDFade
	IDSparkle
	IDChase
	IDScan

	numIDs
)

var idNames = [numIDs]string{
	IDStatic:       "static",
	IDRainbow:      "rainbow",
	IDVUMeter:      "vu",
	IDBreathe:      "breathe",
	IDComet:        "comet",
	IDColorWipe:    "colorwipe",
	IDBounce:       "bounce",
	IDTheaterChase: "theaterchase",
	IDScanner:      "scanner",
	IDGravimeter:   "gravimeter",
	IDRadialPulse:  "pulse",
	IDBlink:        "blink",
	IDFade:         "fade",
	IDSparkle:      "sparkle",
	IDChase:        "chase",
	IDScan:         "scan",
}

func (id ID) String() string {
	if id < numIDs {
		return idNames[id]
	}
	return fmt.Sprintf("effect(%d)", uint8(id))
}

// Valid reports whether id names a catalog entry.
func (id ID) Valid() bool {
	return id < numIDs
}

// ParseID accepts a registry name, case-insensitively.
func ParseID(s string) (ID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range idNames {
		if name == s {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown effect %q", s)
}

// IDs lists the catalog in registry order.
func IDs() []ID {
	ids := make([]ID, numIDs)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}

// New builds a fresh instance of id. Effects that take no color or speed
// ignore the corresponding Params field.
func New(id ID, p Params) (Effect, error) {
	if p.NumLEDs <= 0 {
		return nil, fmt.Errorf("effect %s: LED count must be positive, got %d", id, p.NumLEDs)
	}
	speed := clampSpeed(p.Speed)

	switch id {
	case IDStatic:
		return NewStatic(p.Color), nil
	case IDRainbow:
		return NewRainbow(p.NumLEDs, speed), nil
	case IDVUMeter:
		return NewVUMeter(speed), nil
	case IDBreathe:
		return NewBreathe(p.Color, speed), nil
	case IDComet:
		return NewComet(p.NumLEDs, p.Color, speed), nil
	case IDColorWipe:
		return NewColorWipe(p.Color, speed), nil
	case IDBounce:
		return NewBounce(p.NumLEDs, p.Color, speed), nil
	case IDTheaterChase:
		return NewTheaterChase(p.Color, speed), nil
	case IDScanner:
		return NewScanner(p.Color, speed), nil
	case IDGravimeter:
		return NewGravimeter(p.NumLEDs, p.Color, speed), nil
	case IDRadialPulse:
		return NewRadialPulse(p.NumLEDs, p.Color, speed), nil
	case IDBlink:
		return NewBlink(p.Color, speed), nil
	case IDFade:
		return NewFade(p.Color, speed), nil
	case IDSparkle:
		return NewSparkle(p.NumLEDs, p.Color, speed), nil
	case IDChase:
		return NewChase(p.Color, speed), nil
	case IDScan:
		return NewScan(p.NumLEDs, p.Color, speed), nil
	}
	return nil, fmt.Errorf("unknown effect id %d", uint8(id))
}
