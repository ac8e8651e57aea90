// SPDX-License-Identifier: MIT
package effect

import (
	"time"

	"soundstrip/internal/led"
)

// ColorWipe fills the strip pixel by pixel, then starts over from black.
type ColorWipe struct {
	colorField
	speedField
	pos float64
}

func NewColorWipe(c led.RGB, speed uint8) *ColorWipe {
	return &ColorWipe{
		colorField: colorField{color: c},
		speedField: speedField{speed: clampSpeed(speed)},
	}
}

func (w *ColorWipe) Name() string { return "ColorWipe" }

func (w *ColorWipe) Update(now time.Duration, buf []led.RGB) (time.Duration, bool) {
	n := len(buf)
	w.pos += 0.5 + speedFactor(w.speed)*3.0
	if w.pos >= float64(n) {
		w.pos = 0
	}

	lit := int(w.pos)
	for i := range buf {
		if i <= lit {
			buf[i] = w.color
		} else {
			buf[i] = led.Black
		}
	}
	return now + FrameTime, true
}
