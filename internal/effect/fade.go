// SPDX-License-Identifier: MIT
package effect

import (
	"math"
	"time"

	"soundstrip/internal/led"
)

const fadeFrame = time.Second / 30

// Fade blends the whole strip between the color and black on a sine.
type Fade struct {
	colorField
	speedField

	start   time.Duration
	started bool
}

func NewFade(c led.RGB, speed uint8) *Fade {
	return &Fade{
		colorField: colorField{color: c},
		speedField: speedField{speed: clampSpeed(speed)},
	}
}

func (f *Fade) Name() string { return "Fade" }

// cyclesPerSecond spans 0.1..2.
func (f *Fade) cyclesPerSecond() float64 {
	return 0.1 + speedFactor(f.speed)*1.9
}

func (f *Fade) Update(now time.Duration, buf []led.RGB) (time.Duration, bool) {
	if !f.started {
		f.start = now
		f.started = true
	}
	phase := math.Sin(2 * math.Pi * f.cyclesPerSecond() * seconds(now-f.start))
	blend := (phase + 1) / 2
	led.Fill(buf, f.color.Scale(1-blend))
	return now + fadeFrame, true
}
