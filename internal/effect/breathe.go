// SPDX-License-Identifier: MIT
package effect

import (
	"math"
	"time"

	"soundstrip/internal/led"
)

// Breathe fades the whole strip in and out along a sine, one step per
// frame. Speed sets the cycle length.
type Breathe struct {
	colorField
	speedField
	step uint64
}

func NewBreathe(c led.RGB, speed uint8) *Breathe {
	return &Breathe{
		colorField: colorField{color: c},
		speedField: speedField{speed: clampSpeed(speed)},
	}
}

func (b *Breathe) Name() string { return "Breathe" }

func (b *Breathe) Update(now time.Duration, buf []led.RGB) (time.Duration, bool) {
	steps := max(uint64(cycleTime(b.speed)/FrameTime), 1)
	phase := float64(b.step%steps) / float64(steps)
	b.step++

	level := (math.Sin(2*math.Pi*phase) + 1) / 2
	led.Fill(buf, b.color.Scale(level))
	return now + FrameTime, true
}
