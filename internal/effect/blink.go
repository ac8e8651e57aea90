// SPDX-License-Identifier: MIT
package effect

import (
	"time"

	"soundstrip/internal/led"
)

// Blink toggles the whole strip between the color and black every half
// cycle. A color change while lit shows up immediately.
type Blink struct {
	colorField
	speedField

	on        bool
	next      time.Duration
	scheduled bool
	repaint   bool
}

func NewBlink(c led.RGB, speed uint8) *Blink {
	return &Blink{
		colorField: colorField{color: c},
		speedField: speedField{speed: clampSpeed(speed)},
		on:         true,
	}
}

func (b *Blink) Name() string { return "Blink" }

func (b *Blink) fill(buf []led.RGB) {
	if b.on {
		led.Fill(buf, b.color)
	} else {
		led.Fill(buf, led.Black)
	}
}

func (b *Blink) Update(now time.Duration, buf []led.RGB) (time.Duration, bool) {
	half := cycleTime(b.speed) / 2

	if !b.scheduled {
		b.scheduled = true
		b.repaint = false
		b.on = true
		b.next = now + half
		b.fill(buf)
		return b.next, true
	}

	if now >= b.next {
		b.on = !b.on
		b.next += half
		for b.next <= now {
			b.next += half
			b.on = !b.on
		}
		b.repaint = false
		b.fill(buf)
		return b.next, true
	}

	if b.repaint {
		b.repaint = false
		b.fill(buf)
	}
	return b.next, true
}

func (b *Blink) SetColor(c led.RGB) bool {
	if !b.colorField.SetColor(c) {
		return false
	}
	b.repaint = true
	return b.on
}

func (b *Blink) SetSpeed(s uint8) bool {
	if !b.speedField.SetSpeed(s) {
		return false
	}
	b.scheduled = false
	return true
}

// Lit reports whether the strip is in the on half of the cycle.
func (b *Blink) Lit() bool { return b.on }
