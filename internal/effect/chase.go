// SPDX-License-Identifier: MIT
package effect

import (
	"time"

	"soundstrip/internal/led"
)

const (
	chaseSpacing = 3
	chaseFrame   = time.Second / 30
)

// Chase is a time-based theater chase. Speed changes keep the current
// offset in place.
type Chase struct {
	colorField
	speedField

	start   time.Duration
	last    time.Duration
	started bool
}

func NewChase(c led.RGB, speed uint8) *Chase {
	return &Chase{
		colorField: colorField{color: c},
		speedField: speedField{speed: clampSpeed(speed)},
	}
}

func (c *Chase) Name() string { return "Chase" }

// stepsPerSecond spans 1..20.
func (c *Chase) stepsPerSecond() float64 {
	return 1 + speedFactor(c.speed)*19
}

func (c *Chase) offset(now time.Duration) int {
	return int(c.stepsPerSecond()*seconds(now-c.start)) % chaseSpacing
}

func (c *Chase) Update(now time.Duration, buf []led.RGB) (time.Duration, bool) {
	if !c.started {
		c.start = now
		c.started = true
	}
	c.last = now

	off := c.offset(now)
	for i := range buf {
		if (i+off)%chaseSpacing == 0 {
			buf[i] = c.color
		} else {
			buf[i] = led.Black
		}
	}
	return now + chaseFrame, true
}

func (c *Chase) SetSpeed(s uint8) bool {
	s = clampSpeed(s)
	if s == c.speed {
		return false
	}
	if !c.started {
		c.speed = s
		return true
	}
	// Anchor half a step into the current offset so rounding cannot drop
	// it to the previous one.
	off := float64(c.offset(c.last)) + 0.5
	c.speed = s
	c.start = c.last - time.Duration(off/c.stepsPerSecond()*float64(time.Second))
	return true
}
