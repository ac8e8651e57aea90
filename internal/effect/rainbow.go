// SPDX-License-Identifier: MIT
package effect

import (
	"math"
	"time"

	"soundstrip/internal/led"
)

const rainbowFrame = time.Second / 30

// Rainbow scrolls the hue wheel along the strip. Hue is a function of
// elapsed time, so changing speed re-anchors the start to keep the current
// hue where it is.
type Rainbow struct {
	noColor
	speedField

	hueStep float64
	start   time.Duration
	last    time.Duration
	started bool
}

func NewRainbow(numLEDs int, speed uint8) *Rainbow {
	return &Rainbow{
		speedField: speedField{speed: clampSpeed(speed)},
		hueStep:    360 / float64(max(numLEDs, 1)),
	}
}

func (r *Rainbow) Name() string { return "Rainbow" }

// hueSpeed is in degrees per second.
func (r *Rainbow) hueSpeed() float64 {
	return 10 + speedFactor(r.speed)*350
}

func (r *Rainbow) offset(now time.Duration) float64 {
	return math.Mod(r.hueSpeed()*seconds(now-r.start), 360)
}

func (r *Rainbow) Update(now time.Duration, buf []led.RGB) (time.Duration, bool) {
	if !r.started {
		r.start = now
		r.started = true
	}
	r.last = now

	off := r.offset(now)
	for i := range buf {
		buf[i] = led.HSV(off+float64(i)*r.hueStep, 1, 1)
	}
	return now + rainbowFrame, true
}

func (r *Rainbow) SetSpeed(s uint8) bool {
	s = clampSpeed(s)
	if s == r.speed {
		return false
	}
	if !r.started {
		r.speed = s
		return true
	}

	hue := r.offset(r.last)
	r.speed = s
	r.start = r.last - time.Duration(hue/r.hueSpeed()*float64(time.Second))
	return true
}
