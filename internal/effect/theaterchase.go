// SPDX-License-Identifier: MIT
package effect

import (
	"math"
	"time"

	"soundstrip/internal/led"
)

const theaterSpacing = 3

// TheaterChase lights every third pixel and marches the pattern forward.
type TheaterChase struct {
	colorField
	speedField
	offset float64
}

func NewTheaterChase(c led.RGB, speed uint8) *TheaterChase {
	return &TheaterChase{
		colorField: colorField{color: c},
		speedField: speedField{speed: clampSpeed(speed)},
	}
}

func (t *TheaterChase) Name() string { return "TheaterChase" }

func (t *TheaterChase) Update(now time.Duration, buf []led.RGB) (time.Duration, bool) {
	t.offset = math.Mod(t.offset+0.05+speedFactor(t.speed)*0.4, theaterSpacing)
	shift := int(t.offset)
	for i := range buf {
		if (i+shift)%theaterSpacing == 0 {
			buf[i] = t.color
		} else {
			buf[i] = led.Black
		}
	}
	return now + FrameTime, true
}
