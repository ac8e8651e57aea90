// SPDX-License-Identifier: MIT
package effect

import (
	"math"
	"time"

	"soundstrip/internal/led"
)

const cometFrame = time.Second / 60

// Comet runs a bright head with a quadratic tail around the strip.
type Comet struct {
	colorField
	speedField

	numLEDs int
	tail    int
	start   time.Duration
	started bool
}

func NewComet(numLEDs int, c led.RGB, speed uint8) *Comet {
	return &Comet{
		colorField: colorField{color: c},
		speedField: speedField{speed: clampSpeed(speed)},
		numLEDs:    numLEDs,
		tail:       max(numLEDs/4, 5),
	}
}

func (c *Comet) Name() string { return "Comet" }

// pixelsPerSecond spans 10..200.
func (c *Comet) pixelsPerSecond() float64 {
	return 10 + speedFactor(c.speed)*190
}

func (c *Comet) Update(now time.Duration, buf []led.RGB) (time.Duration, bool) {
	if !c.started {
		c.start = now
		c.started = true
	}
	n := len(buf)
	if n == 0 {
		return now + cometFrame, true
	}

	head := int(math.Mod(c.pixelsPerSecond()*seconds(now-c.start), float64(n)))
	led.Fill(buf, led.Black)
	for i := range c.tail {
		pos := head - i
		if pos < 0 {
			pos += n
		}
		if pos < 0 {
			break
		}
		f := 1 - float64(i)/float64(c.tail)
		buf[pos] = c.color.Scale(f * f)
	}
	return now + cometFrame, true
}
