// SPDX-License-Identifier: MIT
package effect

import (
	"time"

	"soundstrip/internal/led"
)

const (
	bounceFade     = 200
	bounceBallSize = 3
	maxBounceStep  = 100 * time.Millisecond
)

// Relative speeds of the balls; unequal so they drift in and out of phase.
var bounceRatios = [...]float64{1.0, 0.73, 0.51}

type ball struct {
	pos float64
	dir float64
}

// Bounce moves a few balls between the strip ends. Overlapping balls add up.
type Bounce struct {
	colorField
	speedField

	balls   [len(bounceRatios)]ball
	last    time.Duration
	started bool
}

func NewBounce(numLEDs int, c led.RGB, speed uint8) *Bounce {
	b := &Bounce{
		colorField: colorField{color: c},
		speedField: speedField{speed: clampSpeed(speed)},
	}
	for i := range b.balls {
		b.balls[i] = ball{
			pos: float64(i*max(numLEDs-1, 0)) / float64(len(b.balls)),
			dir: 1,
		}
	}
	return b
}

func (b *Bounce) Name() string { return "Bounce" }

// pixelsPerSecond is the fastest ball's speed, 0.3..2.8 px per frame at 42 fps.
func (b *Bounce) pixelsPerSecond() float64 {
	return (0.3 + speedFactor(b.speed)*2.5) * float64(time.Second/FrameTime)
}

func (b *Bounce) Update(now time.Duration, buf []led.RGB) (time.Duration, bool) {
	var dt time.Duration
	if b.started {
		dt = min(max(now-b.last, 0), maxBounceStep)
	}
	b.last = now
	b.started = true

	n := len(buf)
	if n == 0 {
		return now + FrameTime, true
	}
	led.Dim(buf, bounceFade)

	last := float64(n - 1)
	base := b.pixelsPerSecond() * seconds(dt)
	for i := range b.balls {
		bl := &b.balls[i]
		bl.pos += base * bounceRatios[i] * bl.dir
		if bl.pos >= last {
			bl.pos = last
			bl.dir = -1
		} else if bl.pos <= 0 {
			bl.pos = 0
			bl.dir = 1
		}

		center := int(bl.pos + 0.5)
		for d := -(bounceBallSize / 2); d <= bounceBallSize/2; d++ {
			p := center + d
			if p < 0 || p >= n {
				continue
			}
			f := 1.0
			if d != 0 {
				f = 0.4
			}
			buf[p] = buf[p].Add(b.color.Scale(f))
		}
	}
	return now + FrameTime, true
}
