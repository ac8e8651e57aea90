// SPDX-License-Identifier: MIT
package effect

import (
	"math/rand/v2"
	"time"

	"soundstrip/internal/led"
)

const (
	sparkleFadeStep = 15
	sparkleFloor    = 20
	sparkleMinGap   = 20 * time.Millisecond
	sparkleMaxGap   = 100 * time.Millisecond
)

type sparkle struct {
	pos   int
	level uint8
}

// Sparkle flashes random pixels that fade out over a few frames. The
// sequence is seeded per instance, so runs are reproducible.
type Sparkle struct {
	colorField
	speedField

	rng      *rand.Rand
	sparkles *Pool[sparkle]
}

func NewSparkle(numLEDs int, c led.RGB, speed uint8) *Sparkle {
	return &Sparkle{
		colorField: colorField{color: c},
		speedField: speedField{speed: clampSpeed(speed)},
		rng:        rand.New(rand.NewPCG(uint64(numLEDs), 0x5eed)),
		sparkles:   NewPool[sparkle](max(numLEDs/4, 8)),
	}
}

func (s *Sparkle) Name() string { return "Sparkle" }

// interval shrinks from 100 ms to 20 ms as speed rises.
func (s *Sparkle) interval() time.Duration {
	return sparkleMaxGap - time.Duration(s.speed)*(sparkleMaxGap-sparkleMinGap)/255
}

func (s *Sparkle) Update(now time.Duration, buf []led.RGB) (time.Duration, bool) {
	led.Fill(buf, led.Black)
	n := len(buf)
	if n == 0 {
		return now + s.interval(), true
	}

	for range max(int(s.speed)/50, 1) {
		s.sparkles.Add(sparkle{pos: s.rng.IntN(n), level: 255})
	}

	s.sparkles.Retain(func(sp *sparkle) bool {
		if sp.level <= sparkleFloor || sp.pos >= n {
			return false
		}
		sp.level -= sparkleFadeStep
		buf[sp.pos] = buf[sp.pos].Max(s.color.Scale(float64(sp.level) / 255))
		return true
	})
	return now + s.interval(), true
}
