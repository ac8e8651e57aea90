// SPDX-License-Identifier: MIT
package effect

import (
	"time"

	"soundstrip/internal/led"
)

const scanFrame = time.Second / 60

// Scan moves a soft-edged eye between the strip ends on a black background.
type Scan struct {
	colorField
	speedField

	eye int
	pos float64
	dir float64
}

func NewScan(numLEDs int, c led.RGB, speed uint8) *Scan {
	return &Scan{
		colorField: colorField{color: c},
		speedField: speedField{speed: clampSpeed(speed)},
		eye:        max(numLEDs/20, 3),
		dir:        1,
	}
}

func (s *Scan) Name() string { return "Scan" }

func (s *Scan) Update(now time.Duration, buf []led.RGB) (time.Duration, bool) {
	n := len(buf)
	s.pos += (10 + speedFactor(s.speed)*190) / 60 * s.dir

	end := float64(n - s.eye)
	if s.pos >= end {
		s.pos = max(end, 0)
		s.dir = -1
	} else if s.pos <= 0 {
		s.pos = 0
		s.dir = 1
	}

	led.Fill(buf, led.Black)
	half := float64(s.eye) / 2
	start := int(s.pos)
	for i := range s.eye {
		p := start + i
		if p >= n {
			break
		}
		d := float64(i) - half
		if d < 0 {
			d = -d
		}
		buf[p] = s.color.Scale(1 - d/half)
	}
	return now + scanFrame, true
}
