// SPDX-License-Identifier: MIT
package effect

import (
	"time"

	"soundstrip/internal/led"
)

const (
	scannerFade = 230
	scannerTail = 5
)

// Scanner sweeps a short lit segment back and forth over a fading trail.
type Scanner struct {
	colorField
	speedField

	pos float64
	dir float64
}

func NewScanner(c led.RGB, speed uint8) *Scanner {
	return &Scanner{
		colorField: colorField{color: c},
		speedField: speedField{speed: clampSpeed(speed)},
		dir:        1,
	}
}

func (s *Scanner) Name() string { return "Scanner" }

func (s *Scanner) Update(now time.Duration, buf []led.RGB) (time.Duration, bool) {
	n := len(buf)
	if n == 0 {
		return now + FrameTime, true
	}
	led.Dim(buf, scannerFade)

	s.pos += (0.3 + speedFactor(s.speed)*2.5) * s.dir
	last := float64(n - 1)
	if s.pos >= last {
		s.pos = last
		s.dir = -1
	} else if s.pos <= 0 {
		s.pos = 0
		s.dir = 1
	}

	head := int(s.pos)
	for i := range scannerTail {
		// Tail trails behind the direction of travel.
		p := head - i*int(s.dir)
		if p < 0 || p >= n {
			continue
		}
		f := 1 - float64(i)/scannerTail
		buf[p] = buf[p].Max(s.color.Scale(f))
	}
	return now + FrameTime, true
}
