// SPDX-License-Identifier: MIT
package effect

import (
	"time"

	"soundstrip/internal/led"
)

// Static holds one solid color. It only draws after a color change.
type Static struct {
	colorField
	noSpeed
	dirty bool
}

func NewStatic(c led.RGB) *Static {
	return &Static{colorField: colorField{color: c}, dirty: true}
}

func (s *Static) Name() string { return "Static" }

func (s *Static) Update(_ time.Duration, buf []led.RGB) (time.Duration, bool) {
	led.Fill(buf, s.color)
	s.dirty = false
	return 0, false
}

func (s *Static) SetColor(c led.RGB) bool {
	if s.colorField.SetColor(c) {
		s.dirty = true
	}
	return s.dirty
}

// Dirty reports whether the next Update changes the buffer.
func (s *Static) Dirty() bool { return s.dirty }
