// SPDX-License-Identifier: MIT
package led

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const pixelGlyph = "█"

// RenderStrip draws pixels as a row of colored blocks, sampling down to at
// most columns cells.
func RenderStrip(pixels []RGB, columns int) string {
	if len(pixels) == 0 {
		return ""
	}
	if columns <= 0 || columns > len(pixels) {
		columns = len(pixels)
	}

	var sb strings.Builder
	for col := range columns {
		px := pixels[col*len(pixels)/columns]
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(px.Hex()))
		sb.WriteString(style.Render(pixelGlyph))
	}
	return sb.String()
}

// TerminalSink previews the strip on a terminal line, redrawing in place.
// Frames must be in RGB wire order.
type TerminalSink struct {
	w       io.Writer
	columns int
	pixels  []RGB

	mu     sync.Mutex
	closed bool
}

// NewTerminalSink writes to w using at most columns cells per frame.
func NewTerminalSink(w io.Writer, columns int) *TerminalSink {
	return &TerminalSink{w: w, columns: columns}
}

func (t *TerminalSink) Write(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.pixels = Decode(t.pixels, frame, OrderRGB)
	_, err := fmt.Fprintf(t.w, "\r%s", RenderStrip(t.pixels, t.columns))
	return err
}

func (t *TerminalSink) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	_, err := fmt.Fprintln(t.w)
	return err
}

// ChannelSink hands decoded frames to a consumer such as the preview TUI.
// A consumer that falls behind misses frames; Write never blocks on it.
type ChannelSink struct {
	frames chan []RGB
	order  ColorOrder

	mu     sync.RWMutex
	closed bool
}

// NewChannelSink buffers up to depth frames, decoding them from order.
func NewChannelSink(depth int, order ColorOrder) *ChannelSink {
	return &ChannelSink{frames: make(chan []RGB, max(depth, 1)), order: order}
}

// Frames is the receive side.
func (c *ChannelSink) Frames() <-chan []RGB {
	return c.frames
}

func (c *ChannelSink) Write(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	px := Decode(make([]RGB, 0, len(frame)/3), frame, c.order)
	select {
	case c.frames <- px:
	default:
	}
	return nil
}

// Close closes the frame channel. Later writes return ErrClosed.
func (c *ChannelSink) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.frames)
	}
	return nil
}

var (
	_ Sink = (*TerminalSink)(nil)
	_ Sink = (*ChannelSink)(nil)
)
