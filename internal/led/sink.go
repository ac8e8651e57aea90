// SPDX-License-Identifier: MIT
package led

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("led: sink closed")

// Sink transfers one encoded frame to the strip. Write blocks until the
// bytes are handed to the transport. Sinks are driven from the render loop
// only, so implementations need not be safe for concurrent Write calls.
type Sink interface {
	Write(frame []byte) error
	Close() error
}

// Discard is a Sink that drops frames and counts them. It backs the "none"
// sink used for headless dry runs.
type Discard struct {
	frames atomic.Uint64
	closed atomic.Bool
}

func (d *Discard) Write(frame []byte) error {
	if d.closed.Load() {
		return ErrClosed
	}
	d.frames.Add(1)
	return nil
}

func (d *Discard) Close() error {
	d.closed.Store(true)
	return nil
}

// Frames returns the number of frames written so far.
func (d *Discard) Frames() uint64 {
	return d.frames.Load()
}

// MemorySink keeps a copy of every frame written. It can be told to fail.
type MemorySink struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (m *MemorySink) Write(frame []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.frames = append(m.frames, append([]byte(nil), frame...))
	return nil
}

func (m *MemorySink) Close() error { return nil }

// FailWith makes subsequent writes return err; nil restores normal writes.
func (m *MemorySink) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Frames returns the recorded frames in write order.
func (m *MemorySink) Frames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.frames...)
}

// Last returns the most recent frame, or nil.
func (m *MemorySink) Last() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return nil
	}
	return m.frames[len(m.frames)-1]
}

// Tap forwards frames to another sink and keeps a copy of the last one that
// went through, for diagnostics read from other goroutines.
type Tap struct {
	Sink
	order ColorOrder

	mu   sync.Mutex
	last []byte
}

// NewTap wraps inner. order is the wire order inner is fed with.
func NewTap(inner Sink, order ColorOrder) *Tap {
	return &Tap{Sink: inner, order: order}
}

func (t *Tap) Write(frame []byte) error {
	if err := t.Sink.Write(frame); err != nil {
		return err
	}
	t.mu.Lock()
	t.last = append(t.last[:0], frame...)
	t.mu.Unlock()
	return nil
}

// Last decodes the most recent successful frame into dst.
func (t *Tap) Last(dst []RGB) []RGB {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Decode(dst, t.last, t.order)
}

// Tee writes every frame to each sink in turn. A failing sink does not
// stop the others; their errors are joined.
type Tee []Sink

func (t Tee) Write(frame []byte) error {
	var errs []error
	for _, s := range t {
		if err := s.Write(frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t Tee) Close() error {
	var errs []error
	for _, s := range t {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ Sink = (*Discard)(nil)
	_ Sink = (*MemorySink)(nil)
	_ Sink = (*Tap)(nil)
	_ Sink = Tee(nil)
)
