// SPDX-License-Identifier: MIT
/*
Package audio captures sample blocks and feeds them to the feature
extractor. Sources cover a PortAudio microphone, a WAV file and a
synthetic signal; the Engine drives any of them from a dedicated
goroutine.

Thread Safety:
  - A Source is read from one goroutine only
  - The PortAudio callback hands blocks over through pre-allocated channels
  - The engine loop locks its OS thread while running
*/
package audio

import (
	"errors"
	"time"
)

// ErrTimeout is returned by Source.Read when no block arrived in time.
var ErrTimeout = errors.New("audio: read timed out")

// Source yields mono 32-bit blocks at a fixed sample rate.
type Source interface {
	// Read blocks until a block is available or timeout elapses, then copies
	// up to len(dst) samples into dst. It returns ErrTimeout on timeout and
	// io.EOF when a finite source is exhausted.
	Read(dst []int32, timeout time.Duration) (int, error)
	SampleRate() int
	Close() error
}

// pacer releases one block per period so file and synthetic sources run at
// the speed a microphone would.
type pacer struct {
	period time.Duration
	next   time.Time
	sleep  func(time.Duration)
}

func newPacer(blockSize, sampleRate int, realtime bool) *pacer {
	if !realtime {
		return nil
	}
	return &pacer{
		period: time.Duration(blockSize) * time.Second / time.Duration(sampleRate),
		sleep:  time.Sleep,
	}
}

// wait sleeps until the next block is due. A nil pacer never waits.
func (p *pacer) wait(timeout time.Duration) error {
	if p == nil {
		return nil
	}
	now := time.Now()
	if p.next.IsZero() || now.Sub(p.next) > 4*p.period {
		// First block, or the reader fell far behind: resync.
		p.next = now
	}
	d := p.next.Sub(now)
	if timeout > 0 && d > timeout {
		p.sleep(timeout)
		return ErrTimeout
	}
	if d > 0 {
		p.sleep(d)
	}
	p.next = p.next.Add(p.period)
	return nil
}
