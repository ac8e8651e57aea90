// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"time"
)

// SynthOptions describes the generated signal.
type SynthOptions struct {
	SampleRate int
	BlockSize  int
	Realtime   bool

	// Tones are steady sine partials in Hz, mixed at equal level.
	Tones     []float64
	ToneLevel float64 // 0..1
	// BPM sets the kick drum tempo; 0 disables the kick.
	BPM       float64
	KickLevel float64 // 0..1
}

// DefaultSynthOptions is a quiet A-major chord over a 120 BPM kick.
func DefaultSynthOptions() SynthOptions {
	return SynthOptions{
		SampleRate: 16000,
		BlockSize:  256,
		Realtime:   true,
		Tones:      []float64{440, 554.37, 659.25},
		ToneLevel:  0.2,
		BPM:        120,
		KickLevel:  0.7,
	}
}

const (
	kickHz    = 55.0
	kickDecay = 0.08 // seconds
)

// SynthSource generates a deterministic test signal. The same options
// always yield the same sample sequence.
type SynthSource struct {
	opts  SynthOptions
	n     int64 // samples generated so far
	beat  int64 // samples per beat
	pacer *pacer
}

var _ Source = (*SynthSource)(nil)

func NewSynth(opts SynthOptions) *SynthSource {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = 256
	}
	s := &SynthSource{
		opts:  opts,
		pacer: newPacer(opts.BlockSize, opts.SampleRate, opts.Realtime),
	}
	if opts.BPM > 0 {
		s.beat = int64(float64(opts.SampleRate) * 60 / opts.BPM)
	}
	return s
}

func (s *SynthSource) Read(dst []int32, timeout time.Duration) (int, error) {
	if err := s.pacer.wait(timeout); err != nil {
		return 0, err
	}
	for i := range dst {
		dst[i] = int32(s.sample(s.n) * math.MaxInt32)
		s.n++
	}
	return len(dst), nil
}

// sample returns the signal at sample index n in [-1, 1].
func (s *SynthSource) sample(n int64) float64 {
	rate := float64(s.opts.SampleRate)
	t := float64(n) / rate

	var v float64
	if k := len(s.opts.Tones); k > 0 {
		for _, f := range s.opts.Tones {
			v += math.Sin(2 * math.Pi * f * t)
		}
		v *= s.opts.ToneLevel / float64(k)
	}

	if s.beat > 0 {
		since := float64(n%s.beat) / rate
		v += s.opts.KickLevel * math.Exp(-since/kickDecay) * math.Sin(2*math.Pi*kickHz*since)
	}
	return max(-1, min(1, v))
}

func (s *SynthSource) SampleRate() int { return s.opts.SampleRate }

func (s *SynthSource) Close() error { return nil }
