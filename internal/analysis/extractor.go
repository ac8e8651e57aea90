// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"

	applog "soundstrip/internal/log"
)

// Smoothing factors for the exponential moving averages.
const (
	VolumeAlpha = 0.15
	BandAlpha   = 0.12
)

// Config holds the extractor parameters.
type Config struct {
	SampleRate float64
	FFTSize    int
	Window     WindowFunc
	GateFloor  float64
}

// DefaultConfig matches a 16 kHz microphone.
func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		FFTSize:    256,
		Window:     Hamming,
		GateFloor:  DefaultGateFloor,
	}
}

// Extractor turns blocks of 32-bit samples into smoothed perceptual
// features. It is an AudioProcessor owned by the audio goroutine; results
// are read back with Snapshot and handed to other goroutines through a
// Channel.
type Extractor struct {
	spectrum *Spectrum
	layout   bandLayout
	agc      *AGC
	gate     Gate

	// Raw targets of the last block and the smoothed state.
	target bandLevels
	state  Snapshot
}

var _ FeatureSource = (*Extractor)(nil)

func NewExtractor(cfg Config) (*Extractor, error) {
	spectrum, err := NewSpectrum(cfg.FFTSize, cfg.SampleRate, cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("extractor: %w", err)
	}
	if cfg.GateFloor < 0 || cfg.GateFloor >= 1 {
		return nil, fmt.Errorf("extractor: gate floor must be in [0, 1), got %f", cfg.GateFloor)
	}

	applog.Infof("Analysis: Extractor ready (FFT %d @ %.0f Hz, window %v, gate %.4f)",
		cfg.FFTSize, cfg.SampleRate, cfg.Window, cfg.GateFloor)

	return &Extractor{
		spectrum: spectrum,
		layout:   newBandLayout(cfg.FFTSize, cfg.SampleRate),
		agc:      NewAGC(),
		gate:     Gate{Floor: cfg.GateFloor},
	}, nil
}

// Process analyses one block. Blocks shorter than the FFT size are ignored.
func (e *Extractor) Process(block []int32) {
	n := len(block)
	if n == 0 || n < e.spectrum.Size() {
		return
	}

	var sum float64
	for _, s := range block {
		sum += float64(s)
	}
	mean := sum / float64(n)

	const norm = 1.0 / 2147483648.0
	var sq float64
	for _, s := range block {
		v := (float64(s) - mean) * norm
		sq += v * v
	}
	rms := math.Sqrt(sq / float64(n))

	volume := min(rms*e.agc.Gain(), 1)
	e.agc.Update(rms)
	volume = e.gate.Apply(volume)

	if volume == 0 {
		e.target = bandLevels{}
	} else {
		// A silent spectrum keeps the previous targets.
		e.layout.measure(e.spectrum.Compute(block, mean), &e.target)
	}

	e.state.Volume += (volume - e.state.Volume) * VolumeAlpha
	e.state.Bass += (e.target.bass - e.state.Bass) * BandAlpha
	e.state.Mid += (e.target.mid - e.state.Mid) * BandAlpha
	e.state.Treble += (e.target.treble - e.state.Treble) * BandAlpha
	for i := range e.state.Bins {
		e.state.Bins[i] += (e.target.bins[i] - e.state.Bins[i]) * BandAlpha
	}
	e.state.PeakFrequency = e.target.peakHz
}

// Snapshot returns the current gated features. Seq is left for the
// Channel to stamp.
func (e *Extractor) Snapshot() Snapshot {
	return e.gate.Snapshot(e.state)
}

// Gain is the current AGC gain.
func (e *Extractor) Gain() float64 {
	return e.agc.Gain()
}

// Spectrum exposes the underlying transform for diagnostics.
func (e *Extractor) Spectrum() *Spectrum {
	return e.spectrum
}
