// SPDX-License-Identifier: MIT
package analysis

import "math"

// Band edges in Hz. Energy at or above TrebleMaxHz is ignored.
const (
	BassMaxHz   = 250.0
	MidMaxHz    = 2000.0
	TrebleMaxHz = 8000.0
)

const noBand = -1

// bandLevels is one block's spectral breakdown before smoothing.
type bandLevels struct {
	bass, mid, treble float64
	bins              [NumBins]float64
	peakHz            float64
}

// bandLayout maps FFT bins to bands and coarse bins once, so the hot path
// only sums.
type bandLayout struct {
	resolution float64
	band       []int8 // 0 bass, 1 mid, 2 treble, noBand
	coarse     []int8 // 0..NumBins-1 or noBand
}

// newBandLayout covers bins 1..size/2-1; DC is removed upstream and never
// counted. Coarse bins are log-spaced between the first bin and
// min(TrebleMaxHz, Nyquist).
func newBandLayout(size int, sampleRate float64) bandLayout {
	half := size / 2
	l := bandLayout{
		resolution: sampleRate / float64(size),
		band:       make([]int8, half),
		coarse:     make([]int8, half),
	}

	lo := l.resolution
	hi := min(TrebleMaxHz, sampleRate/2)
	span := math.Log(hi / lo)

	for i := range half {
		l.band[i], l.coarse[i] = noBand, noBand
		f := float64(i) * l.resolution
		if i == 0 || f >= TrebleMaxHz {
			continue
		}
		switch {
		case f < BassMaxHz:
			l.band[i] = 0
		case f < MidMaxHz:
			l.band[i] = 1
		default:
			l.band[i] = 2
		}
		if span > 0 {
			k := int(float64(NumBins) * math.Log(f/lo) / span)
			l.coarse[i] = int8(min(max(k, 0), NumBins-1))
		}
	}
	return l
}

// measure sums magnitudes into bands and returns them as fractions of the
// total. It reports false, leaving out untouched, when the spectrum is
// empty.
func (l *bandLayout) measure(mag []float64, out *bandLevels) bool {
	var sums [3]float64
	var bins [NumBins]float64
	var peak float64
	peakBin := 0

	for i := 1; i < len(l.band) && i < len(mag); i++ {
		m := mag[i]
		if m > peak {
			peak = m
			peakBin = i
		}
		if b := l.band[i]; b != noBand {
			sums[b] += m
		}
		if c := l.coarse[i]; c != noBand {
			bins[c] += m
		}
	}

	total := sums[0] + sums[1] + sums[2]
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return false
	}

	out.bass = sums[0] / total
	out.mid = sums[1] / total
	out.treble = sums[2] / total
	for i := range bins {
		out.bins[i] = bins[i] / total
	}
	out.peakHz = float64(peakBin) * l.resolution
	return true
}
