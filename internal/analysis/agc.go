// SPDX-License-Identifier: MIT
package analysis

// AGC tuning.
const (
	AGCTarget  = 0.7
	AGCSpeed   = 0.15
	AGCMinGain = 0.5
	AGCMaxGain = 15.0
	AGCHistory = 100

	// Below this mean the input is treated as silence and the gain is left
	// alone.
	agcMinMean = 0.01
)

// AGC tracks a running mean of recent input levels and steers its gain so
// that the mean lands on AGCTarget. The gain always stays within
// [AGCMinGain, AGCMaxGain].
type AGC struct {
	gain    float64
	history [AGCHistory]float64
	count   int
	next    int
}

func NewAGC() *AGC {
	return &AGC{gain: 1}
}

func (a *AGC) Gain() float64 { return a.gain }

// Update records one pre-gain level and returns the adjusted gain.
func (a *AGC) Update(level float64) float64 {
	a.history[a.next] = level
	a.next = (a.next + 1) % AGCHistory
	a.count = min(a.count+1, AGCHistory)

	var sum float64
	for _, v := range a.history[:a.count] {
		sum += v
	}
	mean := sum / float64(a.count)
	if mean <= agcMinMean {
		return a.gain
	}

	a.gain += (AGCTarget/mean - a.gain) * AGCSpeed
	a.gain = min(max(a.gain, AGCMinGain), AGCMaxGain)
	return a.gain
}

// Reset clears the history and restores unity gain.
func (a *AGC) Reset() {
	*a = AGC{gain: 1}
}
