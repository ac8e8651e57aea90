// SPDX-License-Identifier: MIT
package effect

// HistoryLen is the window the peak detector compares against.
const HistoryLen = 6

// History is a fixed ring of recent band levels. It starts zero-filled, so
// the mean ramps up over the first HistoryLen pushes.
type History struct {
	values [HistoryLen]float64
	next   int
}

func (h *History) Push(v float64) {
	h.values[h.next] = v
	h.next = (h.next + 1) % HistoryLen
}

// Values returns the ring contents in storage order.
func (h *History) Values() []float64 {
	return h.values[:]
}

// PeakDetector flags a band level that stands out from its history: either
// well above the mean, or close to the recent maximum and loud in absolute
// terms.
type PeakDetector struct {
	Ratio    float64 // current > mean*Ratio
	Floor    float64 // ...and current > Floor
	NearMax  float64 // or current > max*NearMax
	MaxFloor float64 // ...and current > MaxFloor
}

func (d PeakDetector) Detect(current float64, history []float64) bool {
	if len(history) == 0 {
		return false
	}
	var sum, peak float64
	for _, v := range history {
		sum += v
		peak = max(peak, v)
	}
	mean := sum / float64(len(history))

	if current > mean*d.Ratio && current > d.Floor {
		return true
	}
	return current > peak*d.NearMax && current > d.MaxFloor
}
