// SPDX-License-Identifier: MIT
package analysis

import "sync/atomic"

// NumBins is the number of coarse, log-spaced spectrum bins in a Snapshot.
const NumBins = 8

// Snapshot is one published set of audio features. Levels are in [0, 1];
// Bass, Mid and Treble are fractions of the analysed spectrum. The zero
// value means no audio has been analysed yet.
type Snapshot struct {
	Volume        float64          `json:"volume"`
	Bass          float64          `json:"bass"`
	Mid           float64          `json:"mid"`
	Treble        float64          `json:"treble"`
	Bins          [NumBins]float64 `json:"bins"`
	PeakFrequency float64          `json:"peakFrequency"`
	Seq           uint64           `json:"seq"`
}

// Channel hands the latest Snapshot from the audio goroutine to any number
// of readers. Readers never block and never see a partially written value.
type Channel struct {
	latest atomic.Pointer[Snapshot]
	seq    uint64 // writer-owned
}

// Publish stores a copy of s, stamping it with the next sequence number.
// Only one goroutine may publish.
func (c *Channel) Publish(s Snapshot) {
	c.seq++
	s.Seq = c.seq
	c.latest.Store(&s)
}

// Load returns the most recent Snapshot, or the zero Snapshot before the
// first Publish.
func (c *Channel) Load() Snapshot {
	if p := c.latest.Load(); p != nil {
		return *p
	}
	return Snapshot{}
}
