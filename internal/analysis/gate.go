// SPDX-License-Identifier: MIT
package analysis

// DefaultGateFloor keeps microphone hiss from animating the strip.
const DefaultGateFloor = 0.004

// Gate zeroes levels below Floor and passes everything else through
// unchanged, so applying it twice is the same as applying it once.
type Gate struct {
	Floor float64
}

func (g Gate) Apply(v float64) float64 {
	if v < g.Floor {
		return 0
	}
	return v
}

// Snapshot gates every level in s.
func (g Gate) Snapshot(s Snapshot) Snapshot {
	s.Volume = g.Apply(s.Volume)
	s.Bass = g.Apply(s.Bass)
	s.Mid = g.Apply(s.Mid)
	s.Treble = g.Apply(s.Treble)
	for i := range s.Bins {
		s.Bins[i] = g.Apply(s.Bins[i])
	}
	if s.Volume == 0 {
		s.PeakFrequency = 0
	}
	return s
}
