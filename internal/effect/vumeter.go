// SPDX-License-Identifier: MIT
package effect

import (
	"time"

	"soundstrip/internal/analysis"
	"soundstrip/internal/led"
)

const (
	vuFrame    = time.Second / 60
	vuPeakHold = 500 * time.Millisecond
	// vuPeakFall is how far the held peak sinks per second once released.
	vuPeakFall = 0.8
)

var vuPeakColor = led.RGB{R: 0, G: 255, B: 255}

// VUMeter shows the smoothed volume as a bar running green to yellow to
// red, with a peak marker that holds briefly and then sinks back.
type VUMeter struct {
	noColor
	speedField

	level   float64
	peak    float64
	peakAt  time.Duration
	last    time.Duration
	started bool
}

func NewVUMeter(speed uint8) *VUMeter {
	return &VUMeter{speedField: speedField{speed: clampSpeed(speed)}}
}

func (v *VUMeter) Name() string { return "VUMeter" }

func (v *VUMeter) Update(now time.Duration, buf []led.RGB) (time.Duration, bool) {
	return v.UpdateAudio(now, analysis.Snapshot{}, buf)
}

func (v *VUMeter) UpdateAudio(now time.Duration, snap analysis.Snapshot, buf []led.RGB) (time.Duration, bool) {
	dt := time.Duration(0)
	if v.started {
		dt = max(now-v.last, 0)
	}
	v.last = now
	v.started = true

	sf := speedFactor(v.speed)
	target := snap.Volume
	if target > v.level {
		v.level += (target - v.level) * (0.3 + sf*0.4)
	} else {
		v.level += (target - v.level) * (0.1 + sf*0.2)
	}

	if v.level >= v.peak {
		v.peak = v.level
		v.peakAt = now
	} else if now-v.peakAt > vuPeakHold {
		v.peak = max(v.level, v.peak-vuPeakFall*seconds(dt))
	}

	v.draw(buf)
	return now + vuFrame, true
}

func (v *VUMeter) draw(buf []led.RGB) {
	n := len(buf)
	lit := int(v.level * float64(n))
	for i := range buf {
		if i >= lit {
			buf[i] = led.Black
			continue
		}
		switch frac := float64(i) / float64(n); {
		case frac < 0.33:
			buf[i] = led.RGB{G: 255}
		case frac < 0.66:
			buf[i] = led.RGB{R: 255, G: 255}
		default:
			buf[i] = led.RGB{R: 255}
		}
	}

	if p := int(v.peak * float64(n)); v.peak > 0 && p > 0 {
		buf[min(p, n)-1] = vuPeakColor
	}
}

// Level and Peak expose the meter state as fractions of the strip.
func (v *VUMeter) Level() float64 { return v.level }
func (v *VUMeter) Peak() float64  { return v.peak }
