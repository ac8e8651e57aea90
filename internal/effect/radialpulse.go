// SPDX-License-Identifier: MIT
package effect

import (
	"math"
	"time"

	"soundstrip/internal/analysis"
	"soundstrip/internal/led"
)

const (
	pulseFrame    = time.Second / 60
	pulseCapacity = 20
	pulseFade     = 0.85
	// Mid pulses are let through on every third frame only.
	pulseMidEvery = 3
)

var pulsePeaks = PeakDetector{Ratio: 1.3, Floor: 0.15, NearMax: 0.9, MaxFloor: 0.8}

// Pulse is a ring expanding from the strip center in both directions.
type Pulse struct {
	Radius     float64
	Width      float64
	Speed      float64 // pixels per second at speed 128
	Brightness float64
	Color      led.RGB
}

// RadialPulse sends rings outward from the middle of the strip on band
// peaks, with a center glow mixing the current band levels.
type RadialPulse struct {
	colorField
	speedField

	numLEDs int
	pulses  *Pool[Pulse]

	bass, mid, treble, volume float64
	bassHist                  History

	frame   uint64
	last    time.Duration
	started bool
}

func NewRadialPulse(numLEDs int, c led.RGB, speed uint8) *RadialPulse {
	return &RadialPulse{
		colorField: colorField{color: c},
		speedField: speedField{speed: clampSpeed(speed)},
		numLEDs:    numLEDs,
		pulses:     NewPool[Pulse](pulseCapacity),
	}
}

func (r *RadialPulse) Name() string { return "RadialPulse" }

// Pulses returns the live ring count.
func (r *RadialPulse) Pulses() int { return r.pulses.Len() }

func (r *RadialPulse) Update(now time.Duration, buf []led.RGB) (time.Duration, bool) {
	return r.UpdateAudio(now, analysis.Snapshot{}, buf)
}

func (r *RadialPulse) UpdateAudio(now time.Duration, snap analysis.Snapshot, buf []led.RGB) (time.Duration, bool) {
	if !r.started {
		r.started = true
		r.last = now
		return now + pulseFrame, true
	}
	dt := min(max(seconds(now-r.last), 0.001), 0.1)
	r.last = now
	r.frame++

	r.bass += (snap.Bass - r.bass) * 0.2
	r.mid += (snap.Mid - r.mid) * 0.2
	r.treble += (snap.Treble - r.treble) * 0.2
	r.volume += (snap.Volume - r.volume) * 0.1
	r.bassHist.Push(r.bass)

	if pulsePeaks.Detect(r.bass, r.bassHist.Values()) {
		r.spawn(r.bass, BandBass)
	}
	if r.mid > 0.25 && r.frame%pulseMidEvery == 0 {
		r.spawn(r.mid, BandMid)
	}
	if r.treble > 0.3 {
		r.spawn(r.treble, BandTreble)
	}

	mult := float64(r.speed) / 128
	limit := float64(r.numLEDs) * 1.5
	r.pulses.Retain(func(p *Pulse) bool {
		p.Radius += p.Speed * mult * dt
		p.Brightness *= 0.95
		return p.Brightness > 0.01 && p.Radius < limit
	})

	r.draw(buf)
	return now + pulseFrame, true
}

func pulseColor(band Band, v float64) led.RGB {
	v = min(max(v, 0), 1)
	switch band {
	case BandBass:
		return led.HSV((0.95-v*0.15)*360, 1, 1)
	case BandMid:
		return led.HSV((0.05+v*0.25)*360, 1, 1)
	default:
		return led.HSV((0.5+v*0.15)*360, 1-v*0.5, 1)
	}
}

func (r *RadialPulse) spawn(intensity float64, band Band) {
	var speed, width float64
	switch band {
	case BandBass:
		speed, width = 12, 6
	case BandMid:
		speed, width = 20, 4
	default:
		speed, width = 35, 2.5
	}
	r.pulses.Add(Pulse{
		Speed:      speed + intensity*intensity*15,
		Width:      width + intensity*3,
		Brightness: 0.6 + intensity*0.4,
		Color:      pulseColor(band, intensity),
	})
}

func (r *RadialPulse) draw(buf []led.RGB) {
	led.ScaleAll(buf, pulseFade)
	n := len(buf)
	center := float64(n) / 2

	for _, p := range r.pulses.Items() {
		lo := max(int(math.Floor(center-p.Radius-p.Width)), 0)
		hi := min(int(math.Ceil(center+p.Radius+p.Width)), n)
		left, right := center-p.Radius, center+p.Radius

		for i := lo; i < hi; i++ {
			pos := float64(i)
			d := min(math.Abs(pos-left), math.Abs(pos-right))
			if d >= p.Width {
				continue
			}
			k := 1 - d/p.Width
			if b := min(p.Brightness*k*k, 1); b > 0.01 {
				buf[i] = buf[i].Add(p.Color.Scale(b))
			}
		}
	}

	c := n / 2
	if c >= n {
		return
	}
	glow := led.RGB{
		R: uint8(min(r.bass, 1) * 255),
		G: uint8(min(r.mid, 1) * 200),
		B: uint8(min(r.treble, 1) * 255),
	}
	buf[c] = buf[c].Add(glow)
	half := led.RGB{R: glow.R >> 1, G: glow.G >> 1, B: glow.B >> 1}
	if c > 0 {
		buf[c-1] = buf[c-1].Add(half)
	}
	if c+1 < n {
		buf[c+1] = buf[c+1].Add(half)
	}
}
