// SPDX-License-Identifier: MIT
package effect

import (
	"math"
	"time"

	"soundstrip/internal/analysis"
	"soundstrip/internal/led"
)

const (
	gravimeterFrame     = time.Second / 60
	gravimeterParticles = 16
	gravimeterSpawnGap  = 60 * time.Millisecond
)

// Band tags which part of the spectrum launched a particle.
type Band uint8

const (
	BandBass Band = iota
	BandMid
	BandTreble
)

// Particle is one launched dot. Position and Velocity are in pixels and
// pixels per 60 Hz frame.
type Particle struct {
	Position   float64
	Velocity   float64
	Brightness float64
	Color      led.RGB
	Band       Band
}

var gravimeterPeaks = PeakDetector{Ratio: 1.3, Floor: 0.12, NearMax: 0.9, MaxFloor: 0.2}

// Gravimeter launches particles from the start of the strip on band peaks.
// Speed sets how fast they are pushed along. Particle color follows
// intensity, so the stored color is kept only for switching effects.
type Gravimeter struct {
	colorField
	speedField

	numLEDs   int
	particles *Pool[Particle]

	bass, mid, treble  float64
	bassHist, trebHist History

	lastSpawn time.Duration
	last      time.Duration
	started   bool
}

func NewGravimeter(numLEDs int, c led.RGB, speed uint8) *Gravimeter {
	return &Gravimeter{
		colorField: colorField{color: c},
		speedField: speedField{speed: clampSpeed(speed)},
		numLEDs:    numLEDs,
		particles:  NewPool[Particle](gravimeterParticles),
	}
}

func (g *Gravimeter) Name() string { return "Gravimeter" }

// Particles returns the live particle count.
func (g *Gravimeter) Particles() int { return g.particles.Len() }

func (g *Gravimeter) Update(now time.Duration, buf []led.RGB) (time.Duration, bool) {
	return g.UpdateAudio(now, analysis.Snapshot{}, buf)
}

func (g *Gravimeter) UpdateAudio(now time.Duration, snap analysis.Snapshot, buf []led.RGB) (time.Duration, bool) {
	if !g.started {
		g.started = true
		g.last = now
		return now + gravimeterFrame, true
	}
	dt := min(max(seconds(now-g.last), 0.001), 0.1)
	g.last = now

	g.bass = g.bass*0.7 + snap.Bass*0.3
	g.mid = g.mid*0.7 + snap.Mid*0.3
	g.treble = g.treble*0.7 + snap.Treble*0.3
	g.bassHist.Push(g.bass)
	g.trebHist.Push(g.treble)

	intervalDue := now-g.lastSpawn > gravimeterSpawnGap
	if gravimeterPeaks.Detect(g.bass, g.bassHist.Values()) {
		g.spawn(g.bass, BandBass)
		if intervalDue {
			g.lastSpawn = now
		}
	}
	if intervalDue && g.mid > 0.2 {
		g.spawn(g.mid, BandMid)
	}
	if g.treble > 0.25 && (gravimeterPeaks.Detect(g.treble, g.trebHist.Values()) || g.treble > 0.4) {
		g.spawn(g.treble, BandTreble)
	}

	g.step(dt)
	g.draw(buf)
	return now + gravimeterFrame, true
}

func (g *Gravimeter) spawn(intensity float64, band Band) {
	intensity = min(max(intensity, 0), 1)
	var base float64
	switch band {
	case BandBass:
		base = 0.25
	case BandMid:
		base = 0.55
	default:
		base = 1.0
	}
	g.particles.Add(Particle{
		Velocity:   base + math.Pow(intensity, 0.8)*2.8,
		Brightness: 0.55 + intensity*0.45,
		Color:      led.HSV(intensity*0.85*360, 0.95, 1),
		Band:       band,
	})
}

func (g *Gravimeter) step(dt float64) {
	push := 0.08 + speedFactor(g.speed)*0.35
	scaled := min(dt*60, 2)
	limit := float64(g.numLEDs) + 2

	g.particles.Retain(func(p *Particle) bool {
		p.Velocity += push * scaled
		p.Position += p.Velocity * scaled
		p.Brightness *= 0.988
		return !math.IsNaN(p.Position) && p.Position >= -2 && p.Position < limit && p.Brightness > 0.008
	})
}

func (g *Gravimeter) draw(buf []led.RGB) {
	fade := 0.92
	if g.particles.Len() > 12 {
		fade = 0.88
	}
	led.ScaleAll(buf, fade)

	n := len(buf)
	for _, p := range g.particles.Items() {
		idx := int(math.Floor(p.Position))
		frac := p.Position - float64(idx)
		b := min(max(p.Brightness, 0), 1)

		if idx >= 0 && idx < n {
			buf[idx] = buf[idx].Add(p.Color.Scale(b * (1 - frac*0.5)))
		}
		if next := idx + 1; next >= 0 && next < n && frac > 0.3 {
			buf[next] = buf[next].Add(p.Color.Scale(b * frac * 0.6))
		}
	}
}
