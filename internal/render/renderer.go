// SPDX-License-Identifier: MIT
/*
Package render drives the LED strip. A single Renderer owns the active
effect, drains the command inbox, decides when a frame is due and pushes
encoded frames to a led.Sink.

Thread Safety:
  - Step and Run must be called from one goroutine only
  - Status and Stats may be read from any goroutine
  - The render loop locks its OS thread while running
*/
package render

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"soundstrip/internal/analysis"
	"soundstrip/internal/command"
	"soundstrip/internal/effect"
	"soundstrip/internal/led"
	applog "soundstrip/internal/log"
)

const (
	MinFPS = 1
	MaxFPS = 120

	DefaultFPS          = 60
	DefaultKeepAlive    = 2 * time.Second
	DefaultDecayFrames  = 15
	DefaultStartupDecay = 20
	DefaultMaxCommands  = 8
	DefaultSlowTransfer = 2 * time.Millisecond
)

// Config describes the strip and the initial state of the renderer.
type Config struct {
	NumLEDs int
	FPS     int
	Order   led.ColorOrder

	// KeepAlive re-sends an unchanged frame after this long so receivers
	// with a timeout (WLED) stay in realtime mode.
	KeepAlive time.Duration
	// DecayFrames is the number of frames sent unconditionally after a state
	// change; StartupDecay is the same counter at start.
	DecayFrames  int
	StartupDecay int
	MaxCommands  int
	SlowTransfer time.Duration

	Effect     effect.ID
	Color      led.RGB
	Speed      uint8
	Brightness float64 // 0..1
	Power      bool
}

// DefaultConfig returns a GRB strip at 60 fps showing a white static effect.
func DefaultConfig(numLEDs int) Config {
	return Config{
		NumLEDs:      numLEDs,
		FPS:          DefaultFPS,
		Order:        led.OrderGRB,
		KeepAlive:    DefaultKeepAlive,
		DecayFrames:  DefaultDecayFrames,
		StartupDecay: DefaultStartupDecay,
		MaxCommands:  DefaultMaxCommands,
		SlowTransfer: DefaultSlowTransfer,
		Effect:       effect.IDStatic,
		Color:        led.White,
		Speed:        effect.DefaultSpeed,
		Brightness:   1,
		Power:        true,
	}
}

// Status is the externally visible renderer state.
type Status struct {
	Effect     effect.ID `json:"effect"`
	Color      led.RGB   `json:"color"`
	Speed      uint8     `json:"speed"`
	Brightness float64   `json:"brightness"`
	Power      bool      `json:"power"`
	FPS        int       `json:"fps"`
}

// Stats counts frames since start.
type Stats struct {
	Frames  uint64 `json:"frames"`  // frames rendered
	Sent    uint64 `json:"sent"`    // frames handed to the sink
	Skipped uint64 `json:"skipped"` // identical frames not sent
	Errors  uint64 `json:"errors"`  // failed transfers
}

type Renderer struct {
	cfg   Config
	inbox *command.Inbox
	audio *analysis.Channel
	sink  led.Sink

	id       effect.ID
	current  effect.Effect
	reactive effect.AudioReactive // nil unless current is audio-reactive

	// Last user-requested color and speed, carried across effect switches.
	color      led.RGB
	speed      uint8
	brightness uint8
	power      bool
	fps        int
	interval   time.Duration

	// canvas is the effect's drawing surface and persists between frames;
	// front is the last frame handed to the sink.
	canvas []led.RGB
	black  []led.RGB
	front  []led.RGB
	wire   []byte

	started   bool
	redraw    bool
	lastFrame time.Duration
	lastSend  time.Duration
	wake      time.Duration
	wakeOK    bool
	decay     int

	status                          atomic.Pointer[Status]
	frames, sent, skipped, failures atomic.Uint64
}

// New validates cfg and builds the initial effect. audio may be nil, in
// which case audio-reactive effects see silence.
func New(cfg Config, inbox *command.Inbox, audio *analysis.Channel, sink led.Sink) (*Renderer, error) {
	if cfg.NumLEDs <= 0 {
		return nil, fmt.Errorf("renderer: LED count must be positive, got %d", cfg.NumLEDs)
	}
	if sink == nil {
		return nil, fmt.Errorf("renderer: no sink")
	}
	if inbox == nil {
		inbox = command.NewInbox(cfg.MaxCommands)
	}
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = DefaultKeepAlive
	}
	if cfg.MaxCommands <= 0 {
		cfg.MaxCommands = DefaultMaxCommands
	}
	if cfg.SlowTransfer <= 0 {
		cfg.SlowTransfer = DefaultSlowTransfer
	}
	cfg.DecayFrames = max(cfg.DecayFrames, 0)
	cfg.StartupDecay = max(cfg.StartupDecay, 0)

	r := &Renderer{
		cfg:        cfg,
		inbox:      inbox,
		audio:      audio,
		sink:       sink,
		color:      cfg.Color,
		speed:      cfg.Speed,
		brightness: brightnessByte(cfg.Brightness),
		power:      cfg.Power,
		canvas:     make([]led.RGB, cfg.NumLEDs),
		black:      make([]led.RGB, cfg.NumLEDs),
		front:      make([]led.RGB, cfg.NumLEDs),
		wire:       make([]byte, cfg.NumLEDs*3),
		decay:      cfg.StartupDecay,
	}
	r.setFPS(cfg.FPS)
	if err := r.switchEffect(cfg.Effect); err != nil {
		return nil, err
	}
	r.publishStatus()

	applog.Infof("Renderer: %d LEDs, %s order, %d fps, effect %s", cfg.NumLEDs, cfg.Order, r.fps, r.id)
	return r, nil
}

// Inbox returns the queue commands are read from.
func (r *Renderer) Inbox() *command.Inbox { return r.inbox }

// Run steps the renderer until ctx is done.
func (r *Renderer) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	start := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()

	applog.Debugf("Renderer: loop started")
	for {
		select {
		case <-ctx.Done():
			applog.Debugf("Renderer: loop stopped after %d frames", r.frames.Load())
			return nil
		case <-timer.C:
		}
		r.Step(time.Since(start))
		timer.Reset(r.Delay(time.Since(start)))
	}
}

// Step runs one scheduler iteration at now, a monotonic offset from start.
func (r *Renderer) Step(now time.Duration) {
	changed := r.drain()

	if r.started && !changed && now-r.lastFrame < r.interval {
		return
	}
	first := !r.started
	r.started = true
	r.lastFrame = now

	force := changed || first || r.decay > 0
	keepAlive := now-r.lastSend >= r.cfg.KeepAlive
	wake := r.wakeOK && now >= r.wake
	if !force && !keepAlive && !wake && r.reactive == nil {
		return
	}

	frame := r.black
	if r.power {
		if r.redraw || first || wake || r.reactive != nil {
			r.update(now)
		}
		frame = r.canvas
	}
	r.frames.Add(1)

	if !force && !keepAlive && slices.Equal(frame, r.front) {
		r.skipped.Add(1)
		return
	}
	r.send(now, frame)
}

// Delay is how long the caller may sleep before the next frame is due.
func (r *Renderer) Delay(now time.Duration) time.Duration {
	return max(0, r.lastFrame+r.interval-now)
}

func (r *Renderer) update(now time.Duration) {
	var (
		next time.Duration
		ok   bool
	)
	if r.reactive != nil {
		var snap analysis.Snapshot
		if r.audio != nil {
			snap = r.audio.Load()
		}
		next, ok = r.reactive.UpdateAudio(now, snap, r.canvas)
	} else {
		next, ok = r.current.Update(now, r.canvas)
	}
	r.wake, r.wakeOK = next, ok
	r.redraw = false
}

func (r *Renderer) send(now time.Duration, frame []led.RGB) {
	copy(r.front, frame)
	wire := led.Encode(r.wire, r.front, r.brightness, r.cfg.Order)

	t0 := time.Now()
	err := r.sink.Write(wire)
	if elapsed := time.Since(t0); elapsed > r.cfg.SlowTransfer {
		applog.Warnf("Renderer: slow transfer, %v for %d LEDs", elapsed, r.cfg.NumLEDs)
	}
	if err != nil {
		r.failures.Add(1)
		applog.Errorf("Renderer: transfer failed: %v", err)
		r.decay = r.cfg.DecayFrames
		return
	}

	r.sent.Add(1)
	r.lastSend = now
	if r.decay > 0 {
		r.decay--
	}
}

// drain applies up to MaxCommands queued commands and reports whether any
// of them changed the output.
func (r *Renderer) drain() bool {
	changed := false
	for range r.cfg.MaxCommands {
		c, ok := r.inbox.TryPop()
		if !ok {
			break
		}
		if r.apply(c) {
			changed = true
		}
	}
	if changed {
		r.decay = r.cfg.DecayFrames
		r.publishStatus()
	}
	return changed
}

func (r *Renderer) apply(c command.Command) bool {
	applog.Debugf("Renderer: %s", c)

	switch c.Kind {
	case command.KindSetEffect:
		if err := r.switchEffect(c.Effect); err != nil {
			applog.Warnf("Renderer: %v", err)
			return false
		}
		return true

	case command.KindSetBrightness:
		b := brightnessByte(c.Level)
		if b == r.brightness {
			return false
		}
		r.brightness = b
		return true

	case command.KindSetColor:
		r.color = c.Color
		if r.current.SetColor(c.Color) {
			r.redraw = true
			return true
		}
		return false

	case command.KindSetSpeed:
		r.speed = c.Speed
		if r.current.SetSpeed(c.Speed) {
			r.redraw = true
			return true
		}
		return false

	case command.KindSetPower:
		if c.On == r.power {
			return false
		}
		r.power = c.On
		if c.On {
			r.redraw = true
		}
		return true

	case command.KindSetFPS:
		old := r.fps
		r.setFPS(c.FPS)
		return r.fps != old
	}

	applog.Warnf("Renderer: ignoring %s", c)
	return false
}

func (r *Renderer) switchEffect(id effect.ID) error {
	e, err := effect.New(id, effect.Params{
		NumLEDs: r.cfg.NumLEDs,
		Color:   r.color,
		Speed:   r.speed,
	})
	if err != nil {
		return err
	}
	r.id = id
	r.current = e
	r.reactive, _ = e.(effect.AudioReactive)
	led.Fill(r.canvas, led.Black)
	r.wakeOK = false
	r.redraw = true
	return nil
}

func (r *Renderer) setFPS(fps int) {
	r.fps = min(max(fps, MinFPS), MaxFPS)
	r.interval = time.Second / time.Duration(r.fps)
}

func (r *Renderer) publishStatus() {
	r.status.Store(&Status{
		Effect:     r.id,
		Color:      r.color,
		Speed:      r.speed,
		Brightness: float64(r.brightness) / 255,
		Power:      r.power,
		FPS:        r.fps,
	})
}

// Status returns the state after the most recently applied commands.
func (r *Renderer) Status() Status {
	return *r.status.Load()
}

func (r *Renderer) Stats() Stats {
	return Stats{
		Frames:  r.frames.Load(),
		Sent:    r.sent.Load(),
		Skipped: r.skipped.Load(),
		Errors:  r.failures.Load(),
	}
}

func brightnessByte(level float64) uint8 {
	return uint8(math.Round(min(max(level, 0), 1) * 255))
}
