// SPDX-License-Identifier: MIT
/*
Package app wires a loaded configuration into running goroutines:

  - the audio goroutine reads a Source and publishes analysis snapshots
  - the render goroutine drives the strip from the command inbox
  - optional publishers stream diagnostics over websocket, UDP or the log

A component that fails to open logs the error and ends only its own
goroutine; the rest keep running until the context is cancelled.
*/
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"soundstrip/internal/analysis"
	"soundstrip/internal/audio"
	"soundstrip/internal/command"
	"soundstrip/internal/config"
	"soundstrip/internal/effect"
	"soundstrip/internal/led"
	applog "soundstrip/internal/log"
	"soundstrip/internal/render"
	"soundstrip/internal/transport"
)

const (
	// previewDepth is the number of frames buffered for the preview TUI.
	previewDepth = 4
	// logInterval paces the diagnostics written to the debug log.
	logInterval = time.Second
)

// Options selects how the app presents itself.
type Options struct {
	// Preview routes frames to a channel read by the preview TUI. A terminal
	// sink is replaced by the preview; hardware sinks keep receiving frames.
	Preview bool
	// Output is where the terminal sink draws. Defaults to os.Stdout.
	Output io.Writer
}

// App owns the shared state between the goroutines it starts.
type App struct {
	cfg     config.Config
	opts    Options
	rcfg    render.Config
	initial render.Status

	audio   *analysis.Channel
	inbox   *command.Inbox
	preview *led.ChannelSink

	engine   atomic.Pointer[audio.Engine]
	renderer atomic.Pointer[render.Renderer]
	tap      atomic.Pointer[led.Tap]

	openSource func(config.AudioConfig) (audio.Source, error)
	openSink   func(config.StripConfig) (led.Sink, error)

	wg         sync.WaitGroup
	publishers []*transport.Publisher
}

// New validates cfg and prepares the shared channel and inbox. Nothing is
// opened until Start.
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: no configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	rcfg, err := RenderConfig(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:   *cfg,
		opts:  opts,
		rcfg:  rcfg,
		audio: &analysis.Channel{},
		inbox: command.NewInbox(command.DefaultCapacity),
		initial: render.Status{
			Effect:     rcfg.Effect,
			Color:      rcfg.Color,
			Speed:      rcfg.Speed,
			Brightness: rcfg.Brightness,
			Power:      rcfg.Power,
			FPS:        rcfg.FPS,
		},
		openSource: OpenSource,
	}
	a.openSink = a.defaultSink
	if opts.Preview {
		a.preview = led.NewChannelSink(previewDepth, rcfg.Order)
	}
	return a, nil
}

// RenderConfig translates the effect, strip and render sections.
func RenderConfig(cfg *config.Config) (render.Config, error) {
	id, err := effect.ParseID(cfg.Effect.Name)
	if err != nil {
		return render.Config{}, err
	}
	color, err := led.ParseRGB(cfg.Effect.Color)
	if err != nil {
		return render.Config{}, err
	}
	order, err := WireOrder(cfg.Strip)
	if err != nil {
		return render.Config{}, err
	}

	rc := render.DefaultConfig(cfg.Strip.LEDs)
	rc.FPS = cfg.Render.FPS
	rc.Order = order
	rc.KeepAlive = cfg.Render.KeepAlive
	rc.DecayFrames = cfg.Render.DecayFrames
	rc.StartupDecay = cfg.Render.StartupDecay
	rc.MaxCommands = cfg.Render.MaxCommands
	rc.SlowTransfer = cfg.Render.SlowTransfer
	rc.Effect = id
	rc.Color = color
	rc.Speed = uint8(cfg.Effect.Speed)
	rc.Brightness = cfg.Effect.Brightness
	rc.Power = cfg.Effect.Power
	return rc, nil
}

// WireOrder is the byte order the sink expects. Only the serial sink
// drives raw strips; WLED and the terminal take RGB.
func WireOrder(s config.StripConfig) (led.ColorOrder, error) {
	if s.Sink != config.SinkSerial {
		return led.OrderRGB, nil
	}
	return led.ParseColorOrder(s.ColorOrder)
}

// OpenSource opens the configured audio backend.
func OpenSource(ac config.AudioConfig) (audio.Source, error) {
	switch ac.Source {
	case config.SourcePortAudio:
		return audio.OpenPortAudio(audio.PortAudioConfig{
			DeviceID:        ac.InputDevice,
			SampleRate:      ac.SampleRate,
			FramesPerBuffer: ac.FramesPerBuffer,
			Channels:        ac.InputChannels,
			LowLatency:      ac.LowLatency,
		})
	case config.SourceWAV:
		return audio.OpenWAV(ac.WAVPath, audio.WAVOptions{
			Loop:      ac.WAVLoop,
			Realtime:  true,
			BlockSize: ac.FramesPerBuffer,
		})
	case config.SourceSynth:
		opts := audio.DefaultSynthOptions()
		opts.SampleRate = ac.SampleRate
		opts.BlockSize = ac.FramesPerBuffer
		return audio.NewSynth(opts), nil
	}
	return nil, fmt.Errorf("unknown audio source %q", ac.Source)
}

func (a *App) defaultSink(s config.StripConfig) (led.Sink, error) {
	switch s.Sink {
	case config.SinkSerial:
		return led.OpenSerial(s.SerialPort, s.SerialBaud, s.LEDs)
	case config.SinkWLED:
		return led.DialWLED(s.WLEDAddress, byte(s.WLEDTimeout))
	case config.SinkTerminal:
		return led.NewTerminalSink(a.opts.Output, s.TerminalColumns), nil
	case config.SinkNone:
		return &led.Discard{}, nil
	}
	return nil, fmt.Errorf("unknown sink %q", s.Sink)
}

// Audio is the snapshot channel shared by the engine and its readers.
func (a *App) Audio() *analysis.Channel { return a.audio }

// Inbox is the renderer's command queue. Only one goroutine may push.
func (a *App) Inbox() *command.Inbox { return a.inbox }

// PreviewFrames is the frame stream for the preview TUI, or nil when the
// app was built without Options.Preview. It is closed when rendering stops.
func (a *App) PreviewFrames() <-chan []led.RGB {
	if a.preview == nil {
		return nil
	}
	return a.preview.Frames()
}

// Status is the renderer state, or the configured initial state before the
// renderer is up.
func (a *App) Status() render.Status {
	if r := a.renderer.Load(); r != nil {
		return r.Status()
	}
	return a.initial
}

// Stats is the renderer frame counters; zero before the renderer is up.
func (a *App) Stats() render.Stats {
	if r := a.renderer.Load(); r != nil {
		return r.Stats()
	}
	return render.Stats{}
}

// Start launches the audio and render goroutines and the diagnostics
// publishers. They stop when ctx is done; call Wait to join them.
func (a *App) Start(ctx context.Context) {
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.runAudio(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.runRenderer(ctx)
	}()
	a.startPublishers()
}

// Wait blocks until the goroutines started by Start have returned, then
// closes the publishers.
func (a *App) Wait() error {
	a.wg.Wait()
	var errs []error
	for _, p := range a.publishers {
		errs = append(errs, p.Close())
	}
	a.publishers = nil
	return errors.Join(errs...)
}

// Run is Start followed by Wait.
func (a *App) Run(ctx context.Context) error {
	a.Start(ctx)
	return a.Wait()
}

func (a *App) runAudio(ctx context.Context) {
	ac := a.cfg.Audio
	src, err := a.openSource(ac)
	if err != nil {
		applog.Errorf("AudioEngine: failed to open %s source: %v", ac.Source, err)
		return
	}

	engine, err := a.buildEngine(src)
	if err != nil {
		applog.Errorf("AudioEngine: %v", err)
		if cerr := src.Close(); cerr != nil {
			applog.Warnf("AudioEngine: close source: %v", cerr)
		}
		return
	}
	a.engine.Store(engine)

	if err := engine.Run(ctx); err != nil {
		applog.Errorf("AudioEngine: %v", err)
	}
	if err := engine.Close(); err != nil {
		applog.Warnf("AudioEngine: close: %v", err)
	}
	applog.Infof("AudioEngine: %d blocks, %d failed reads", engine.Blocks(), engine.Failures())
}

func (a *App) buildEngine(src audio.Source) (*audio.Engine, error) {
	ac := a.cfg.Audio
	window, err := analysis.ParseWindowFunc(ac.FFTWindow)
	if err != nil {
		return nil, err
	}
	extractor, err := analysis.NewExtractor(analysis.Config{
		SampleRate: float64(src.SampleRate()),
		FFTSize:    ac.FFTSize,
		Window:     window,
		GateFloor:  ac.GateFloor,
	})
	if err != nil {
		return nil, err
	}

	engine, err := audio.NewEngine(audio.EngineConfig{
		BlockSize:    ac.FramesPerBuffer,
		ReadTimeout:  ac.ReadTimeout,
		RetryBackoff: ac.RetryBackoff,
		PublishEvery: ac.PublishEvery,
	}, src, extractor, a.audio)
	if err != nil {
		return nil, err
	}

	if a.cfg.Recording.Enabled {
		rec, err := a.startRecorder(src.SampleRate())
		if err != nil {
			// Recording is optional; analysis goes on without it.
			applog.Errorf("Recorder: %v", err)
		} else {
			engine.AddProcessor(rec)
		}
	}
	return engine, nil
}

func (a *App) startRecorder(sampleRate int) (*audio.Recorder, error) {
	rc := a.cfg.Recording
	rec, err := audio.NewRecorder(sampleRate, rc.BitDepth, a.cfg.Audio.FramesPerBuffer)
	if err != nil {
		return nil, err
	}

	path := rc.File
	if path == "" {
		if err := os.MkdirAll(rc.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", rc.OutputDir, err)
		}
		path = audio.RecordingPath(rc.OutputDir, time.Now())
	}
	if err := rec.Start(path); err != nil {
		return nil, err
	}
	return rec, nil
}

func (a *App) runRenderer(ctx context.Context) {
	sink, err := a.previewSink()
	if err != nil {
		applog.Errorf("Renderer: failed to open %s sink: %v", a.cfg.Strip.Sink, err)
		if a.preview != nil {
			a.preview.Close()
		}
		return
	}

	tap := led.NewTap(sink, a.rcfg.Order)
	r, err := render.New(a.rcfg, a.inbox, a.audio, tap)
	if err != nil {
		applog.Errorf("Renderer: %v", err)
		tap.Close()
		return
	}
	a.tap.Store(tap)
	a.renderer.Store(r)

	if err := r.Run(ctx); err != nil {
		applog.Errorf("Renderer: %v", err)
	}
	if err := tap.Close(); err != nil {
		applog.Warnf("Renderer: close sink: %v", err)
	}
	s := r.Stats()
	applog.Infof("Renderer: %d frames, %d sent, %d skipped, %d errors", s.Frames, s.Sent, s.Skipped, s.Errors)
}

// previewSink opens the configured sink and attaches the preview channel
// when there is one.
func (a *App) previewSink() (led.Sink, error) {
	if a.preview != nil && a.cfg.Strip.Sink == config.SinkTerminal {
		return a.preview, nil
	}
	sink, err := a.openSink(a.cfg.Strip)
	if err != nil {
		return nil, err
	}
	if a.preview != nil {
		return led.Tee{sink, a.preview}, nil
	}
	return sink, nil
}
