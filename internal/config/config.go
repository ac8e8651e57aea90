// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"soundstrip/internal/analysis"
	"soundstrip/internal/effect"
	"soundstrip/internal/led"
	applog "soundstrip/internal/log"
	"soundstrip/pkg/bitint"
)

// Boundaries and defaults for the engine configuration.
const (
	DefaultConfigFile = "soundstrip.yaml"
	EnvPrefix         = "SOUNDSTRIP_"

	// Audio
	DefaultSource          = SourcePortAudio
	DefaultDeviceID        = -1 // system default input
	DefaultSampleRate      = 16000
	DefaultFramesPerBuffer = 256
	DefaultFFTSize         = 256
	DefaultFFTWindow       = "Hamming"
	DefaultReadTimeout     = 100 * time.Millisecond
	DefaultRetryBackoff    = 100 * time.Millisecond

	MinDeviceID     = -1
	MinSampleRate   = 8000
	MaxSampleRate   = 192000
	MinFFTSize      = 64
	MaxBufferFrames = 8192

	// Strip
	DefaultLEDs       = 60
	DefaultColorOrder = "GRB"
	DefaultSink       = SinkTerminal
	DefaultSerialBaud = 115200
	DefaultWLEDWait   = 2 // seconds WLED stays in realtime mode without frames
	MaxLEDs           = 4096

	// Render
	DefaultFPS = 60
	MinFPS     = 1
	MaxFPS     = 120

	// Effect
	DefaultEffect     = "rainbow"
	DefaultColor      = "#ff5000"
	DefaultSpeed      = 128
	DefaultBrightness = 0.5
)

// Audio sources.
const (
	SourcePortAudio = "portaudio"
	SourceWAV       = "wav"
	SourceSynth     = "synth"
)

// Strip sinks.
const (
	SinkSerial   = "serial"
	SinkWLED     = "wled"
	SinkTerminal = "terminal"
	SinkNone     = "none"
)

// Validate range-checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.LogLevel != "" {
		if _, ok := applog.ParseLevel(c.LogLevel); !ok {
			add("log_level %q is not one of debug, info, warn, error", c.LogLevel)
		}
	}

	a := c.Audio
	switch a.Source {
	case SourcePortAudio, SourceSynth:
	case SourceWAV:
		if a.WAVPath == "" {
			add("audio.wav_path must be set when audio.source is %q", SourceWAV)
		}
	default:
		add("audio.source %q must be one of portaudio, wav, synth", a.Source)
	}
	if a.InputDevice < MinDeviceID {
		add("audio.input_device %d is below %d", a.InputDevice, MinDeviceID)
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		add("audio.sample_rate %d outside [%d, %d]", a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if a.FramesPerBuffer <= 0 || a.FramesPerBuffer > MaxBufferFrames {
		add("audio.frames_per_buffer %d outside [1, %d]", a.FramesPerBuffer, MaxBufferFrames)
	}
	if a.InputChannels < 1 {
		add("audio.input_channels must be at least 1")
	}
	if a.FFTSize < MinFFTSize || !bitint.IsPowerOfTwo(a.FFTSize) {
		add("audio.fft_size %d must be a power of two >= %d", a.FFTSize, MinFFTSize)
	} else if a.FramesPerBuffer < a.FFTSize {
		add("audio.frames_per_buffer %d is smaller than audio.fft_size %d", a.FramesPerBuffer, a.FFTSize)
	}
	if _, err := analysis.ParseWindowFunc(a.FFTWindow); err != nil {
		add("audio.fft_window: %v", err)
	}
	if a.GateFloor < 0 || a.GateFloor >= 1 {
		add("audio.gate_floor %f outside [0, 1)", a.GateFloor)
	}
	if a.ReadTimeout <= 0 || a.RetryBackoff <= 0 {
		add("audio.read_timeout and audio.retry_backoff must be positive")
	}
	if a.PublishEvery < 1 {
		add("audio.publish_every must be at least 1")
	}

	s := c.Strip
	if s.LEDs < 1 || s.LEDs > MaxLEDs {
		add("strip.leds %d outside [1, %d]", s.LEDs, MaxLEDs)
	}
	if _, err := led.ParseColorOrder(s.ColorOrder); err != nil {
		add("strip.color_order: %v", err)
	}
	switch s.Sink {
	case SinkSerial:
		if s.SerialPort == "" {
			add("strip.serial_port must be set for the serial sink")
		}
		if s.SerialBaud <= 0 {
			add("strip.serial_baud must be positive")
		}
	case SinkWLED:
		if _, _, err := net.SplitHostPort(s.WLEDAddress); err != nil {
			add("strip.wled_address %q: %v", s.WLEDAddress, err)
		}
		if s.WLEDTimeout < 1 || s.WLEDTimeout > 255 {
			add("strip.wled_timeout %d outside [1, 255]", s.WLEDTimeout)
		}
	case SinkTerminal, SinkNone:
	default:
		add("strip.sink %q must be one of serial, wled, terminal, none", s.Sink)
	}

	r := c.Render
	if r.FPS < MinFPS || r.FPS > MaxFPS {
		add("render.fps %d outside [%d, %d]", r.FPS, MinFPS, MaxFPS)
	}
	if r.KeepAlive <= 0 {
		add("render.keep_alive must be positive")
	}
	if r.DecayFrames < 0 || r.StartupDecay < 0 {
		add("render decay frame counts must not be negative")
	}
	if r.MaxCommands < 1 {
		add("render.max_commands must be at least 1")
	}

	e := c.Effect
	if _, err := effect.ParseID(e.Name); err != nil {
		add("effect.name: %v", err)
	}
	if _, err := led.ParseRGB(e.Color); err != nil {
		add("effect.color: %v", err)
	}
	if e.Speed < 1 || e.Speed > 255 {
		add("effect.speed %d outside [1, 255]", e.Speed)
	}
	if e.Brightness < 0 || e.Brightness > 1 {
		add("effect.brightness %f outside [0, 1]", e.Brightness)
	}

	if c.Recording.Enabled {
		if c.Recording.BitDepth != 16 && c.Recording.BitDepth != 32 {
			add("recording.bit_depth %d must be 16 or 32", c.Recording.BitDepth)
		}
		if c.Recording.OutputDir == "" && c.Recording.File == "" {
			add("recording.output_dir or recording.file must be set when recording is enabled")
		}
	}

	t := c.Transport
	if t.UDPEnabled {
		if _, _, err := net.SplitHostPort(t.UDPTargetAddress); err != nil {
			add("transport.udp_target_address %q: %v", t.UDPTargetAddress, err)
		}
		if t.UDPSendInterval <= 0 {
			add("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if t.WSEnabled {
		if _, _, err := net.SplitHostPort(t.WSAddr); err != nil {
			add("transport.ws_addr %q: %v", t.WSAddr, err)
		}
		if t.WSInterval <= 0 {
			add("transport.ws_interval must be positive when websocket is enabled")
		}
	}

	return errors.Join(errs...)
}
