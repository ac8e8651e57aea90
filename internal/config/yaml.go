// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	applog "soundstrip/internal/log"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug logging.
	LogLevel  string          `yaml:"log_level"` // debug, info, warn, error.
	Audio     AudioConfig     `yaml:"audio"`     // Sample source and feature extraction.
	Strip     StripConfig     `yaml:"strip"`     // LED hardware.
	Render    RenderConfig    `yaml:"render"`    // Frame scheduling.
	Effect    EffectConfig    `yaml:"effect"`    // Initial effect state.
	Recording RecordingConfig `yaml:"recording"` // Input recording to WAV.
	Transport TransportConfig `yaml:"transport"` // Diagnostics publishers.
}

// AudioConfig holds settings related to audio input and analysis.
type AudioConfig struct {
	Source          string        `yaml:"source"`            // portaudio, wav or synth.
	InputDevice     int           `yaml:"input_device"`      // PortAudio device index (-1 for default).
	SampleRate      int           `yaml:"sample_rate"`       // Capture rate in Hz.
	FramesPerBuffer int           `yaml:"frames_per_buffer"` // Samples per block handed to the extractor.
	InputChannels   int           `yaml:"input_channels"`    // Channels captured; only the first is analysed.
	LowLatency      bool          `yaml:"low_latency"`       // Request low latency settings from PortAudio.
	FFTSize         int           `yaml:"fft_size"`          // Power of two, at most frames_per_buffer.
	FFTWindow       string        `yaml:"fft_window"`        // Window function name (e.g. "Hamming", "Hann").
	GateFloor       float64       `yaml:"gate_floor"`        // Volume below this reads as silence.
	ReadTimeout     time.Duration `yaml:"read_timeout"`      // Longest wait for one block.
	RetryBackoff    time.Duration `yaml:"retry_backoff"`     // Pause after a failed read.
	PublishEvery    int           `yaml:"publish_every"`     // Publish a snapshot every N blocks.
	WAVPath         string        `yaml:"wav_path"`          // Input file for the wav source.
	WAVLoop         bool          `yaml:"wav_loop"`          // Restart the file at its end.
}

// StripConfig describes the LED strip and how frames reach it.
type StripConfig struct {
	LEDs            int    `yaml:"leds"`             // Number of pixels.
	ColorOrder      string `yaml:"color_order"`      // Wire order for the serial sink (e.g. "GRB").
	Sink            string `yaml:"sink"`             // serial, wled, terminal or none.
	SerialPort      string `yaml:"serial_port"`      // Device path for the serial sink.
	SerialBaud      int    `yaml:"serial_baud"`      // Baud rate for the serial sink.
	WLEDAddress     string `yaml:"wled_address"`     // host:port of a WLED controller.
	WLEDTimeout     int    `yaml:"wled_timeout"`     // Seconds WLED waits before leaving realtime mode.
	TerminalColumns int    `yaml:"terminal_columns"` // Pixels per row in the terminal sink (0 = one row).
}

// RenderConfig holds frame scheduler settings.
type RenderConfig struct {
	FPS          int           `yaml:"fps"`           // Target frame rate, 1..120.
	KeepAlive    time.Duration `yaml:"keep_alive"`    // Re-send an unchanged frame after this long.
	DecayFrames  int           `yaml:"decay_frames"`  // Frames forced out after a change.
	StartupDecay int           `yaml:"startup_decay"` // Frames forced out at start.
	MaxCommands  int           `yaml:"max_commands"`  // Commands applied per frame.
	SlowTransfer time.Duration `yaml:"slow_transfer"` // Transfers slower than this are logged.
}

// EffectConfig is the state the renderer starts in.
type EffectConfig struct {
	Name       string  `yaml:"name"`       // Effect registry name (e.g. "rainbow", "vu").
	Color      string  `yaml:"color"`      // "#rrggbb" or "r,g,b".
	Speed      int     `yaml:"speed"`      // 1..255.
	Brightness float64 `yaml:"brightness"` // 0..1.
	Power      bool    `yaml:"power"`      // Start with the strip on.
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record the input to a WAV file.
	OutputDir string `yaml:"output_dir"` // Directory to save recorded audio files.
	File      string `yaml:"file"`       // Explicit output path; empty picks a timestamped name in output_dir.
	BitDepth  int    `yaml:"bit_depth"`  // 16 or 32.
}

// TransportConfig holds settings for the diagnostics publishers.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send snapshots over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port (e.g. "127.0.0.1:9090").
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between UDP packets.
	WSEnabled        bool          `yaml:"ws_enabled"`         // Serve snapshots over a websocket.
	WSAddr           string        `yaml:"ws_addr"`            // Listen address (e.g. ":8080").
	WSInterval       time.Duration `yaml:"ws_interval"`        // Interval between websocket broadcasts.
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			Source:          DefaultSource,
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   1,
			LowLatency:      false,
			FFTSize:         DefaultFFTSize,
			FFTWindow:       DefaultFFTWindow,
			GateFloor:       0.004,
			ReadTimeout:     DefaultReadTimeout,
			RetryBackoff:    DefaultRetryBackoff,
			PublishEvery:    1,
			WAVLoop:         true,
		},
		Strip: StripConfig{
			LEDs:        DefaultLEDs,
			ColorOrder:  DefaultColorOrder,
			Sink:        DefaultSink,
			SerialBaud:  DefaultSerialBaud,
			WLEDAddress: "127.0.0.1:21324",
			WLEDTimeout: DefaultWLEDWait,
		},
		Render: RenderConfig{
			FPS:          DefaultFPS,
			KeepAlive:    2 * time.Second,
			DecayFrames:  15,
			StartupDecay: 20,
			MaxCommands:  8,
			SlowTransfer: 2 * time.Millisecond,
		},
		Effect: EffectConfig{
			Name:       DefaultEffect,
			Color:      DefaultColor,
			Speed:      DefaultSpeed,
			Brightness: DefaultBrightness,
			Power:      true,
		},
		Recording: RecordingConfig{
			Enabled:   false,
			OutputDir: "./recordings",
			BitDepth:  16,
		},
		Transport: TransportConfig{
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  33 * time.Millisecond, // ~30Hz
			WSEnabled:        false,
			WSAddr:           ":8080",
			WSInterval:       50 * time.Millisecond,
		},
	}
}

// LoadConfig loads configuration from the YAML file at path. An empty path
// tries ./soundstrip.yaml and falls back to the built-in defaults. Environment
// overrides are applied last, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("Config: loaded %s", path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides reads SOUNDSTRIP_* variables. Unparseable values are
// logged and ignored.
func (cfg *Config) applyEnvOverrides() {
	envBool("DEBUG", &cfg.Debug)
	envString("LOG_LEVEL", &cfg.LogLevel)

	envString("SINK", &cfg.Strip.Sink)
	envInt("LEDS", &cfg.Strip.LEDs)
	envString("SERIAL_PORT", &cfg.Strip.SerialPort)
	envInt("FPS", &cfg.Render.FPS)

	envBool("UDP_ENABLED", &cfg.Transport.UDPEnabled)
	envString("UDP_TARGET_ADDRESS", &cfg.Transport.UDPTargetAddress)
	envDuration("UDP_SEND_INTERVAL", &cfg.Transport.UDPSendInterval)
	envString("WS_ADDR", &cfg.Transport.WSAddr)
}

func envString(name string, dst *string) {
	if val, ok := os.LookupEnv(EnvPrefix + name); ok {
		*dst = val
		applog.Debugf("Config: %s%s overrides value: %s", EnvPrefix, name, val)
	}
}

func envBool(name string, dst *bool) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		applog.Warnf("Config: ignoring %s%s=%q: %v", EnvPrefix, name, val, err)
		return
	}
	*dst = b
	applog.Debugf("Config: %s%s overrides value: %v", EnvPrefix, name, b)
}

func envInt(name string, dst *int) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		applog.Warnf("Config: ignoring %s%s=%q: %v", EnvPrefix, name, val, err)
		return
	}
	*dst = n
	applog.Debugf("Config: %s%s overrides value: %d", EnvPrefix, name, n)
}

func envDuration(name string, dst *time.Duration) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		applog.Warnf("Config: ignoring %s%s=%q: %v", EnvPrefix, name, val, err)
		return
	}
	*dst = d
	applog.Debugf("Config: %s%s overrides value: %v", EnvPrefix, name, d)
}
