// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "soundstrip.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Strip.LEDs != DefaultLEDs || cfg.Render.FPS != DefaultFPS {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: debug
audio:
  source: synth
  sample_rate: 22050
  frames_per_buffer: 512
  fft_size: 512
strip:
  leds: 144
  color_order: rgb
  sink: none
render:
  fps: 90
  keep_alive: 1s
effect:
  name: vu
  color: "0,255,0"
  speed: 200
transport:
  udp_send_interval: 10ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.LogLevel != "debug" || cfg.Audio.Source != SourceSynth || cfg.Audio.SampleRate != 22050 {
		t.Errorf("audio/log not applied: %+v", cfg)
	}
	if cfg.Strip.LEDs != 144 || cfg.Strip.Sink != SinkNone {
		t.Errorf("strip not applied: %+v", cfg.Strip)
	}
	if cfg.Render.FPS != 90 || cfg.Render.KeepAlive != time.Second {
		t.Errorf("render not applied: %+v", cfg.Render)
	}
	if cfg.Effect.Name != "vu" || cfg.Effect.Speed != 200 {
		t.Errorf("effect not applied: %+v", cfg.Effect)
	}
	if cfg.Transport.UDPSendInterval != 10*time.Millisecond {
		t.Errorf("udp_send_interval = %v", cfg.Transport.UDPSendInterval)
	}
	// Untouched keys keep their defaults.
	if cfg.Render.DecayFrames != 15 || cfg.Effect.Brightness != DefaultBrightness {
		t.Errorf("defaults lost: %+v %+v", cfg.Render, cfg.Effect)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
strip:
  leds: 0
render:
  fps: 500
effect:
  name: disco
`)
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"invalid configuration", "strip.leds", "render.fps", "effect.name"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
		substr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad source", func(c *Config) { c.Audio.Source = "line-in" }, "audio.source"},
		{"wav without path", func(c *Config) { c.Audio.Source = SourceWAV }, "audio.wav_path"},
		{"fft not power of two", func(c *Config) { c.Audio.FFTSize = 300 }, "audio.fft_size"},
		{"block smaller than fft", func(c *Config) { c.Audio.FramesPerBuffer = 128 }, "frames_per_buffer"},
		{"bad window", func(c *Config) { c.Audio.FFTWindow = "square" }, "audio.fft_window"},
		{"bad order", func(c *Config) { c.Strip.ColorOrder = "RGBW" }, "strip.color_order"},
		{"serial without port", func(c *Config) { c.Strip.Sink = SinkSerial }, "strip.serial_port"},
		{"wled bad address", func(c *Config) {
			c.Strip.Sink = SinkWLED
			c.Strip.WLEDAddress = "wled.local"
		}, "strip.wled_address"},
		{"bad color", func(c *Config) { c.Effect.Color = "orange" }, "effect.color"},
		{"speed zero", func(c *Config) { c.Effect.Speed = 0 }, "effect.speed"},
		{"brightness high", func(c *Config) { c.Effect.Brightness = 1.5 }, "effect.brightness"},
		{"recording 24 bit", func(c *Config) {
			c.Recording.Enabled = true
			c.Recording.BitDepth = 24
		}, "recording.bit_depth"},
		{"udp no port", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPTargetAddress = "localhost"
		}, "transport.udp_target_address"},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.substr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.substr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SOUNDSTRIP_DEBUG", "true")
	t.Setenv("SOUNDSTRIP_LEDS", "30")
	t.Setenv("SOUNDSTRIP_FPS", "24")
	t.Setenv("SOUNDSTRIP_SINK", "none")
	t.Setenv("SOUNDSTRIP_UDP_ENABLED", "1")
	t.Setenv("SOUNDSTRIP_UDP_TARGET_ADDRESS", "10.0.0.2:9999")
	t.Setenv("SOUNDSTRIP_UDP_SEND_INTERVAL", "20ms")
	t.Setenv("SOUNDSTRIP_WS_ADDR", "127.0.0.1:9000")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug || cfg.Strip.LEDs != 30 || cfg.Render.FPS != 24 || cfg.Strip.Sink != SinkNone {
		t.Errorf("env overrides not applied: debug=%v leds=%d fps=%d sink=%s",
			cfg.Debug, cfg.Strip.LEDs, cfg.Render.FPS, cfg.Strip.Sink)
	}
	tr := cfg.Transport
	if !tr.UDPEnabled || tr.UDPTargetAddress != "10.0.0.2:9999" || tr.UDPSendInterval != 20*time.Millisecond {
		t.Errorf("transport overrides not applied: %+v", tr)
	}
	if tr.WSAddr != "127.0.0.1:9000" {
		t.Errorf("ws_addr = %q", tr.WSAddr)
	}
}

func TestEnvOverridesIgnoreGarbage(t *testing.T) {
	t.Setenv("SOUNDSTRIP_LEDS", "many")
	t.Setenv("SOUNDSTRIP_UDP_ENABLED", "maybe")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Strip.LEDs != DefaultLEDs || cfg.Transport.UDPEnabled {
		t.Errorf("garbage env values applied: leds=%d udp=%v", cfg.Strip.LEDs, cfg.Transport.UDPEnabled)
	}
}
