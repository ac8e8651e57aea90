// SPDX-License-Identifier: MIT
package cmd

import (
	"strings"
	"testing"

	"soundstrip/internal/config"
)

func TestParseArgsCommands(t *testing.T) {
	tests := []struct {
		args        []string
		command     string
		interactive bool
		hasConfig   bool
	}{
		{nil, CommandRun, false, true},
		{[]string{"preview"}, CommandPreview, false, true},
		{[]string{"devices"}, CommandDevices, false, false},
		{[]string{"devices", "-i"}, CommandDevices, true, false},
		{[]string{"effects"}, CommandEffects, false, false},
		{[]string{"--help"}, "", false, false},
	}
	for _, tt := range tests {
		t.Run(strings.Join(append([]string{"soundstrip"}, tt.args...), " "), func(t *testing.T) {
			opts, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if opts.Command != tt.command || opts.Interactive != tt.interactive {
				t.Errorf("got command %q interactive %v", opts.Command, opts.Interactive)
			}
			if (opts.Config != nil) != tt.hasConfig {
				t.Errorf("config loaded = %v, want %v", opts.Config != nil, tt.hasConfig)
			}
		})
	}
}

func TestParseArgsOverrides(t *testing.T) {
	opts, err := ParseArgs([]string{
		"--source", "synth", "--sink", "none", "--leds", "144", "--fps", "30",
		"--effect", "gravimeter", "--device", "3", "--verbose",
	})
	if err != nil {
		t.Fatal(err)
	}
	cfg := opts.Config
	if cfg.Audio.Source != config.SourceSynth || cfg.Strip.Sink != config.SinkNone {
		t.Errorf("source/sink = %s/%s", cfg.Audio.Source, cfg.Strip.Sink)
	}
	if cfg.Strip.LEDs != 144 || cfg.Render.FPS != 30 || cfg.Effect.Name != "gravimeter" {
		t.Errorf("strip/render/effect not overridden: %+v %+v %+v", cfg.Strip, cfg.Render, cfg.Effect)
	}
	if cfg.Audio.InputDevice != 3 || cfg.LogLevel != "debug" {
		t.Errorf("device = %d log level = %s", cfg.Audio.InputDevice, cfg.LogLevel)
	}
}

func TestParseArgsUnsetFlagsKeepConfig(t *testing.T) {
	opts, err := ParseArgs([]string{"--sink", "none"})
	if err != nil {
		t.Fatal(err)
	}
	def := config.Default()
	if opts.Config.Strip.LEDs != def.Strip.LEDs || opts.Config.Effect.Name != def.Effect.Name {
		t.Errorf("defaults replaced by flag defaults: %+v", opts.Config)
	}
}

func TestParseArgsImpliedSettings(t *testing.T) {
	opts, err := ParseArgs([]string{"--wav", "song.wav", "--port", "/dev/ttyUSB0", "--output", "take.wav"})
	if err != nil {
		t.Fatal(err)
	}
	cfg := opts.Config
	if cfg.Audio.Source != config.SourceWAV || cfg.Audio.WAVPath != "song.wav" {
		t.Errorf("--wav did not select the wav source: %+v", cfg.Audio)
	}
	if cfg.Strip.Sink != config.SinkSerial || cfg.Strip.SerialPort != "/dev/ttyUSB0" {
		t.Errorf("--port did not select the serial sink: %+v", cfg.Strip)
	}
	if !cfg.Recording.Enabled || cfg.Recording.File != "take.wav" {
		t.Errorf("--output did not enable recording: %+v", cfg.Recording)
	}
}

func TestParseArgsErrors(t *testing.T) {
	tests := [][]string{
		{"--fps", "500"},
		{"--effect", "disco"},
		{"--sink", "hdmi"},
		{"--config", "does-not-exist.yaml"},
		{"bogus"},
		{"--leds", "many"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			if _, err := ParseArgs(args); err == nil {
				t.Errorf("ParseArgs(%v) succeeded", args)
			}
		})
	}
}
