// SPDX-License-Identifier: MIT
package cmd

import (
	"soundstrip/internal/config"
	"soundstrip/pkg/build"

	"github.com/spf13/cobra"
)

// Commands selected on the command line.
const (
	CommandRun     = "run"
	CommandPreview = "preview"
	CommandDevices = "devices"
	CommandEffects = "effects"
)

// Options is the parsed command line. Config is loaded only for commands
// that start the engine.
type Options struct {
	Command     string
	Interactive bool
	Config      *config.Config
}

// flagValues collects the persistent flags; only the ones set explicitly
// override the loaded configuration.
type flagValues struct {
	configPath string
	device     int
	source     string
	wav        string
	sink       string
	port       string
	leds       int
	fps        int
	effect     string
	record     bool
	output     string
	verbose    bool
}

func ParseArgs(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{}
	var flags flagValues

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandRun
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Run the engine with a live strip preview and keyboard control",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandPreview
		},
	}

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio input devices",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandDevices
		},
	}
	devicesCmd.Flags().BoolVarP(&options.Interactive, "interactive", "i", false,
		"Pick a device and sample rate in a TUI")

	effectsCmd := &cobra.Command{
		Use:   "effects",
		Short: "List the effect catalog",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandEffects
		},
	}
	rootCmd.AddCommand(previewCmd, devicesCmd, effectsCmd)

	pf := rootCmd.PersistentFlags()

	// Configuration
	pf.StringVar(&flags.configPath, "config", "",
		"Path to a YAML config file. Defaults to ./"+config.DefaultConfigFile+" when present")

	// Audio Input Configuration
	pf.IntVarP(&flags.device, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use the 'devices' command to see available devices.")
	pf.StringVarP(&flags.source, "source", "s", config.DefaultSource,
		"Audio source: portaudio, wav or synth")
	pf.StringVarP(&flags.wav, "wav", "w", "",
		"WAV file to play as the audio source (implies --source wav)")

	// Strip Configuration
	pf.StringVar(&flags.sink, "sink", config.DefaultSink,
		"Strip output: serial, wled, terminal or none")
	pf.StringVarP(&flags.port, "port", "p", "",
		"Serial port of the strip controller (implies --sink serial)")
	pf.IntVarP(&flags.leds, "leds", "n", config.DefaultLEDs,
		"Number of LEDs on the strip")
	pf.IntVarP(&flags.fps, "fps", "f", config.DefaultFPS,
		"Target frame rate (1-120)")
	pf.StringVarP(&flags.effect, "effect", "e", config.DefaultEffect,
		"Initial effect. Use the 'effects' command to see the catalog.")

	// Recording Configuration
	pf.BoolVarP(&flags.record, "record", "r", false,
		"Record the audio input to a WAV file")
	pf.StringVarP(&flags.output, "output", "o", "",
		"Recording file name. Default is recording-YYYYMMDD-HHMMSS.wav in the recording directory")

	// Debug Configuration
	pf.BoolVarP(&flags.verbose, "verbose", "v", false,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	if options.Command != CommandRun && options.Command != CommandPreview {
		return options, nil
	}

	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	flags.apply(cfg, pf.Changed)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options.Config = cfg
	return options, nil
}

// apply copies every flag the user set onto cfg.
func (f *flagValues) apply(cfg *config.Config, changed func(string) bool) {
	if changed("device") {
		cfg.Audio.InputDevice = f.device
	}
	if changed("source") {
		cfg.Audio.Source = f.source
	}
	if changed("wav") {
		cfg.Audio.WAVPath = f.wav
		if !changed("source") {
			cfg.Audio.Source = config.SourceWAV
		}
	}
	if changed("sink") {
		cfg.Strip.Sink = f.sink
	}
	if changed("port") {
		cfg.Strip.SerialPort = f.port
		if !changed("sink") {
			cfg.Strip.Sink = config.SinkSerial
		}
	}
	if changed("leds") {
		cfg.Strip.LEDs = f.leds
	}
	if changed("fps") {
		cfg.Render.FPS = f.fps
	}
	if changed("effect") {
		cfg.Effect.Name = f.effect
	}
	if changed("record") {
		cfg.Recording.Enabled = f.record
	}
	if changed("output") {
		cfg.Recording.File = f.output
		cfg.Recording.Enabled = true
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}
}
