// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"soundstrip/cmd"
	"soundstrip/internal/app"
	"soundstrip/internal/audio"
	"soundstrip/internal/config"
	"soundstrip/internal/effect"
	applog "soundstrip/internal/log"
	"soundstrip/internal/tui"
	"soundstrip/pkg/build"
)

// main is the entry point for the LED engine.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Parse command line arguments and load the configuration
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Start the audio goroutine (capture, analysis, snapshot publish)
//   - Start the render goroutine (commands, effects, strip transfer)
//   - Start diagnostics publishers
//   - Run the preview TUI when requested
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop recording if active
//   - Clean up resources
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Missing ldflags only leave the development defaults in place.
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build: %v", err)
	}

	// Limit OS threads for real-time processing:
	// - One thread for the audio engine (time-critical)
	// - One thread for the render loop (time-critical)
	// - One thread for UI, publishers and I/O
	runtime.GOMAXPROCS(3)

	options, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		applog.Fatalf("%v", err)
	}

	// Handle one-off commands that don't require the engine to be running
	switch options.Command {
	case "":
		return
	case cmd.CommandDevices:
		if err := listDevices(options.Interactive); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	case cmd.CommandEffects:
		for _, id := range effect.IDs() {
			fmt.Println(id)
		}
		return
	}

	cfg := options.Config
	setLogLevel(cfg)
	applog.Infof("%s", build.GetBuildFlags())

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	preview := options.Command == cmd.CommandPreview
	if preview {
		// The TUI owns the terminal; keep log lines from tearing it.
		applog.SetLevel(applog.LevelError)
	}

	engine, err := app.New(cfg, app.Options{Preview: preview})
	if err != nil {
		applog.Fatalf("%v", err)
	}
	engine.Start(ctx)

	if preview {
		err := tui.RunPreview(tui.PreviewConfig{
			Frames:  engine.PreviewFrames(),
			Inbox:   engine.Inbox(),
			Status:  engine.Status,
			Audio:   engine.Audio(),
			Columns: cfg.Strip.TerminalColumns,
		})
		if err != nil {
			applog.Errorf("Preview: %v", err)
		}
		stop()
	}

	// Block until termination signal is received
	<-ctx.Done()

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if err := engine.Wait(); err != nil {
		applog.Errorf("Shutdown: %v", err)
	}
	if cfg.Recording.Enabled && cfg.Recording.File != "" {
		fmt.Printf("\nRecording saved to: %s\n", cfg.Recording.File)
	}
}

func setLogLevel(cfg *config.Config) {
	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	}
}

// listDevices prints the capture devices, or lets the user pick one and
// prints the flags that select it.
func listDevices(interactive bool) error {
	if !interactive {
		devices, err := audio.ListDevices()
		if err != nil {
			return err
		}
		audio.PrintDevices(os.Stdout, devices)
		return nil
	}

	sel, ok, err := tui.StartDeviceListUI()
	if err != nil || !ok {
		return err
	}
	fmt.Printf("Selected %s. Use it with:\n\n  %s --device %d\n\nand set audio.sample_rate: %d in %s\n",
		sel.Name, build.GetBuildFlags().Name, sel.DeviceID, sel.SampleRate, config.DefaultConfigFile)
	return nil
}
