// SPDX-License-Identifier: MIT
package app

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"soundstrip/internal/audio"
	"soundstrip/internal/command"
	"soundstrip/internal/config"
	"soundstrip/internal/effect"
	"soundstrip/internal/led"
	"soundstrip/internal/transport/udp"
)

const testLEDs = 16

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Audio.Source = config.SourceSynth
	cfg.Strip.Sink = config.SinkNone
	cfg.Strip.LEDs = testLEDs
	cfg.Render.FPS = 100
	return &cfg
}

func newApp(t *testing.T, cfg *config.Config, opts Options) *App {
	t.Helper()
	a, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func runFor(t *testing.T, a *App, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, Options{}); err == nil {
		t.Error("expected error for nil config")
	}
	cfg := testConfig()
	cfg.Effect.Name = "disco"
	if _, err := New(cfg, Options{}); err == nil {
		t.Error("expected error for unknown effect")
	}
}

func TestRenderConfig(t *testing.T) {
	tests := []struct {
		name  string
		sink  string
		order string
		want  led.ColorOrder
	}{
		{"serial uses configured order", config.SinkSerial, "GRB", led.OrderGRB},
		{"serial rgb", config.SinkSerial, "RGB", led.OrderRGB},
		{"wled is rgb", config.SinkWLED, "GRB", led.OrderRGB},
		{"terminal is rgb", config.SinkTerminal, "GRB", led.OrderRGB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Strip.Sink = tt.sink
			cfg.Strip.ColorOrder = tt.order
			rc, err := RenderConfig(cfg)
			if err != nil {
				t.Fatal(err)
			}
			if rc.Order != tt.want {
				t.Errorf("order = %v, want %v", rc.Order, tt.want)
			}
		})
	}

	cfg := testConfig()
	cfg.Effect.Name = "vu"
	cfg.Effect.Color = "0,255,0"
	cfg.Effect.Speed = 200
	cfg.Render.KeepAlive = time.Second
	rc, err := RenderConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if rc.Effect != effect.IDVUMeter || rc.Color != (led.RGB{G: 255}) || rc.Speed != 200 || rc.KeepAlive != time.Second {
		t.Errorf("render config not translated: %+v", rc)
	}
	if rc.NumLEDs != testLEDs || rc.FPS != 100 {
		t.Errorf("strip not translated: %+v", rc)
	}
}

func TestOpenSourceSynth(t *testing.T) {
	cfg := testConfig()
	src, err := OpenSource(cfg.Audio)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	if src.SampleRate() != cfg.Audio.SampleRate {
		t.Errorf("sample rate = %d", src.SampleRate())
	}
	if _, err := OpenSource(config.AudioConfig{Source: "line-in"}); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestAppRunsHeadless(t *testing.T) {
	a := newApp(t, testConfig(), Options{})
	if got := a.Status(); got.Effect != effect.IDRainbow {
		t.Errorf("initial status effect = %v", got.Effect)
	}

	runFor(t, a, 300*time.Millisecond)

	if s := a.Stats(); s.Sent == 0 {
		t.Errorf("no frames sent: %+v", s)
	}
	if snap := a.Audio().Load(); snap.Seq == 0 {
		t.Error("no audio snapshot published")
	}
}

func TestAppAppliesQueuedCommands(t *testing.T) {
	a := newApp(t, testConfig(), Options{})
	a.Inbox().TryPush(command.SetEffect(effect.IDStatic))
	a.Inbox().TryPush(command.SetColor(led.RGB{R: 255}))
	a.Inbox().TryPush(command.SetBrightness(1))

	runFor(t, a, 200*time.Millisecond)

	st := a.Status()
	if st.Effect != effect.IDStatic || st.Color != (led.RGB{R: 255}) || st.Brightness != 1 {
		t.Errorf("status = %+v", st)
	}
	d := a.Diagnostics()
	if len(d.Frame) != testLEDs || d.Frame[0] != "#ff0000" {
		t.Errorf("last frame = %v", d.Frame)
	}
	if d.Blocks == 0 {
		t.Error("diagnostics missing audio block count")
	}
}

func TestAppSourceFailureKeepsRendering(t *testing.T) {
	a := newApp(t, testConfig(), Options{})
	a.openSource = func(config.AudioConfig) (audio.Source, error) {
		return nil, errors.New("no microphone")
	}

	runFor(t, a, 200*time.Millisecond)

	if a.Stats().Sent == 0 {
		t.Error("renderer stopped because the audio source failed")
	}
	if a.Audio().Load().Seq != 0 {
		t.Error("snapshot published without a source")
	}
}

func TestAppSinkFailureKeepsAudio(t *testing.T) {
	a := newApp(t, testConfig(), Options{Preview: true})
	a.openSink = func(config.StripConfig) (led.Sink, error) {
		return nil, errors.New("port busy")
	}

	runFor(t, a, 200*time.Millisecond)

	if a.Audio().Load().Seq == 0 {
		t.Error("audio stopped because the sink failed")
	}
	// The preview must learn that no frames will come.
	for range a.PreviewFrames() {
	}
}

func TestAppPreviewReceivesFrames(t *testing.T) {
	a := newApp(t, testConfig(), Options{Preview: true})
	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx)

	select {
	case px := <-a.PreviewFrames():
		if len(px) != testLEDs {
			t.Errorf("preview frame has %d pixels", len(px))
		}
	case <-time.After(2 * time.Second):
		t.Error("no preview frame")
	}

	cancel()
	if err := a.Wait(); err != nil {
		t.Fatal(err)
	}
	for range a.PreviewFrames() {
	}
}

func TestAppPreviewReplacesTerminal(t *testing.T) {
	cfg := testConfig()
	cfg.Strip.Sink = config.SinkTerminal
	var out bytes.Buffer
	a := newApp(t, cfg, Options{Preview: true, Output: &out})

	runFor(t, a, 100*time.Millisecond)

	if out.Len() != 0 {
		t.Errorf("terminal sink drew %d bytes while the preview owned the terminal", out.Len())
	}
	if a.Stats().Sent == 0 {
		t.Error("no frames sent to the preview")
	}
}

func TestAppTerminalSink(t *testing.T) {
	cfg := testConfig()
	cfg.Strip.Sink = config.SinkTerminal
	var out bytes.Buffer
	a := newApp(t, cfg, Options{Output: &out})
	if a.PreviewFrames() != nil {
		t.Error("preview channel without Options.Preview")
	}

	runFor(t, a, 100*time.Millisecond)

	if out.Len() == 0 {
		t.Error("terminal sink wrote nothing")
	}
}

func TestAppPublishesUDPSnapshots(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	cfg := testConfig()
	cfg.Transport.UDPEnabled = true
	cfg.Transport.UDPTargetAddress = conn.LocalAddr().String()
	cfg.Transport.UDPSendInterval = 10 * time.Millisecond
	cfg.Transport.WSEnabled = true
	cfg.Transport.WSAddr = "127.0.0.1:0"
	a := newApp(t, cfg, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx)
	if len(a.publishers) != 2 {
		t.Errorf("started %d publishers, want 2", len(a.publishers))
	}

	buf := make([]byte, 1500)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := conn.ReadFromUDP(buf)
	cancel()
	if werr := a.Wait(); werr != nil {
		t.Errorf("Wait: %v", werr)
	}
	if err != nil {
		t.Fatalf("no UDP packet: %v", err)
	}
	if _, _, _, err := udp.DecodeSnapshot(buf[:n]); err != nil {
		t.Errorf("DecodeSnapshot: %v", err)
	}
	if len(a.publishers) != 0 {
		t.Error("publishers not released by Wait")
	}
}

func TestAppRecordsInput(t *testing.T) {
	cfg := testConfig()
	cfg.Recording.Enabled = true
	cfg.Recording.File = filepath.Join(t.TempDir(), "take.wav")
	a := newApp(t, cfg, Options{})

	runFor(t, a, 200*time.Millisecond)

	info, err := os.Stat(cfg.Recording.File)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() <= 44 {
		t.Errorf("recording holds no samples (%d bytes)", info.Size())
	}
	src, err := audio.OpenWAV(cfg.Recording.File, audio.WAVOptions{BlockSize: cfg.Audio.FramesPerBuffer})
	if err != nil {
		t.Fatalf("recording does not decode: %v", err)
	}
	defer src.Close()
	if src.SampleRate() != cfg.Audio.SampleRate {
		t.Errorf("recorded at %d Hz, want %d", src.SampleRate(), cfg.Audio.SampleRate)
	}
}

func TestAppRecordsIntoOutputDir(t *testing.T) {
	cfg := testConfig()
	cfg.Recording.Enabled = true
	cfg.Recording.OutputDir = filepath.Join(t.TempDir(), "recordings")
	a := newApp(t, cfg, Options{})

	runFor(t, a, 100*time.Millisecond)

	entries, err := os.ReadDir(cfg.Recording.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || filepath.Ext(entries[0].Name()) != ".wav" {
		t.Errorf("output dir holds %v", entries)
	}
}
