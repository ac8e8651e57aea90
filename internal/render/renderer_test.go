// SPDX-License-Identifier: MIT
package render

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"soundstrip/internal/analysis"
	"soundstrip/internal/command"
	"soundstrip/internal/effect"
	"soundstrip/internal/led"
)

const testFPS = 50

var frameInterval = time.Second / testFPS

func newTestRenderer(t *testing.T, mutate func(*Config)) (*Renderer, *led.MemorySink) {
	t.Helper()
	cfg := DefaultConfig(4)
	cfg.FPS = testFPS
	cfg.Color = led.RGB{R: 255}
	if mutate != nil {
		mutate(&cfg)
	}
	sink := &led.MemorySink{}
	r, err := New(cfg, command.NewInbox(16), nil, sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, sink
}

// runFrames steps the renderer once per frame interval starting at from and
// returns the time after the last step.
func runFrames(r *Renderer, from time.Duration, n int) time.Duration {
	now := from
	for range n {
		r.Step(now)
		now += frameInterval
	}
	return now
}

func push(t *testing.T, r *Renderer, cmds ...command.Command) {
	t.Helper()
	for _, c := range cmds {
		if !r.Inbox().TryPush(c) {
			t.Fatalf("inbox full pushing %v", c)
		}
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(DefaultConfig(0), nil, nil, &led.MemorySink{}); err == nil {
		t.Error("expected error for zero LEDs")
	}
	if _, err := New(DefaultConfig(4), nil, nil, nil); err == nil {
		t.Error("expected error for missing sink")
	}
	cfg := DefaultConfig(4)
	cfg.Effect = effect.ID(200)
	if _, err := New(cfg, nil, nil, &led.MemorySink{}); err == nil {
		t.Error("expected error for unknown effect")
	}
}

func TestBrightnessAndWireOrder(t *testing.T) {
	r, sink := newTestRenderer(t, func(c *Config) {
		c.Brightness = 0.5
		c.Order = led.OrderGRB
	})
	r.Step(0)

	got := sink.Last()
	// Red at 128/255 in GRB order is (0, 128, 0) per pixel.
	want := bytes.Repeat([]byte{0, 128, 0}, 4)
	if !bytes.Equal(got, want) {
		t.Errorf("frame = %v, want %v", got, want)
	}
}

func TestStartupDecayThenIdle(t *testing.T) {
	r, sink := newTestRenderer(t, nil)

	runFrames(r, 0, 40)

	if n := len(sink.Frames()); n != DefaultStartupDecay {
		t.Errorf("sent %d frames, want %d", n, DefaultStartupDecay)
	}
}

func TestCommandArmsDecay(t *testing.T) {
	r, sink := newTestRenderer(t, nil)
	now := runFrames(r, 0, 30)
	before := len(sink.Frames())

	push(t, r, command.SetColor(led.RGB{B: 255}))
	runFrames(r, now, 30)

	if n := len(sink.Frames()) - before; n != DefaultDecayFrames {
		t.Errorf("sent %d frames after SetColor, want %d", n, DefaultDecayFrames)
	}
	want := bytes.Repeat([]byte{0, 0, 255}, 4)
	if got := sink.Last(); !bytes.Equal(got, want) {
		t.Errorf("last frame = %v, want %v", got, want)
	}
}

func TestUnchangedCommandDoesNotArmDecay(t *testing.T) {
	r, sink := newTestRenderer(t, nil)
	now := runFrames(r, 0, 30)
	before := len(sink.Frames())

	push(t, r, command.SetColor(led.RGB{R: 255}), command.SetBrightness(1))
	runFrames(r, now, 10)

	if n := len(sink.Frames()) - before; n != 0 {
		t.Errorf("no-op commands sent %d frames", n)
	}
}

func TestKeepAlive(t *testing.T) {
	r, sink := newTestRenderer(t, nil)
	now := runFrames(r, 0, 30)
	before := len(sink.Frames())

	// Idle until just past the keep-alive window after the last send.
	last := time.Duration(DefaultStartupDecay-1) * frameInterval
	for now < last+DefaultKeepAlive+frameInterval {
		r.Step(now)
		now += frameInterval
	}

	if n := len(sink.Frames()) - before; n != 1 {
		t.Errorf("keep-alive sent %d frames, want 1", n)
	}
}

func TestIdenticalFramesSkipped(t *testing.T) {
	// The VU meter redraws every frame but stays black in silence.
	r, sink := newTestRenderer(t, func(c *Config) { c.Effect = effect.IDVUMeter })

	runFrames(r, 0, 40)

	if n := len(sink.Frames()); n != DefaultStartupDecay {
		t.Errorf("sent %d frames, want %d", n, DefaultStartupDecay)
	}
	st := r.Stats()
	if st.Frames != 40 {
		t.Errorf("rendered %d frames, want 40", st.Frames)
	}
	if st.Skipped != 40-DefaultStartupDecay {
		t.Errorf("skipped %d frames, want %d", st.Skipped, 40-DefaultStartupDecay)
	}
}

func TestAudioReachesReactiveEffect(t *testing.T) {
	var ch analysis.Channel
	ch.Publish(analysis.Snapshot{Volume: 1})

	cfg := DefaultConfig(10)
	cfg.Effect = effect.IDVUMeter
	cfg.StartupDecay = 0
	sink := &led.MemorySink{}
	r, err := New(cfg, nil, &ch, sink)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Duration(0)
	for range 10 {
		r.Step(now)
		now += r.interval
	}

	last := sink.Last()
	if last == nil || bytes.Equal(last, make([]byte, len(last))) {
		t.Fatalf("loud audio produced a dark frame: %v", last)
	}
}

func TestPowerOffSendsBlack(t *testing.T) {
	r, sink := newTestRenderer(t, nil)
	now := runFrames(r, 0, 30)

	push(t, r, command.SetPower(false))
	now = runFrames(r, now, 1)
	if got := sink.Last(); !bytes.Equal(got, make([]byte, 12)) {
		t.Errorf("power off frame = %v, want black", got)
	}
	if r.Status().Power {
		t.Error("Status().Power = true after SetPower(false)")
	}

	push(t, r, command.SetPower(true))
	runFrames(r, now, 1)
	want := bytes.Repeat([]byte{0, 255, 0}, 4)
	if got := sink.Last(); !bytes.Equal(got, want) {
		t.Errorf("power on frame = %v, want %v", got, want)
	}
}

func TestSetFPSClamps(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{30, 30},
		{500, MaxFPS},
		{0, MinFPS},
		{-5, MinFPS},
	}
	r, _ := newTestRenderer(t, nil)
	now := time.Duration(0)
	for _, tt := range tests {
		push(t, r, command.SetFPS(tt.in))
		r.Step(now)
		now += time.Second

		if got := r.Status().FPS; got != tt.want {
			t.Errorf("SetFPS(%d): fps = %d, want %d", tt.in, got, tt.want)
		}
		if got := r.interval; got != time.Second/time.Duration(tt.want) {
			t.Errorf("SetFPS(%d): interval = %v", tt.in, got)
		}
	}
}

func TestEffectSwitchCarriesColorAndSpeed(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	blue := led.RGB{B: 255}

	push(t, r,
		command.SetColor(blue),
		command.SetSpeed(200),
		command.SetEffect(effect.IDComet),
	)
	r.Step(0)

	if c, ok := r.current.Color(); !ok || c != blue {
		t.Errorf("comet color = %v, %v; want %v", c, ok, blue)
	}
	if s, ok := r.current.Speed(); !ok || s != 200 {
		t.Errorf("comet speed = %d, %v; want 200", s, ok)
	}

	// An effect without color must not lose the user's color.
	push(t, r, command.SetEffect(effect.IDRainbow), command.SetEffect(effect.IDStatic))
	r.Step(time.Second)
	if c, _ := r.current.Color(); c != blue {
		t.Errorf("static color after rainbow = %v, want %v", c, blue)
	}

	st := r.Status()
	if st.Effect != effect.IDStatic || st.Color != blue || st.Speed != 200 {
		t.Errorf("Status = %+v", st)
	}
}

func TestDrainLimit(t *testing.T) {
	r, _ := newTestRenderer(t, func(c *Config) { c.MaxCommands = 4 })
	for i := range 10 {
		push(t, r, command.SetSpeed(uint8(i+1)))
	}

	r.Step(0)
	if got := r.Inbox().Len(); got != 6 {
		t.Errorf("after one step %d commands queued, want 6", got)
	}
	r.Step(frameInterval)
	r.Step(2 * frameInterval)
	if got := r.Inbox().Len(); got != 0 {
		t.Errorf("after three steps %d commands queued, want 0", got)
	}
	if got := r.Status().Speed; got != 10 {
		t.Errorf("speed = %d, want 10", got)
	}
}

func TestTransferErrorRearmsDecay(t *testing.T) {
	r, sink := newTestRenderer(t, nil)
	now := runFrames(r, 0, 30)

	sink.FailWith(errors.New("cable unplugged"))
	push(t, r, command.SetColor(led.RGB{G: 255}))
	now = runFrames(r, now, 5)
	if got := r.Stats().Errors; got != 5 {
		t.Errorf("errors = %d, want 5", got)
	}

	sink.FailWith(nil)
	before := len(sink.Frames())
	runFrames(r, now, 30)
	if n := len(sink.Frames()) - before; n != DefaultDecayFrames {
		t.Errorf("sent %d frames after recovery, want %d", n, DefaultDecayFrames)
	}
}

func TestDelay(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	r.Step(time.Second)

	if got := r.Delay(time.Second); got != frameInterval {
		t.Errorf("Delay right after a frame = %v, want %v", got, frameInterval)
	}
	if got := r.Delay(time.Second + frameInterval/2); got != frameInterval/2 {
		t.Errorf("Delay half way = %v", got)
	}
	if got := r.Delay(time.Second + 3*frameInterval); got != 0 {
		t.Errorf("Delay when overdue = %v, want 0", got)
	}
}

func TestStepBetweenFramesDoesNothing(t *testing.T) {
	r, sink := newTestRenderer(t, func(c *Config) { c.Effect = effect.IDRainbow })
	r.Step(0)
	r.Step(frameInterval / 3)
	r.Step(frameInterval / 2)

	if n := len(sink.Frames()); n != 1 {
		t.Errorf("sent %d frames within one interval, want 1", n)
	}
}

func TestSteadyStateNoAllocs(t *testing.T) {
	cfg := DefaultConfig(60)
	cfg.Effect = effect.IDRainbow
	r, err := New(cfg, nil, nil, &led.Discard{})
	if err != nil {
		t.Fatal(err)
	}
	now := time.Duration(0)
	allocs := testing.AllocsPerRun(100, func() {
		r.Step(now)
		now += r.interval
	})
	if allocs > 0 {
		t.Errorf("Step allocated: %.1f", allocs)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	sink := &led.Discard{}
	r, err := New(DefaultConfig(8), nil, nil, sink)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	if sink.Frames() == 0 {
		t.Error("Run sent no frames")
	}
}

func BenchmarkStep(b *testing.B) {
	cfg := DefaultConfig(300)
	cfg.Effect = effect.IDRainbow
	r, err := New(cfg, nil, nil, &led.Discard{})
	if err != nil {
		b.Fatal(err)
	}
	now := time.Duration(0)
	b.ReportAllocs()
	for b.Loop() {
		r.Step(now)
		now += r.interval
	}
}
