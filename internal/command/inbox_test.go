// SPDX-License-Identifier: MIT
package command

import (
	"sync"
	"testing"

	"soundstrip/internal/effect"
	"soundstrip/internal/led"
)

func TestNewInboxCapacity(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultCapacity},
		{-3, DefaultCapacity},
		{1, 1},
		{5, 8},
		{8, 8},
		{9, 16},
	}
	for _, tt := range tests {
		if got := NewInbox(tt.in).Cap(); got != tt.want {
			t.Errorf("NewInbox(%d).Cap() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestInboxFIFO(t *testing.T) {
	q := NewInbox(4)
	want := []Command{
		SetEffect(effect.IDComet),
		SetBrightness(0.5),
		SetColor(led.RGB{R: 1, G: 2, B: 3}),
	}
	for _, c := range want {
		if !q.TryPush(c) {
			t.Fatalf("TryPush(%v) rejected", c)
		}
	}
	for i, w := range want {
		got, ok := q.TryPop()
		if !ok || got != w {
			t.Fatalf("pop %d = %v, %v; want %v", i, got, ok, w)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Error("TryPop on empty inbox succeeded")
	}
}

func TestInboxOverflowLeavesQueueIntact(t *testing.T) {
	q := NewInbox(DefaultCapacity)
	for i := range DefaultCapacity {
		if !q.TryPush(SetSpeed(uint8(i))) {
			t.Fatalf("push %d rejected below capacity", i)
		}
	}
	if q.TryPush(SetSpeed(200)) {
		t.Fatal("push accepted on a full inbox")
	}
	if q.Len() != DefaultCapacity {
		t.Errorf("Len = %d after rejected push", q.Len())
	}

	for i := range DefaultCapacity {
		c, ok := q.TryPop()
		if !ok || c.Kind != KindSetSpeed || c.Speed != uint8(i) {
			t.Fatalf("pop %d = %v, %v", i, c, ok)
		}
	}

	// Space freed by the consumer is usable again.
	if !q.TryPush(SetPower(false)) {
		t.Error("push rejected after draining")
	}
}

func TestInboxSPSC(t *testing.T) {
	const n = 100000
	q := NewInbox(8)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; {
			if q.TryPush(SetFPS(i)) {
				i++
			}
		}
	}()

	next := 0
	for next < n {
		c, ok := q.TryPop()
		if !ok {
			continue
		}
		if c.FPS != next {
			t.Fatalf("got FPS %d, want %d", c.FPS, next)
		}
		next++
	}
	wg.Wait()
}

func TestInboxNoAllocs(t *testing.T) {
	q := NewInbox(8)
	c := SetColor(led.White)
	allocs := testing.AllocsPerRun(100, func() {
		q.TryPush(c)
		q.TryPop()
	})
	if allocs > 0 {
		t.Errorf("Inbox allocated: %.1f", allocs)
	}
}

func TestSetBrightnessClamps(t *testing.T) {
	if got := SetBrightness(1.7).Level; got != 1 {
		t.Errorf("SetBrightness(1.7).Level = %f", got)
	}
	if got := SetBrightness(-1).Level; got != 0 {
		t.Errorf("SetBrightness(-1).Level = %f", got)
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		c    Command
		want string
	}{
		{SetEffect(effect.IDRainbow), "SetEffect(rainbow)"},
		{SetBrightness(0.25), "SetBrightness(0.25)"},
		{SetColor(led.RGB{R: 255}), "SetColor(#ff0000)"},
		{SetPower(true), "SetPower(true)"},
		{Command{}, "Kind(0)"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func BenchmarkInboxPushPop(b *testing.B) {
	q := NewInbox(8)
	c := SetSpeed(10)
	b.ReportAllocs()
	for b.Loop() {
		q.TryPush(c)
		q.TryPop()
	}
}
