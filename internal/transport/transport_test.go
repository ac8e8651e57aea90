// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"soundstrip/pkg/utils"
)

var _ Transport = (*utils.MockTransport)(nil)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPublisherSendsOnEveryTick(t *testing.T) {
	mock := &utils.MockTransport{}
	var n atomic.Int64
	p, err := NewPublisher("TestPublisher", 5*time.Millisecond, mock, func() any {
		return []float64{float64(n.Add(1))}
	})
	if err != nil {
		t.Fatal(err)
	}

	p.Start()
	p.Start() // no-op while running
	waitFor(t, "three messages", func() bool { return len(mock.Messages()) >= 3 })
	p.Stop()
	p.Stop()

	sent := len(mock.Messages())
	time.Sleep(20 * time.Millisecond)
	if len(mock.Messages()) != sent {
		t.Error("publisher kept sending after Stop")
	}
	last, ok := mock.Last().([]float64)
	if !ok || last[0] != float64(sent) {
		t.Errorf("last message = %v, want [%d]", mock.Last(), sent)
	}

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if !mock.Closed() {
		t.Error("Close did not close the transport")
	}
}

func TestPublisherRestart(t *testing.T) {
	mock := &utils.MockTransport{}
	p, err := NewPublisher("TestPublisher", 0, mock, func() any { return 1 })
	if err != nil {
		t.Fatal(err)
	}
	if p.interval != 50*time.Millisecond {
		t.Errorf("default interval = %v", p.interval)
	}
	p.interval = 2 * time.Millisecond

	p.Start()
	waitFor(t, "first run", func() bool { return len(mock.Messages()) > 0 })
	p.Stop()
	before := len(mock.Messages())

	p.Start()
	waitFor(t, "second run", func() bool { return len(mock.Messages()) > before })
	p.Stop()
}

func TestNewPublisherValidation(t *testing.T) {
	if _, err := NewPublisher("x", time.Second, nil, func() any { return nil }); err == nil {
		t.Error("expected error for nil transport")
	}
	if _, err := NewPublisher("x", time.Second, &utils.MockTransport{}, nil); err == nil {
		t.Error("expected error for nil builder")
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	if err := lt.Send(map[string]float64{"volume": 0.5}); err != nil {
		t.Error(err)
	}
	// Channels do not marshal; Send still succeeds.
	if err := lt.Send(make(chan int)); err != nil {
		t.Error(err)
	}
	if err := lt.Close(); err != nil {
		t.Error(err)
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer wst.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+wst.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, "client registration", func() bool { return wst.ClientCount() == 1 })

	type message struct {
		Volume float64 `json:"volume"`
	}
	if err := wst.Send(message{Volume: 0.25}); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got message
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Volume != 0.25 {
		t.Errorf("volume = %v, want 0.25", got.Volume)
	}

	conn.Close()
	waitFor(t, "client removal", func() bool { return wst.ClientCount() == 0 })
}

func TestWebSocketSendAfterClose(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	if err := wst.Close(); err != nil {
		t.Fatal(err)
	}
	if err := wst.Send(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close = %v, want ErrClosed", err)
	}
	if err := wst.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestWebSocketListenError(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer wst.Close()

	if _, err := NewWebSocketTransport(wst.Addr()); err == nil {
		t.Error("expected error listening on a busy port")
	}
}
