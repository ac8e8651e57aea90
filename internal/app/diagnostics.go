// SPDX-License-Identifier: MIT
package app

import (
	"time"

	"soundstrip/internal/analysis"
	applog "soundstrip/internal/log"
	"soundstrip/internal/render"
	"soundstrip/internal/transport"
	"soundstrip/internal/transport/udp"
)

// Diagnostics is the message broadcast to websocket clients and the debug
// log.
type Diagnostics struct {
	Audio  analysis.Snapshot `json:"audio"`
	Status render.Status     `json:"status"`
	Stats  render.Stats      `json:"stats"`
	Blocks uint64            `json:"blocks"`
	Frame  []string          `json:"frame"` // last frame sent, "#rrggbb" per pixel
}

// Diagnostics gathers the current state from every goroutine. It is safe to
// call concurrently with the running app.
func (a *App) Diagnostics() Diagnostics {
	d := Diagnostics{
		Audio:  a.audio.Load(),
		Status: a.Status(),
		Stats:  a.Stats(),
	}
	if e := a.engine.Load(); e != nil {
		d.Blocks = e.Blocks()
	}
	if tap := a.tap.Load(); tap != nil {
		pixels := tap.Last(nil)
		d.Frame = make([]string, len(pixels))
		for i, px := range pixels {
			d.Frame[i] = px.Hex()
		}
	}
	return d
}

func (a *App) startPublishers() {
	tc := a.cfg.Transport

	if tc.WSEnabled {
		ws, err := transport.NewWebSocketTransport(tc.WSAddr)
		if err != nil {
			applog.Errorf("WebSocketPublisher: %v", err)
		} else {
			a.addPublisher("WebSocketPublisher", tc.WSInterval, ws, func() any { return a.Diagnostics() })
		}
	}

	if tc.UDPEnabled {
		sender, err := udp.NewSender(tc.UDPTargetAddress)
		if err != nil {
			applog.Errorf("UDPPublisher: %v", err)
		} else if out, err := udp.NewSnapshotTransport(sender); err != nil {
			applog.Errorf("UDPPublisher: %v", err)
			sender.Close()
		} else {
			a.addPublisher("UDPPublisher", tc.UDPSendInterval, out, func() any { return a.audio.Load() })
		}
	}

	if a.cfg.Debug {
		a.addPublisher("LogPublisher", logInterval, transport.NewLoggingTransport(), func() any { return a.Diagnostics() })
	}
}

func (a *App) addPublisher(name string, interval time.Duration, out transport.Transport, build func() any) {
	p, err := transport.NewPublisher(name, interval, out, build)
	if err != nil {
		applog.Errorf("%s: %v", name, err)
		out.Close()
		return
	}
	p.Start()
	a.publishers = append(a.publishers, p)
}
