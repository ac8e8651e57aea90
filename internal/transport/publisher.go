// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
	"time"

	applog "soundstrip/internal/log"
)

// Publisher calls build on every tick and sends the result over a
// Transport. It runs in its own goroutine between Start and Stop.
type Publisher struct {
	name     string
	out      Transport
	build    func() any
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.
}

// NewPublisher returns a stopped publisher. An interval <= 0 defaults to
// 50ms.
func NewPublisher(name string, interval time.Duration, out Transport, build func() any) (*Publisher, error) {
	if out == nil || build == nil {
		return nil, fmt.Errorf("%s: transport and builder are required", name)
	}
	if interval <= 0 {
		interval = 50 * time.Millisecond
		applog.Warnf("%s: Invalid interval provided, defaulting to %s", name, interval)
	}
	return &Publisher{name: name, out: out, build: build, interval: interval}, nil
}

// Start launches the publishing goroutine. Calling Start on a running
// publisher is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("%s: Start called but already running.", p.name)
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker, done := p.ticker, p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("%s: started (interval %s)", p.name, p.interval)
		for {
			select {
			case <-ticker.C:
				if err := p.out.Send(p.build()); err != nil {
					applog.Debugf("%s: send failed: %v", p.name, err)
				}
			case <-done:
				return
			}
		}
	}()
}

// Stop ends the goroutine and waits for it. Safe to call more than once.
func (p *Publisher) Stop() {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Debugf("%s: stopped", p.name)
}

// Close stops publishing and closes the transport.
func (p *Publisher) Close() error {
	p.Stop()
	return p.out.Close()
}
