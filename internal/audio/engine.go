// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"soundstrip/internal/analysis"
	applog "soundstrip/internal/log"
)

// EngineConfig tunes the capture loop.
type EngineConfig struct {
	BlockSize    int
	ReadTimeout  time.Duration
	RetryBackoff time.Duration
	// PublishEvery publishes a snapshot after every Nth processed block.
	PublishEvery int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		BlockSize:    256,
		ReadTimeout:  100 * time.Millisecond,
		RetryBackoff: 100 * time.Millisecond,
		PublishEvery: 1,
	}
}

// Engine reads blocks from a Source, runs them through the feature
// extractor and any extra processors, and publishes snapshots.
type Engine struct {
	config     EngineConfig
	source     Source
	features   analysis.FeatureSource
	out        *analysis.Channel
	processors []analysis.AudioProcessor

	// Pre-allocated so the loop never allocates.
	inputBuffer []int32

	blocks   atomic.Uint64
	failures atomic.Uint64
}

func NewEngine(config EngineConfig, source Source, features analysis.FeatureSource, out *analysis.Channel) (*Engine, error) {
	if source == nil || features == nil || out == nil {
		return nil, fmt.Errorf("engine: source, extractor and channel are required")
	}
	if config.BlockSize <= 0 {
		return nil, fmt.Errorf("engine: block size must be positive, got %d", config.BlockSize)
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 100 * time.Millisecond
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = 100 * time.Millisecond
	}
	config.PublishEvery = max(config.PublishEvery, 1)

	return &Engine{
		config:      config,
		source:      source,
		features:    features,
		out:         out,
		inputBuffer: make([]int32, config.BlockSize),
	}, nil
}

// AddProcessor runs p on every block before the extractor. Call before Run.
func (e *Engine) AddProcessor(p analysis.AudioProcessor) {
	e.processors = append(e.processors, p)
}

// Run loops until ctx is done or a finite source ends. Read errors are
// logged and retried after the backoff; they never stop the loop.
func (e *Engine) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	applog.Infof("AudioEngine: running (%d samples/block @ %d Hz)", e.config.BlockSize, e.source.SampleRate())
	for {
		if ctx.Err() != nil {
			applog.Debugf("AudioEngine: stopped after %d blocks", e.blocks.Load())
			return nil
		}

		n, err := e.source.Read(e.inputBuffer, e.config.ReadTimeout)
		switch {
		case errors.Is(err, io.EOF):
			applog.Infof("AudioEngine: source exhausted after %d blocks", e.blocks.Load())
			return nil
		case err != nil:
			e.failures.Add(1)
			if errors.Is(err, ErrTimeout) {
				applog.Warnf("AudioEngine: no audio within %v", e.config.ReadTimeout)
			} else {
				applog.Errorf("AudioEngine: read failed: %v", err)
			}
			if !sleepCtx(ctx, e.config.RetryBackoff) {
				return nil
			}
			continue
		}

		e.processBuffer(e.inputBuffer[:n])
	}
}

// processBuffer is the hot path: no allocations.
func (e *Engine) processBuffer(block []int32) {
	for _, p := range e.processors {
		p.Process(block)
	}
	e.features.Process(block)

	if n := e.blocks.Add(1); n%uint64(e.config.PublishEvery) == 0 {
		e.out.Publish(e.features.Snapshot())
	}
}

// Blocks is the number of blocks processed so far.
func (e *Engine) Blocks() uint64 { return e.blocks.Load() }

// Failures counts read timeouts and errors.
func (e *Engine) Failures() uint64 { return e.failures.Load() }

// Close releases the source and any closable processors.
func (e *Engine) Close() error {
	var errs []error
	for _, p := range e.processors {
		if c, ok := p.(analysis.ClosableProcessor); ok {
			errs = append(errs, c.Close())
		}
	}
	errs = append(errs, e.source.Close())
	return errors.Join(errs...)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
