// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	applog "soundstrip/internal/log"
)

// blockPool is the number of blocks in flight between the PortAudio
// callback and Read.
const blockPool = 4

// PortAudioConfig selects and configures the capture device.
type PortAudioConfig struct {
	DeviceID        int
	SampleRate      int
	FramesPerBuffer int
	Channels        int
	LowLatency      bool
}

// PortAudioSource captures from a microphone. The stream callback runs on a
// PortAudio thread; it copies the first channel of each buffer into a
// pooled block and hands it to Read. When Read falls behind the block is
// dropped and counted as an overrun.
type PortAudioSource struct {
	cfg    PortAudioConfig
	device *portaudio.DeviceInfo
	stream *portaudio.Stream

	free   chan []int32
	filled chan []int32
	timer  *time.Timer

	overruns atomic.Uint64
	closed   atomic.Bool
}

var _ Source = (*PortAudioSource)(nil)

// OpenPortAudio initializes PortAudio and starts an input stream. Close
// stops the stream and terminates PortAudio.
func OpenPortAudio(cfg PortAudioConfig) (*PortAudioSource, error) {
	if cfg.SampleRate <= 0 || cfg.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("portaudio: invalid rate %d or buffer %d", cfg.SampleRate, cfg.FramesPerBuffer)
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}

	if err := Initialize(); err != nil {
		return nil, err
	}

	device, err := InputDevice(cfg.DeviceID)
	if err != nil {
		Terminate()
		return nil, err
	}
	if device.MaxInputChannels < cfg.Channels {
		cfg.Channels = device.MaxInputChannels
	}

	s := &PortAudioSource{
		cfg:    cfg,
		device: device,
		free:   make(chan []int32, blockPool),
		filled: make(chan []int32, blockPool),
		timer:  time.NewTimer(time.Hour),
	}
	s.timer.Stop()
	for range blockPool {
		s.free <- make([]int32, cfg.FramesPerBuffer)
	}

	latency := device.DefaultHighInputLatency
	if cfg.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: cfg.Channels,
			Latency:  latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Device:   nil,
			Channels: 0,
		},
		FramesPerBuffer: cfg.FramesPerBuffer,
		SampleRate:      float64(cfg.SampleRate),
	}

	stream, err := portaudio.OpenStream(params, s.callback)
	if err != nil {
		Terminate()
		return nil, fmt.Errorf("portaudio: open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		Terminate()
		return nil, fmt.Errorf("portaudio: start stream: %w", err)
	}
	s.stream = stream

	applog.Infof("AudioSource: capturing from %q (%d ch @ %d Hz, %d frames, latency %v)",
		device.Name, cfg.Channels, cfg.SampleRate, cfg.FramesPerBuffer, latency)
	return s, nil
}

// callback runs on the PortAudio thread and must not block or allocate.
func (s *PortAudioSource) callback(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var block []int32
	select {
	case block = <-s.free:
	default:
		s.overruns.Add(1)
		return
	}

	ch := s.cfg.Channels
	n := min(len(block), len(in)/ch)
	for i := range n {
		block[i] = in[i*ch]
	}
	s.filled <- block[:n]
}

func (s *PortAudioSource) Read(dst []int32, timeout time.Duration) (int, error) {
	s.timer.Reset(timeout)
	select {
	case block := <-s.filled:
		s.timer.Stop()
		n := copy(dst, block)
		s.free <- block[:cap(block)]
		return n, nil
	case <-s.timer.C:
		return 0, ErrTimeout
	}
}

func (s *PortAudioSource) SampleRate() int { return s.cfg.SampleRate }

// Overruns is the number of callback buffers dropped because Read was late.
func (s *PortAudioSource) Overruns() uint64 { return s.overruns.Load() }

func (s *PortAudioSource) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.stream != nil {
		if err := s.stream.Stop(); err != nil {
			return fmt.Errorf("portaudio: stop stream: %w", err)
		}
		if err := s.stream.Close(); err != nil {
			return fmt.Errorf("portaudio: close stream: %w", err)
		}
		s.stream = nil
	}
	if n := s.overruns.Load(); n > 0 {
		applog.Warnf("AudioSource: %d buffers dropped during capture", n)
	}
	return Terminate()
}
