// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"

	applog "soundstrip/internal/log"
)

// WAVOptions controls playback of a WAV file as a Source.
type WAVOptions struct {
	Loop bool
	// Realtime paces Read to the file's sample rate. Without it blocks are
	// returned as fast as they are asked for.
	Realtime  bool
	BlockSize int
}

// WAVSource plays a PCM WAV file as if it were a microphone. The file is
// decoded once into memory and downmixed to the first channel.
type WAVSource struct {
	samples    []int32
	sampleRate int
	pos        int
	loop       bool
	pacer      *pacer
}

var _ Source = (*WAVSource)(nil)

func OpenWAV(path string, opts WAVOptions) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("wav: %s is not a valid WAV file", path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: decode %s: %w", path, err)
	}

	channels := max(int(d.NumChans), 1)
	depth := int(d.BitDepth)
	if depth <= 0 || depth > 32 {
		return nil, fmt.Errorf("wav: unsupported bit depth %d", depth)
	}
	shift := uint(32 - depth)

	frames := len(buf.Data) / channels
	if frames == 0 {
		return nil, fmt.Errorf("wav: %s holds no samples", path)
	}
	samples := make([]int32, frames)
	for i := range samples {
		samples[i] = int32(buf.Data[i*channels]) << shift
	}

	if opts.BlockSize <= 0 {
		opts.BlockSize = 256
	}
	rate := int(d.SampleRate)

	applog.Infof("AudioSource: playing %s (%d Hz, %d bit, %d ch, %.1fs, loop=%t)",
		path, rate, depth, channels, float64(frames)/float64(rate), opts.Loop)

	return &WAVSource{
		samples:    samples,
		sampleRate: rate,
		loop:       opts.Loop,
		pacer:      newPacer(opts.BlockSize, rate, opts.Realtime),
	}, nil
}

// Read fills dst from the current position. Without looping the final
// block may be short, and io.EOF follows it.
func (w *WAVSource) Read(dst []int32, timeout time.Duration) (int, error) {
	if w.pos >= len(w.samples) {
		if !w.loop {
			return 0, io.EOF
		}
		w.pos = 0
	}
	if err := w.pacer.wait(timeout); err != nil {
		return 0, err
	}

	n := 0
	for n < len(dst) {
		c := copy(dst[n:], w.samples[w.pos:])
		n += c
		w.pos += c
		if w.pos < len(w.samples) {
			continue
		}
		if !w.loop {
			break
		}
		w.pos = 0
	}
	return n, nil
}

func (w *WAVSource) SampleRate() int { return w.sampleRate }

// Len is the file length in samples.
func (w *WAVSource) Len() int { return len(w.samples) }

func (w *WAVSource) Close() error { return nil }
