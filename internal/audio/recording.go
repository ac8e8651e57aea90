// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"soundstrip/internal/analysis"
	applog "soundstrip/internal/log"
)

// Recorder writes every processed block to a mono WAV file. It sits next to
// the extractor in the engine so a session can be replayed with WAVSource.
type Recorder struct {
	sampleRate int
	bitDepth   int
	blockSize  int

	isRecording atomic.Bool
	mu          sync.Mutex
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // reusable conversion buffer
	written     int
}

var _ analysis.ClosableProcessor = (*Recorder)(nil)

// NewRecorder supports 16 and 32 bit output.
func NewRecorder(sampleRate, bitDepth, blockSize int) (*Recorder, error) {
	if bitDepth != 16 && bitDepth != 32 {
		return nil, fmt.Errorf("recorder: unsupported bit depth %d", bitDepth)
	}
	if sampleRate <= 0 || blockSize <= 0 {
		return nil, fmt.Errorf("recorder: invalid rate %d or block size %d", sampleRate, blockSize)
	}
	return &Recorder{sampleRate: sampleRate, bitDepth: bitDepth, blockSize: blockSize}, nil
}

// RecordingPath builds a timestamped file name inside dir.
func RecordingPath(dir string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("recording-%s.wav", t.Format("20060102-150405")))
}

func (r *Recorder) Start(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRecording.Load() {
		return fmt.Errorf("already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	r.outputFile = file
	r.wavEncoder = wav.NewEncoder(file, r.sampleRate, r.bitDepth, 1, 1)
	r.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  r.sampleRate,
		},
		SourceBitDepth: r.bitDepth,
		Data:           make([]int, r.blockSize),
	}
	r.written = 0
	r.isRecording.Store(true)

	applog.Infof("Recorder: writing %s (%d Hz, %d bit)", filename, r.sampleRate, r.bitDepth)
	return nil
}

// Process appends block to the open file. It is a no-op while stopped.
func (r *Recorder) Process(block []int32) {
	if !r.isRecording.Load() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wavEncoder == nil {
		return
	}

	shift := uint(32 - r.bitDepth)
	for len(block) > 0 {
		n := min(len(block), cap(r.sampleBuf.Data))
		r.sampleBuf.Data = r.sampleBuf.Data[:n]
		for i, s := range block[:n] {
			r.sampleBuf.Data[i] = int(s >> shift)
		}
		if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
			applog.Errorf("Recorder: write failed: %v", err)
			return
		}
		r.written += n
		block = block[n:]
	}
}

func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRecording.Load() {
		return nil
	}
	r.isRecording.Store(false)

	if r.wavEncoder != nil {
		if err := r.wavEncoder.Close(); err != nil {
			return err
		}
		r.wavEncoder = nil
	}
	if r.outputFile != nil {
		if err := r.outputFile.Close(); err != nil {
			return err
		}
		r.outputFile = nil
	}

	applog.Infof("Recorder: stopped after %.1fs", float64(r.written)/float64(r.sampleRate))
	return nil
}

func (r *Recorder) Recording() bool { return r.isRecording.Load() }

func (r *Recorder) Close() error { return r.Stop() }
