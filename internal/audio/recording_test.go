// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"soundstrip/pkg/utils"
)

func newTestRecorder(t *testing.T, bitDepth int) *Recorder {
	t.Helper()
	r, err := NewRecorder(testSampleRate, bitDepth, testFrameSize)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRecordingStartStop(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test_recording.wav")
	r := newTestRecorder(t, 32)

	if err := r.Start(filename); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	if !r.Recording() {
		t.Error("Recorder should be in recording state")
	}
	if r.sampleBuf == nil || r.sampleBuf.Format.NumChannels != 1 {
		t.Error("Sample buffer should be initialized as mono")
	}
	outputFile := r.outputFile

	if err := r.Stop(); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}
	if r.Recording() {
		t.Error("Recorder should not be recording after Stop")
	}
	if r.outputFile != nil || r.wavEncoder != nil {
		t.Error("file and encoder should be released after Stop")
	}
	if err := outputFile.Close(); err == nil {
		t.Error("File should already be closed")
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		t.Error("Recording file was not created")
	}
}

func TestRecordingErrorCases(t *testing.T) {
	dir := t.TempDir()

	t.Run("Already recording", func(t *testing.T) {
		r := newTestRecorder(t, 16)
		if err := r.Start(filepath.Join(dir, "a.wav")); err != nil {
			t.Fatal(err)
		}
		defer r.Stop()
		err := r.Start(filepath.Join(dir, "b.wav"))
		if err == nil || !strings.Contains(err.Error(), "already recording") {
			t.Errorf("second Start = %v", err)
		}
	})

	t.Run("Invalid path", func(t *testing.T) {
		r := newTestRecorder(t, 16)
		if err := r.Start("/nonexistent/path/file.wav"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("Stop when not recording", func(t *testing.T) {
		if err := newTestRecorder(t, 16).Stop(); err != nil {
			t.Errorf("Stop = %v", err)
		}
	})

	t.Run("Bad bit depth", func(t *testing.T) {
		if _, err := NewRecorder(testSampleRate, 24, testFrameSize); err == nil {
			t.Error("expected error for 24 bit")
		}
	})
}

func TestProcessWhileStoppedIsNoop(t *testing.T) {
	r := newTestRecorder(t, 16)
	r.Process(utils.GenerateSineWave(testFrameSize, testSampleRate, 440))
	if r.written != 0 {
		t.Errorf("wrote %d samples while stopped", r.written)
	}
}

func TestRecordingPath(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	want := filepath.Join("out", "recording-20260304-050607.wav")
	if got := RecordingPath("out", ts); got != want {
		t.Errorf("RecordingPath = %q, want %q", got, want)
	}
}

// recordSine writes blocks of a sine through a Recorder and returns what was
// fed in.
func recordSine(t *testing.T, filename string, bitDepth, blocks int) []int32 {
	t.Helper()
	r := newTestRecorder(t, bitDepth)
	if err := r.Start(filename); err != nil {
		t.Fatal(err)
	}
	var fed []int32
	src := utils.GenerateSineWave(testFrameSize*blocks, testSampleRate, 440)
	for i := range blocks {
		block := src[i*testFrameSize : (i+1)*testFrameSize]
		r.Process(block)
		fed = append(fed, block...)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	return fed
}

func TestRecorderWAVRoundTrip(t *testing.T) {
	for _, depth := range []int{16, 32} {
		t.Run(fmt.Sprintf("%dbit", depth), func(t *testing.T) {
			filename := filepath.Join(t.TempDir(), "roundtrip.wav")
			fed := recordSine(t, filename, depth, 4)

			w, err := OpenWAV(filename, WAVOptions{BlockSize: testFrameSize})
			if err != nil {
				t.Fatalf("OpenWAV: %v", err)
			}
			if w.SampleRate() != testSampleRate {
				t.Errorf("SampleRate = %d", w.SampleRate())
			}
			if w.Len() != len(fed) {
				t.Fatalf("Len = %d, want %d", w.Len(), len(fed))
			}

			shift := uint(32 - depth)
			got := make([]int32, len(fed))
			if n, err := w.Read(got, 0); err != nil || n != len(fed) {
				t.Fatalf("Read = %d, %v", n, err)
			}
			for i := range fed {
				if want := fed[i] >> shift << shift; got[i] != want {
					t.Fatalf("sample %d = %d, want %d", i, got[i], want)
				}
			}

			if _, err := w.Read(got, 0); err != io.EOF {
				t.Errorf("Read past end = %v, want io.EOF", err)
			}
		})
	}
}

func BenchmarkRecorderProcess(b *testing.B) {
	r, err := NewRecorder(testSampleRate, 16, testFrameSize)
	if err != nil {
		b.Fatal(err)
	}
	if err := r.Start(filepath.Join(b.TempDir(), "bench.wav")); err != nil {
		b.Fatal(err)
	}
	defer r.Stop()
	block := utils.GenerateComplexWave(testFrameSize, testSampleRate)

	b.ReportAllocs()
	for b.Loop() {
		r.Process(block)
	}
}
