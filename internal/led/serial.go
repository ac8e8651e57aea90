// SPDX-License-Identifier: MIT
package led

import (
	"fmt"
	"io"
	"sync"

	applog "soundstrip/internal/log"

	serial "github.com/tarm/goserial"
)

// AdalightHeader builds the 6-byte Adalight preamble for a strip of n LEDs:
// "Ada", count-1 as big-endian uint16, and a checksum of hi^lo^0x55.
func AdalightHeader(n int) [6]byte {
	count := uint16(max(n, 1) - 1)
	hi, lo := byte(count>>8), byte(count)
	return [6]byte{'A', 'd', 'a', hi, lo, hi ^ lo ^ 0x55}
}

// SerialSink streams frames to a microcontroller running an Adalight
// sketch (FastLED / NeoPixel bridge) over a serial port.
type SerialSink struct {
	port   io.WriteCloser
	header [6]byte
	packet []byte

	mu     sync.Mutex
	closed bool
}

// OpenSerial opens name at baud and returns a sink for numLEDs pixels.
func OpenSerial(name string, baud, numLEDs int) (*SerialSink, error) {
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	applog.Infof("SerialSink: Opened %s at %d baud (%d LEDs)", name, baud, numLEDs)
	return NewSerialSink(port, numLEDs), nil
}

// NewSerialSink wraps an already-open port.
func NewSerialSink(port io.WriteCloser, numLEDs int) *SerialSink {
	h := AdalightHeader(numLEDs)
	packet := make([]byte, len(h), len(h)+numLEDs*3)
	copy(packet, h[:])
	return &SerialSink{port: port, header: h, packet: packet}
}

// Write sends header+frame in a single port write.
func (s *SerialSink) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.packet = append(s.packet[:len(s.header)], frame...)
	if _, err := s.port.Write(s.packet); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

func (s *SerialSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}

var _ Sink = (*SerialSink)(nil)
