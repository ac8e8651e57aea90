// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"soundstrip/internal/analysis"
	applog "soundstrip/internal/log"
)

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Value Count       | uint16         | 2            | Number of floats (N)    |
| Values            | []float32      | N * 4        | Snapshot fields         |
+-----------------------------------------------------------------------------+

Values are, in order: volume, bass, mid, treble, peak frequency (Hz), then
the analysis.NumBins spectrum bins.
*/

const (
	HeaderSize    = 4 + 8 + 2
	SnapshotCount = 5 + analysis.NumBins
	PacketSize    = HeaderSize + SnapshotCount*4
)

// SnapshotTransport encodes analysis snapshots into the packet format above
// and sends them with a Sender. Only one goroutine may call Send.
type SnapshotTransport struct {
	sender      *Sender
	sequenceNum uint32
	packet      []byte // reused for every packet
	now         func() time.Time
}

func NewSnapshotTransport(sender *Sender) (*SnapshotTransport, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	applog.Infof("UDPPublisher: Publishing snapshots to %s (%d bytes/packet)", sender.Target(), PacketSize)
	return &SnapshotTransport{
		sender: sender,
		packet: make([]byte, 0, PacketSize),
		now:    time.Now,
	}, nil
}

// Send accepts an analysis.Snapshot or *analysis.Snapshot.
func (t *SnapshotTransport) Send(data any) error {
	var snap analysis.Snapshot
	switch v := data.(type) {
	case analysis.Snapshot:
		snap = v
	case *analysis.Snapshot:
		snap = *v
	default:
		return fmt.Errorf("UDPPublisher: cannot send %T", data)
	}

	t.sequenceNum++
	t.packet = AppendSnapshot(t.packet[:0], t.sequenceNum, t.now().UnixNano(), snap)
	if err := t.sender.Send(t.packet); err != nil {
		return err
	}
	applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", t.sequenceNum, len(t.packet))
	return nil
}

func (t *SnapshotTransport) Close() error {
	return t.sender.Close()
}

// AppendSnapshot appends one encoded packet to dst.
func AppendSnapshot(dst []byte, seq uint32, timestamp int64, s analysis.Snapshot) []byte {
	dst = binary.BigEndian.AppendUint32(dst, seq)
	dst = binary.BigEndian.AppendUint64(dst, uint64(timestamp))
	dst = binary.BigEndian.AppendUint16(dst, SnapshotCount)

	dst = appendFloat(dst, s.Volume)
	dst = appendFloat(dst, s.Bass)
	dst = appendFloat(dst, s.Mid)
	dst = appendFloat(dst, s.Treble)
	dst = appendFloat(dst, s.PeakFrequency)
	for _, b := range s.Bins {
		dst = appendFloat(dst, b)
	}
	return dst
}

func appendFloat(dst []byte, v float64) []byte {
	return binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(v)))
}

// DecodeSnapshot parses a packet produced by AppendSnapshot.
func DecodeSnapshot(p []byte) (seq uint32, timestamp int64, s analysis.Snapshot, err error) {
	if len(p) < HeaderSize {
		return 0, 0, s, fmt.Errorf("packet too short: %d bytes", len(p))
	}
	seq = binary.BigEndian.Uint32(p)
	timestamp = int64(binary.BigEndian.Uint64(p[4:]))
	n := int(binary.BigEndian.Uint16(p[12:]))
	if n != SnapshotCount || len(p) != HeaderSize+n*4 {
		return 0, 0, s, fmt.Errorf("packet carries %d values in %d bytes", n, len(p))
	}

	off := HeaderSize
	get := func() float64 {
		v := math.Float32frombits(binary.BigEndian.Uint32(p[off:]))
		off += 4
		return float64(v)
	}
	s.Volume = get()
	s.Bass = get()
	s.Mid = get()
	s.Treble = get()
	s.PeakFrequency = get()
	for i := range s.Bins {
		s.Bins[i] = get()
	}
	return seq, timestamp, s, nil
}
