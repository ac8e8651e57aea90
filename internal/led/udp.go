// SPDX-License-Identifier: MIT
package led

import (
	"net"
	"strconv"

	"soundstrip/internal/transport/udp"
)

// WLED realtime UDP protocol (port 21324). DRGB carries up to 490 pixels
// from index 0; DNRGB carries up to 489 pixels from a 16-bit start index.
const (
	WLEDPort = 21324

	wledDRGB      = 2
	wledDNRGB     = 4
	wledMaxDRGB   = 490
	wledMaxDNRGB  = 489
	wledDNRGBHead = 4
)

// UDPSink drives a WLED controller in realtime mode. Frames must be in RGB
// wire order. Timeout is the number of seconds WLED waits after the last
// packet before returning to its own effects (255 = never).
type UDPSink struct {
	sender  *udp.Sender
	timeout byte
	packet  []byte
}

// DialWLED connects to a WLED device at addr ("host" or "host:port").
func DialWLED(addr string, timeout byte) (*UDPSink, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(WLEDPort))
	}
	s, err := udp.NewSender(addr)
	if err != nil {
		return nil, err
	}
	return NewUDPSink(s, timeout), nil
}

// NewUDPSink wraps an existing sender.
func NewUDPSink(sender *udp.Sender, timeout byte) *UDPSink {
	return &UDPSink{
		sender:  sender,
		timeout: timeout,
		packet:  make([]byte, 0, wledDNRGBHead+wledMaxDNRGB*3),
	}
}

// Write sends the frame as one DRGB packet when it fits, otherwise as a run
// of DNRGB packets.
func (u *UDPSink) Write(frame []byte) error {
	pixels := len(frame) / 3
	if pixels <= wledMaxDRGB {
		u.packet = append(u.packet[:0], wledDRGB, u.timeout)
		u.packet = append(u.packet, frame[:pixels*3]...)
		return u.sender.Send(u.packet)
	}

	for start := 0; start < pixels; start += wledMaxDNRGB {
		end := min(start+wledMaxDNRGB, pixels)
		u.packet = append(u.packet[:0], wledDNRGB, u.timeout, byte(start>>8), byte(start))
		u.packet = append(u.packet, frame[start*3:end*3]...)
		if err := u.sender.Send(u.packet); err != nil {
			return err
		}
	}
	return nil
}

func (u *UDPSink) Close() error {
	return u.sender.Close()
}

var _ Sink = (*UDPSink)(nil)
