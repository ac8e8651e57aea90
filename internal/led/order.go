// SPDX-License-Identifier: MIT
package led

import (
	"fmt"
	"strings"
)

// ColorOrder is the byte order a strip expects on the wire.
type ColorOrder uint8

const (
	OrderRGB ColorOrder = iota
	OrderRBG
	OrderGRB
	OrderGBR
	OrderBRG
	OrderBGR
)

var orderNames = [...]string{"RGB", "RBG", "GRB", "GBR", "BRG", "BGR"}

// indices[o] gives, for each wire slot, which logical channel (0=R 1=G 2=B)
// goes there.
var indices = [...][3]uint8{
	OrderRGB: {0, 1, 2},
	OrderRBG: {0, 2, 1},
	OrderGRB: {1, 0, 2},
	OrderGBR: {1, 2, 0},
	OrderBRG: {2, 0, 1},
	OrderBGR: {2, 1, 0},
}

func (o ColorOrder) String() string {
	if int(o) < len(orderNames) {
		return orderNames[o]
	}
	return fmt.Sprintf("ColorOrder(%d)", o)
}

// ParseColorOrder converts "grb", "RGB", ... to a ColorOrder.
func ParseColorOrder(s string) (ColorOrder, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range orderNames {
		if name == up {
			return ColorOrder(i), nil
		}
	}
	return OrderGRB, fmt.Errorf("unknown color order %q", s)
}

// Put writes c into dst[0:3] in wire order.
func (o ColorOrder) Put(dst []byte, c RGB) {
	ch := [3]uint8{c.R, c.G, c.B}
	idx := indices[o]
	dst[0] = ch[idx[0]]
	dst[1] = ch[idx[1]]
	dst[2] = ch[idx[2]]
}

// Get is the inverse of Put.
func (o ColorOrder) Get(src []byte) RGB {
	var ch [3]uint8
	idx := indices[o]
	ch[idx[0]] = src[0]
	ch[idx[1]] = src[1]
	ch[idx[2]] = src[2]
	return RGB{ch[0], ch[1], ch[2]}
}

// Encode scales frame by brightness/255 and writes it to dst in wire order.
// dst must hold at least 3*len(frame) bytes; the written prefix is returned.
func Encode(dst []byte, frame []RGB, brightness uint8, order ColorOrder) []byte {
	b := uint16(brightness)
	for i, px := range frame {
		scaled := RGB{
			R: uint8(uint16(px.R) * b / 255),
			G: uint8(uint16(px.G) * b / 255),
			B: uint8(uint16(px.B) * b / 255),
		}
		order.Put(dst[i*3:i*3+3], scaled)
	}
	return dst[:len(frame)*3]
}

// Decode turns wire bytes back into pixels. Used by the preview sinks.
func Decode(dst []RGB, src []byte, order ColorOrder) []RGB {
	n := len(src) / 3
	dst = dst[:0]
	for i := range n {
		dst = append(dst, order.Get(src[i*3:i*3+3]))
	}
	return dst
}
