// SPDX-License-Identifier: MIT
//
// Package led holds the pixel type shared by effects and the renderer, the
// wire encoding for addressable strips, and the sinks that carry an encoded
// frame to hardware (or to something pretending to be hardware).
package led

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is one pixel in logical (not wire) order.
type RGB struct {
	R, G, B uint8
}

var (
	Black = RGB{}
	White = RGB{255, 255, 255}
)

// Scale multiplies every channel by f, truncating toward zero. f is clamped
// to [0, 1].
func (c RGB) Scale(f float64) RGB {
	if f <= 0 {
		return Black
	}
	if f >= 1 {
		return c
	}
	return RGB{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
	}
}

// Dim applies the integer fade n/256 used by the trail effects.
func (c RGB) Dim(n uint16) RGB {
	return RGB{
		R: uint8(uint16(c.R) * n / 256),
		G: uint8(uint16(c.G) * n / 256),
		B: uint8(uint16(c.B) * n / 256),
	}
}

// Add sums two colors channel by channel, saturating at 255.
func (c RGB) Add(o RGB) RGB {
	return RGB{R: addSat(c.R, o.R), G: addSat(c.G, o.G), B: addSat(c.B, o.B)}
}

// Max keeps the brighter value of each channel.
func (c RGB) Max(o RGB) RGB {
	return RGB{R: max(c.R, o.R), G: max(c.G, o.G), B: max(c.B, o.B)}
}

// Hex formats the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c RGB) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.R, c.G, c.B)
}

func addSat(a, b uint8) uint8 {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}

// HSV converts hue (degrees, any range) and saturation/value in [0, 1].
func HSV(h, s, v float64) RGB {
	for h < 0 {
		h += 360
	}
	for h >= 360 {
		h -= 360
	}
	r, g, b := colorful.Hsv(h, s, v).Clamped().RGB255()
	return RGB{r, g, b}
}

// ParseRGB accepts "#rrggbb", "rrggbb" or "r,g,b".
func ParseRGB(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return Black, fmt.Errorf("color %q: want three components", s)
		}
		var out [3]uint8
		for i, p := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return Black, fmt.Errorf("color %q: %w", s, err)
			}
			out[i] = uint8(n)
		}
		return RGB{out[0], out[1], out[2]}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 6 {
		c, err := colorful.Hex("#" + hex)
		if err != nil {
			return Black, fmt.Errorf("color %q: %w", s, err)
		}
		r, g, b := c.RGB255()
		return RGB{r, g, b}, nil
	}
	return Black, fmt.Errorf("color %q: unrecognised format", s)
}

// Fill sets every pixel to c.
func Fill(buf []RGB, c RGB) {
	for i := range buf {
		buf[i] = c
	}
}

// Dim fades the whole buffer by n/256.
func Dim(buf []RGB, n uint16) {
	for i := range buf {
		buf[i] = buf[i].Dim(n)
	}
}

// ScaleAll fades the whole buffer by f.
func ScaleAll(buf []RGB, f float64) {
	for i := range buf {
		buf[i] = buf[i].Scale(f)
	}
}
