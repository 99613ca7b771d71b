// Package color converts the fixed-point HSV colors used by the lighting
// engine into the RGB triples sent to the LED string.
//
// Hue runs over six sextants of 256 steps each (0..HueMax). Saturation and
// value are full 8-bit ranges. Everything is integer arithmetic.
package color

import "fmt"

const (
	// Sextant is the number of hue steps per 60 degrees.
	Sextant = 256
	// HueRange is the size of the hue wheel; hues are taken modulo it.
	HueRange = 6 * Sextant
	// HueMax is the largest canonical hue.
	HueMax = HueRange - 1
)

// HSV is a color in the engine's fixed-point hue encoding.
type HSV struct {
	H uint16
	S uint8
	V uint8
}

// RGB is one LED's output color.
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

func (c HSV) String() string { return fmt.Sprintf("hsv(%d,%d,%d)", c.H, c.S, c.V) }

// WithV returns c with its value replaced.
func (c HSV) WithV(v uint8) HSV {
	c.V = v
	return c
}

// Hue converts degrees to the fixed-point hue encoding.
func Hue(deg int) uint16 {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return uint16(deg * Sextant / 60)
}

// AddHue rotates h by delta steps around the wheel.
func AddHue(h uint16, delta int) uint16 {
	x := (int(h) + delta) % HueRange
	if x < 0 {
		x += HueRange
	}
	return uint16(x)
}

// Scale8 scales i by scale/256.
func Scale8(i, scale uint8) uint8 {
	return uint8((uint16(i) * uint16(scale)) >> 8)
}

// HSVToRGB converts c to RGB. It is total: any hue is accepted and reduced
// onto the wheel, so h and h+HueRange give the same result.
func HSVToRGB(c HSV) RGB {
	v := c.V
	if c.S == 0 {
		return RGB{v, v, v}
	}

	var out RGB
	// hi, lo and mid point at the channel that gets the max, the min and
	// the interpolated value for this sextant.
	mid, hi, lo := &out.R, &out.G, &out.B
	sextant := (c.H >> 8) % 6
	switch sextant {
	case 0:
		mid, hi = hi, mid
	case 2:
		mid, lo = lo, mid
	case 3:
		mid, hi = hi, mid
		hi, lo = lo, hi
	case 4:
		hi, lo = lo, hi
	case 5:
		mid, hi = hi, mid
		mid, lo = lo, mid
	}

	*hi = v

	bottom := uint16(v) * uint16(255-c.S)
	bottom++
	bottom += bottom >> 8
	*lo = uint8(bottom >> 8)

	f := c.H & 0xff
	s := uint16(c.S)
	var slope uint32
	if sextant&1 == 1 {
		slope = uint32(v) * uint32(0xff00-s*f)
	} else {
		slope = uint32(v) * uint32(0xff00-s*(0x100-f))
	}
	slope += slope >> 8
	slope += uint32(v)
	*mid = uint8(slope >> 16)

	return out
}
