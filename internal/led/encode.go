package led

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/keylight/internal/color"
)

/*
One-wire SK6812/WS2812 over a shift peripheral.

Each source bit becomes three line bits: high, data, low. So a short pulse
(100) is a zero and a long pulse (110) is a one. A channel byte becomes 24
line bits (3 bytes), a pixel is sent G, R, B, so 9 bytes per LED.

The high and low slots never change. They are written once when a buffer is
created and Render only rewrites the data slots.
*/

const (
	ChannelBytes = 3
	PixelBytes   = 3 * ChannelBytes

	// BitClock is the line bit rate; three line bits make one 1.33us LED bit.
	BitClock = 2250 * physic.KiloHertz

	ResetPulseNS = 80000
	BitNS        = 444
	// ResetPulseBytes zero bytes hold the line low long enough to latch.
	ResetPulseBytes = ResetPulseNS / BitNS
)

var (
	presetBits = [ChannelBytes]byte{0x92, 0x49, 0x24}
	dataBits   = [ChannelBytes]byte{0x49, 0x24, 0x92}

	// dataLUT holds only the data slots for each channel value.
	dataLUT [256][ChannelBytes]byte
)

func init() {
	// Build LUT: for each input byte, place bit k (MSB first) in the middle
	// slot of the k-th triplet.
	for v := 0; v < 256; v++ {
		out := uint32(0)
		for i := 7; i >= 0; i-- {
			out = out<<3 | uint32((v>>i)&1)<<1
		}
		dataLUT[v] = [ChannelBytes]byte{byte(out >> 16), byte(out >> 8), byte(out)}
	}
}

// Expand returns the 24 line bits for one channel byte, presets included.
func Expand(v uint8) uint32 {
	d := dataLUT[v]
	p := presetBits
	return uint32(p[0]|d[0])<<16 | uint32(p[1]|d[1])<<8 | uint32(p[2]|d[2])
}

// BufferSize is the encoded length of n pixels.
func BufferSize(n int) int { return n * PixelBytes }

// NewBuffer returns an encoded all-off frame of n pixels.
func NewBuffer(n int) []byte {
	buf := make([]byte, BufferSize(n))
	for i := range buf {
		buf[i] = presetBits[i%ChannelBytes]
	}
	return buf
}

// encodeData rewrites only the data slots of dst, which must already hold
// the preset pattern.
func encodeData(dst []byte, frame []color.RGB) {
	for i, px := range frame {
		off := i * PixelBytes
		if off+PixelBytes > len(dst) {
			return
		}
		for ch, v := range [3]uint8{px.G, px.R, px.B} {
			o := off + ch*ChannelBytes
			d := &dataLUT[v]
			for k := 0; k < ChannelBytes; k++ {
				dst[o+k] = dst[o+k]&^dataBits[k] | d[k]
			}
		}
	}
}

// Encode writes frame into dst in full, presets included.
func Encode(dst []byte, frame []color.RGB) error {
	if len(dst) < BufferSize(len(frame)) {
		return fmt.Errorf("encode: buffer %d bytes, need %d", len(dst), BufferSize(len(frame)))
	}
	for i := 0; i < BufferSize(len(frame)); i++ {
		dst[i] = presetBits[i%ChannelBytes]
	}
	encodeData(dst, frame)
	return nil
}

// Decode is the inverse of Encode. It fails when the fixed slots do not hold
// the preset pattern.
func Decode(src []byte) ([]color.RGB, error) {
	if len(src)%PixelBytes != 0 {
		return nil, fmt.Errorf("decode: %d bytes is not a whole number of pixels", len(src))
	}
	for i, b := range src {
		k := i % ChannelBytes
		if b&^dataBits[k] != presetBits[k] {
			return nil, fmt.Errorf("decode: byte %d (%#02x) breaks the line pattern", i, b)
		}
	}
	out := make([]color.RGB, len(src)/PixelBytes)
	for i := range out {
		var ch [3]uint8
		for c := range ch {
			o := i*PixelBytes + c*ChannelBytes
			w := uint32(src[o])<<16 | uint32(src[o+1])<<8 | uint32(src[o+2])
			var v uint8
			for bit := 7; bit >= 0; bit-- {
				v = v<<1 | uint8(w>>(uint(bit)*3+1)&1)
			}
			ch[c] = v
		}
		out[i] = color.RGB{G: ch[0], R: ch[1], B: ch[2]}
	}
	return out, nil
}

// TransferTime is how long n bytes take on the wire at clock f.
func TransferTime(n int, f physic.Frequency) time.Duration {
	return time.Duration(n*8) * f.Period()
}
