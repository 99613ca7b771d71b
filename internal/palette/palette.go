// Package palette holds the runtime-mutable set of named colors that action
// entries and status indicators refer to by index.
package palette

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/coreman2200/keylight/internal/bounds"
	"github.com/coreman2200/keylight/internal/color"
)

// Slot names a palette entry.
type Slot uint8

const (
	Off Slot = iota
	On
	Forward
	Backward
	Background
	Color1
	Color2
	Color3
	Color4
	Color5
	Color6
	Color7
	Color8
	Color9
	Color10

	Size = int(Color10) + 1

	Desktop = Color1
	Layer   = Color6
	Macro   = Color10
)

// SlotBytes is the size of one slot in the flat image.
const SlotBytes = 4

// Defaults is the factory palette.
var Defaults = [Size]color.HSV{
	color.Black,
	color.White,
	color.Lime,
	color.Vermilion,
	color.Amber,
	color.Chartreuse,
	color.Yellow,
	color.Rose,
	color.Violet,
	color.Azure,
	color.Magenta,
	color.Volta,
	color.Cyan,
	color.Spring,
	color.Crimson,
}

// Palette stores each slot in one atomic word so a reader on the tick never
// sees half of an update.
type Palette struct {
	slots [Size]atomic.Uint32
}

func New() *Palette {
	p := &Palette{}
	p.Reset()
	return p
}

func pack(c color.HSV) uint32 {
	return uint32(c.H)<<16 | uint32(c.S)<<8 | uint32(c.V)
}

func unpack(w uint32) color.HSV {
	return color.HSV{H: uint16(w >> 16), S: uint8(w >> 8), V: uint8(w)}
}

// Reset restores the factory colors.
func (p *Palette) Reset() {
	for i, c := range Defaults {
		p.slots[i].Store(pack(c))
	}
}

// Get returns the color in slot i. Indices wrap around the palette.
func (p *Palette) Get(i int) color.HSV {
	i %= Size
	if i < 0 {
		i += Size
	}
	return unpack(p.slots[i].Load())
}

// Set replaces slot i. Out of range indices are rejected.
func (p *Palette) Set(i int, c color.HSV) error {
	if err := bounds.Check("palette color", i, Size); err != nil {
		return err
	}
	p.slots[i].Store(pack(c))
	return nil
}

// All returns a copy of every slot.
func (p *Palette) All() [Size]color.HSV {
	var out [Size]color.HSV
	for i := range out {
		out[i] = unpack(p.slots[i].Load())
	}
	return out
}

// Dump writes one line per slot.
func (p *Palette) Dump(w io.Writer) error {
	for i, c := range p.All() {
		if _, err := fmt.Fprintf(w, "hsv %02x: %04x,%02x,%02x\n", i, c.H, c.S, c.V); err != nil {
			return err
		}
	}
	return nil
}

func (p *Palette) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, Size*SlotBytes)
	for _, c := range p.All() {
		out = append(out, byte(c.H>>8), byte(c.H), c.S, c.V)
	}
	return out, nil
}

// UnmarshalBinary replaces every slot. The image must be exactly
// Size*SlotBytes long; nothing changes otherwise.
func (p *Palette) UnmarshalBinary(b []byte) error {
	if len(b) != Size*SlotBytes {
		return fmt.Errorf("palette image is %d bytes, want %d: %w", len(b), Size*SlotBytes, bounds.ErrOutOfRange)
	}
	for i := 0; i < Size; i++ {
		o := i * SlotBytes
		p.slots[i].Store(pack(color.HSV{
			H: uint16(b[o])<<8 | uint16(b[o+1]),
			S: b[o+2],
			V: b[o+3],
		}))
	}
	return nil
}
