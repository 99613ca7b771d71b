package palette

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/coreman2200/keylight/internal/bounds"
	"github.com/coreman2200/keylight/internal/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	p := New()
	assert.Equal(t, color.Black, p.Get(int(Off)))
	assert.Equal(t, color.White, p.Get(int(On)))
	assert.Equal(t, color.Lime, p.Get(int(Forward)))
	assert.Equal(t, color.Amber, p.Get(int(Background)))
	assert.Equal(t, color.Chartreuse, p.Get(int(Desktop)))
	assert.Equal(t, color.Magenta, p.Get(int(Layer)))
	assert.Equal(t, color.Crimson, p.Get(int(Macro)))
}

func TestGetWraps(t *testing.T) {
	p := New()
	assert.Equal(t, p.Get(2), p.Get(Size+2))
	assert.Equal(t, p.Get(Size-1), p.Get(-1))
}

func TestSetBounds(t *testing.T) {
	p := New()
	green := color.HSV{H: 512, S: 255, V: 255}
	require.NoError(t, p.Set(2, green))
	assert.Equal(t, green, p.Get(2))

	before := p.All()
	err := p.Set(Size, green)
	assert.True(t, errors.Is(err, bounds.ErrOutOfRange))
	assert.Equal(t, before, p.All())
}

func TestBinaryImage(t *testing.T) {
	p := New()
	require.NoError(t, p.Set(int(Color3), color.HSV{H: 0x0123, S: 0x45, V: 0x67}))
	img, err := p.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, img, Size*SlotBytes)
	assert.Equal(t, []byte{0x01, 0x23, 0x45, 0x67}, img[int(Color3)*SlotBytes:int(Color3+1)*SlotBytes])

	q := New()
	require.NoError(t, q.UnmarshalBinary(img))
	assert.Equal(t, p.All(), q.All())

	before := q.All()
	assert.Error(t, q.UnmarshalBinary(img[:7]))
	assert.Equal(t, before, q.All())
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().Dump(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, Size)
	assert.Equal(t, "hsv 00: 0000,00,00", lines[0])
	assert.Equal(t, "hsv 01: 0000,00,ff", lines[1])
}
