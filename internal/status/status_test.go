package status

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/coreman2200/keylight/internal/bounds"
	"github.com/coreman2200/keylight/internal/color"
	"github.com/coreman2200/keylight/internal/ease"
	"github.com/coreman2200/keylight/internal/layout"
	"github.com/coreman2200/keylight/internal/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	target color.HSV
	mode   ease.Mode
	step   uint8
}

type fakeSetter map[int]call

func (f fakeSetter) Set(id int, target color.HSV, mode ease.Mode, step, round uint8) error {
	f[id] = call{target, mode, step}
	return nil
}

func newDisplay() (*Display, fakeSetter, *palette.Palette) {
	out := fakeSetter{}
	pal := palette.New()
	return New(layout.Default, pal, out), out, pal
}

func led(r, c int) int {
	id, _ := layout.Default.Index(r, c)
	return id
}

func TestMuteColors(t *testing.T) {
	tests := []struct {
		mute, mic bool
		want      color.HSV
	}{
		{true, true, color.Red},
		{false, true, color.Magenta},
		{true, false, color.Yellow},
		{false, false, color.Green},
	}
	for _, tc := range tests {
		d, out, _ := newDisplay()
		d.SetMute(tc.mute)
		d.SetMicMute(tc.mic)
		got := out[led(0, 4)]
		assert.Equal(t, call{tc.want, ease.ColorHold, StepFast}, got, "mute=%v mic=%v", tc.mute, tc.mic)
	}
}

func TestApplyOnlyTouchesKind(t *testing.T) {
	d, out, _ := newDisplay()
	d.SetMute(true)
	assert.Len(t, out, 1)
	d.SetVolume(0)
	assert.Len(t, out, 6)
}

func TestVolumeHue(t *testing.T) {
	assert.Equal(t, uint16(512), VolumeHue(0))
	assert.Equal(t, uint16(0), VolumeHue(MaxVolume))
	assert.Equal(t, uint16(257), VolumeHue(0x7fff))

	d, out, _ := newDisplay()
	d.SetVolume(MaxVolume)
	got := out[led(2, 0)]
	assert.Equal(t, uint16(0), got.target.H)
	assert.Equal(t, ease.ColorHold, got.mode)
}

func TestDesktopCyclesScreens(t *testing.T) {
	d, out, pal := newDisplay()
	require.NoError(t, d.SetDesktop(1, 2))
	require.NoError(t, d.SetDesktop(2, 4))

	assert.Equal(t, pal.Get(int(palette.Desktop)+2), out[led(0, 0)].target)
	assert.Equal(t, pal.Get(int(palette.Desktop)+4), out[led(0, 1)].target)
	assert.Equal(t, pal.Get(int(palette.Desktop)+2), out[led(0, 2)].target)

	require.NoError(t, d.SetDesktop(0, 1))
	assert.Equal(t, pal.Get(int(palette.Desktop)+1), out[led(0, 1)].target)

	assert.True(t, errors.Is(d.SetDesktop(3, 0), bounds.ErrOutOfRange))
}

func TestLayer(t *testing.T) {
	d, out, pal := newDisplay()
	require.NoError(t, d.SetLayer(2))
	assert.Equal(t, 2, d.CurrentLayer())
	assert.Equal(t, pal.Get(int(palette.Layer)+2), out[led(4, 0)].target)
	assert.True(t, errors.Is(d.SetLayer(Layers), bounds.ErrOutOfRange))
	assert.Equal(t, 2, d.CurrentLayer())
}

func TestSetLight(t *testing.T) {
	d, out, _ := newDisplay()
	require.NoError(t, d.SetLight(0, 3, 3, Mute))
	assert.Equal(t, Mute, d.Light(0, 3, 3))
	assert.Equal(t, Macro, d.Light(1, 3, 3))
	d.SetMute(true)
	assert.Contains(t, out, led(3, 3))

	assert.True(t, errors.Is(d.SetLight(3, 0, 0, Mute), bounds.ErrOutOfRange))
	assert.True(t, errors.Is(d.SetLight(0, 5, 0, Mute), bounds.ErrOutOfRange))
	assert.True(t, errors.Is(d.SetLight(0, 0, 0, Kind('x')), bounds.ErrOutOfRange))
}

func TestDump(t *testing.T) {
	d, _, _ := newDisplay()
	var buf bytes.Buffer
	require.NoError(t, d.Dump(&buf))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, Layers*6)
	assert.Equal(t, "layer 00", lines[0])
	assert.Equal(t, "row 00: D D D D M ", lines[1])
	assert.Equal(t, "row 04: L L D D B ", lines[5])
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestDumpReportsWriteError(t *testing.T) {
	d, _, _ := newDisplay()
	assert.EqualError(t, d.Dump(brokenWriter{}), "disk full")
}
