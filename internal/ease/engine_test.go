package ease

import (
	"errors"
	"testing"

	"github.com/coreman2200/keylight/internal/bounds"
	"github.com/coreman2200/keylight/internal/color"
	"github.com/coreman2200/keylight/internal/layout"
	"github.com/coreman2200/keylight/internal/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls int
	last  []color.RGB
}

func (r *recorder) Render(frame []color.RGB) {
	r.calls++
	r.last = append(r.last[:0], frame...)
}

var green = color.HSV{H: color.Hue(120), S: 255, V: 255}

func newEngine() (*Engine, *recorder) {
	rec := &recorder{}
	return NewEngine(layout.Default, palette.New(), rec), rec
}

func advance(e *Engine, n int) {
	for i := 0; i < n; i++ {
		e.Advance()
	}
}

func mode(t *testing.T, e *Engine, id int) State {
	t.Helper()
	st, err := e.State(id)
	require.NoError(t, err)
	return st
}

func TestInOutQuad(t *testing.T) {
	assert.Equal(t, uint8(0), InOutQuad(0))
	assert.Equal(t, uint8(255), InOutQuad(255))
	prev := uint8(0)
	for i := 0; i < 256; i++ {
		v := InOutQuad(uint8(i))
		if v < prev {
			t.Fatalf("curve not monotonic at %d: %d < %d", i, v, prev)
		}
		prev = v
	}
}

func TestIdleKeyLeavesFrameAlone(t *testing.T) {
	e, _ := newEngine()
	require.NoError(t, e.Set(7, green, ColorHold, 0, 0))
	advance(e, 255)
	want := e.Frame()[7]
	assert.Equal(t, color.RGB{R: 0, G: 255, B: 0}, want)
	assert.Equal(t, Idle, mode(t, e, 7).Mode)

	advance(e, 1000)
	assert.Equal(t, want, e.Frame()[7])
	assert.Equal(t, color.RGB{}, e.Frame()[8])
}

func TestColorHoldTerminates(t *testing.T) {
	e, _ := newEngine()
	require.NoError(t, e.Set(12, green, ColorHold, 0, 0))
	for i := 1; i < 255; i++ {
		e.Advance()
		if m := mode(t, e, 12).Mode; m != ColorHold {
			t.Fatalf("tick %d: mode %v, want hold", i, m)
		}
	}
	e.Advance()
	assert.Equal(t, Idle, mode(t, e, 12).Mode)
	assert.Equal(t, color.RGB{R: 0, G: 255, B: 0}, e.Frame()[12])
}

func TestColorFlashRounds(t *testing.T) {
	e, _ := newEngine()
	require.NoError(t, e.Set(3, color.Red, ColorFlash, 0, 0))

	ticks := 0
	last := uint8(0)
	peak := uint8(0)
	for mode(t, e, 3).Mode == ColorFlash {
		e.Advance()
		ticks++
		st := mode(t, e, 3)
		if st.Round < last || st.Round > 2 {
			t.Fatalf("tick %d: round went %d -> %d", ticks, last, st.Round)
		}
		last = st.Round
		if r := e.Frame()[3].R; r > peak {
			peak = r
		}
		if ticks > 1000 {
			t.Fatal("flash never finished")
		}
	}
	assert.Equal(t, FlashTicks, ticks)
	assert.Equal(t, 171, ticks)
	assert.Equal(t, uint8(2), last)
	assert.Greater(t, peak, uint8(200))
	assert.Equal(t, color.RGB{}, e.Frame()[3])
}

func TestColorFlashingRepeats(t *testing.T) {
	e, _ := newEngine()
	require.NoError(t, e.Set(3, color.Red, ColorFlashing, 0, 0))
	for i := 0; i < 1000; i++ {
		e.Advance()
		st := mode(t, e, 3)
		require.Equal(t, ColorFlashing, st.Mode)
		require.LessOrEqual(t, st.Round, uint8(1))
	}
}

func TestDimAndBrighten(t *testing.T) {
	e, _ := newEngine()
	require.NoError(t, e.Set(0, color.White, Dim, 0, 0))
	require.NoError(t, e.Set(1, color.White, Brighten, 0, 0))
	advance(e, 254)
	assert.Equal(t, Dim, mode(t, e, 0).Mode)
	assert.Equal(t, Brighten, mode(t, e, 1).Mode)
	e.Advance()
	assert.Equal(t, Idle, mode(t, e, 0).Mode)
	assert.Equal(t, Idle, mode(t, e, 1).Mode)
	assert.Equal(t, color.RGB{}, e.Frame()[0])
	assert.Equal(t, color.RGB{R: 255, G: 255, B: 255}, e.Frame()[1])
}

func TestRainbowThenDim(t *testing.T) {
	e, _ := newEngine()
	require.NoError(t, e.Set(0, color.Red, RainbowThenDim, 0, 2))
	e.Advance()
	assert.Equal(t, uint16(RainbowHueStep), mode(t, e, 0).Target.H)
	advance(e, 508)
	assert.Equal(t, RainbowThenDim, mode(t, e, 0).Mode)
	e.Advance()
	st := mode(t, e, 0)
	assert.Equal(t, Dim, st.Mode)
	assert.Equal(t, uint8(0), st.Step)
	assert.Less(t, st.Target.H, uint16(color.HueRange))
}

func TestSlowRainbow(t *testing.T) {
	e, _ := newEngine()
	require.NoError(t, e.Set(4, color.Red, SlowRainbow, 0, 0))
	advance(e, SlowRainbowDivisor-1)
	assert.Equal(t, uint16(0), mode(t, e, 4).Target.H)
	e.Advance()
	assert.Equal(t, uint16(1), mode(t, e, 4).Target.H)
	advance(e, 10*SlowRainbowDivisor)
	st := mode(t, e, 4)
	assert.Equal(t, SlowRainbow, st.Mode)
	assert.Equal(t, uint16(11), st.Target.H)
}

func TestIdleBacklightFallsBackToBackground(t *testing.T) {
	e, _ := newEngine()
	first, _ := layout.Default.BacklightRange()
	e.SetIntensity(255)
	e.Advance()

	st := mode(t, e, first)
	assert.Equal(t, Backlight, st.Mode)
	bg := palette.Defaults[palette.Background]
	assert.Equal(t, bg, st.Target)
	assert.Equal(t, color.HSVToRGB(bg.WithV(color.Scale8(bg.V, 255))), e.Frame()[first])

	e.SetIntensity(0)
	e.Advance()
	assert.Equal(t, color.RGB{}, e.Frame()[first])
}

func TestOverrideIsUntouched(t *testing.T) {
	e, _ := newEngine()
	require.NoError(t, e.SetRaw(5, color.RGB{R: 1, G: 2, B: 3}))
	require.NoError(t, e.SetRaw(30, color.RGB{R: 4, G: 5, B: 6}))
	advance(e, 50)
	assert.Equal(t, color.RGB{R: 1, G: 2, B: 3}, e.Frame()[5])
	assert.Equal(t, color.RGB{R: 4, G: 5, B: 6}, e.Frame()[30])
	assert.Equal(t, Override, mode(t, e, 30).Mode)
}

func TestRenderOncePerTick(t *testing.T) {
	e, rec := newEngine()
	require.NoError(t, e.Set(0, green, ColorHold, 0, 0))
	advance(e, 255)
	assert.Equal(t, 255, rec.calls)
	assert.Equal(t, uint32(255), e.Ticks())
	assert.Equal(t, color.RGB{R: 0, G: 255, B: 0}, rec.last[0])
}

func TestSetRejectsOutOfRange(t *testing.T) {
	e, _ := newEngine()
	assert.True(t, errors.Is(e.Set(e.Count(), green, ColorHold, 0, 0), bounds.ErrOutOfRange))
	assert.True(t, errors.Is(e.Set(-1, green, ColorHold, 0, 0), bounds.ErrOutOfRange))
	assert.True(t, errors.Is(e.Set(0, green, Mode(99), 0, 0), bounds.ErrOutOfRange))
	assert.True(t, errors.Is(e.SetRaw(99, color.RGB{}), bounds.ErrOutOfRange))
	assert.Equal(t, Idle, mode(t, e, 0).Mode)
}

func TestSetPreempts(t *testing.T) {
	e, _ := newEngine()
	require.NoError(t, e.Set(2, color.Red, ColorFlashing, 0, 0))
	advance(e, 10)
	require.NoError(t, e.Set(2, green, ColorHold, 0x80, 0))
	st := mode(t, e, 2)
	assert.Equal(t, State{Target: green, Mode: ColorHold, Step: 0x80}, st)
}

func TestRotateIsRateLimited(t *testing.T) {
	e, _ := newEngine()
	first, _ := layout.Default.BacklightRange()

	assert.True(t, e.Rotate(1))
	st := mode(t, e, first+1)
	assert.Equal(t, ColorFlash, st.Mode)
	assert.Equal(t, palette.Defaults[palette.Forward], st.Target)

	assert.False(t, e.Rotate(1))
	advance(e, RotateInterval-1)
	assert.False(t, e.Rotate(-1))
	e.Advance()
	assert.True(t, e.Rotate(-1))
	st = mode(t, e, first)
	assert.Equal(t, ColorFlash, st.Mode)
	assert.Equal(t, palette.Defaults[palette.Backward], st.Target)
}

func TestRainbowAndDimAll(t *testing.T) {
	e, _ := newEngine()
	e.Rainbow(1)
	prev := -1
	for i := 0; i < e.Count(); i++ {
		st := mode(t, e, i)
		require.Equal(t, RainbowThenDim, st.Mode)
		require.Greater(t, int(st.Target.H), prev)
		prev = int(st.Target.H)
	}

	e2, _ := newEngine()
	first, _ := layout.Default.BacklightRange()
	require.NoError(t, e2.SetRaw(1, color.RGB{R: 9, G: 9, B: 9}))
	require.NoError(t, e2.Set(2, green, SlowRainbow, 0, 0))
	e2.Advance()
	e2.DimAll()
	assert.Equal(t, Override, mode(t, e2, 1).Mode)
	assert.Equal(t, Dim, mode(t, e2, 2).Mode)
	assert.Equal(t, Idle, mode(t, e2, 3).Mode)
	assert.Equal(t, Dim, mode(t, e2, first).Mode)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("hold")
	require.NoError(t, err)
	assert.Equal(t, ColorHold, m)
	m, err = ParseMode("2")
	require.NoError(t, err)
	assert.Equal(t, ColorFlashing, m)
	_, err = ParseMode("sparkle")
	assert.True(t, errors.Is(err, bounds.ErrOutOfRange))
	_, err = ParseMode("42")
	assert.True(t, errors.Is(err, bounds.ErrOutOfRange))
	assert.Equal(t, "rainbow", RainbowThenDim.String())
}
