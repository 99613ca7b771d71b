// Package ease runs the per-LED animation state machine. Every tick each LED
// advances one step of its current mode and its color is written into the
// frame, which is then handed to the renderer.
package ease

import (
	"sync"
	"sync/atomic"

	"github.com/coreman2200/keylight/internal/bounds"
	"github.com/coreman2200/keylight/internal/color"
	"github.com/coreman2200/keylight/internal/layout"
	"github.com/coreman2200/keylight/internal/palette"
)

const (
	StepLast = 0xff

	// FlashSpeed is the per-tick step of ColorFlash and ColorFlashing.
	FlashSpeed = 3
	// FlashTicks is how long a ColorFlash started at step 0 runs before it
	// is back to Idle.
	FlashTicks = 2*(StepLast/FlashSpeed) + 1

	RainbowHueStep     = 3
	SlowRainbowHueStep = 1
	SlowRainbowDivisor = 16

	// RotateInterval is the minimum number of ticks between two rotation
	// indicator steps.
	RotateInterval = 60

	DefaultIntensity = 0x80
)

// State is one LED's animation record.
type State struct {
	Target color.HSV
	Mode   Mode
	Step   uint8
	Round  uint8
}

// Renderer receives the frame once per tick.
type Renderer interface {
	Render(frame []color.RGB)
}

type Engine struct {
	mu     sync.Mutex
	layout layout.Layout
	pal    *palette.Palette
	out    Renderer

	leds  []State
	frame []color.RGB
	ticks uint32

	rotatePos  int
	lastRotate uint32
	rotated    bool

	intensity atomic.Uint32
}

// NewEngine allocates one idle state per LED in l. out may be nil.
func NewEngine(l layout.Layout, pal *palette.Palette, out Renderer) *Engine {
	e := &Engine{
		layout: l,
		pal:    pal,
		out:    out,
		leds:   make([]State, l.Count()),
		frame:  make([]color.RGB, l.Count()),
	}
	e.intensity.Store(DefaultIntensity)
	return e
}

func (e *Engine) Count() int { return len(e.leds) }

func (e *Engine) Layout() layout.Layout { return e.layout }

func (e *Engine) SetIntensity(v uint8) { e.intensity.Store(uint32(v)) }

func (e *Engine) Intensity() uint8 { return uint8(e.intensity.Load()) }

// Set replaces LED id's animation immediately.
func (e *Engine) Set(id int, target color.HSV, mode Mode, step, round uint8) error {
	if err := bounds.Check("led", id, len(e.leds)); err != nil {
		return err
	}
	if err := CheckMode(mode); err != nil {
		return err
	}
	e.mu.Lock()
	e.leds[id] = State{Target: target, Mode: mode, Step: step, Round: round}
	e.mu.Unlock()
	return nil
}

// SetRaw drives LED id directly; the tick leaves it alone until the next Set.
func (e *Engine) SetRaw(id int, c color.RGB) error {
	if err := bounds.Check("led", id, len(e.leds)); err != nil {
		return err
	}
	e.mu.Lock()
	e.leds[id] = State{Target: color.White, Mode: Override}
	e.frame[id] = c
	e.mu.Unlock()
	return nil
}

// State returns a copy of LED id's record.
func (e *Engine) State(id int) (State, error) {
	if err := bounds.Check("led", id, len(e.leds)); err != nil {
		return State{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leds[id], nil
}

// Frame returns a copy of the last rendered frame.
func (e *Engine) Frame() []color.RGB {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]color.RGB, len(e.frame))
	copy(out, e.frame)
	return out
}

func (e *Engine) Ticks() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}

// Advance runs one tick over every LED and hands the frame to the renderer.
func (e *Engine) Advance() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ticks++
	intensity := uint8(e.intensity.Load())
	for i := range e.leds {
		if c, ok := e.advance(i, intensity); ok {
			e.frame[i] = color.HSVToRGB(c)
		}
	}
	if e.out != nil {
		e.out.Render(e.frame)
	}
}

// advance steps LED i and returns the color to show, or false when the frame
// slot must be left as is.
func (e *Engine) advance(i int, intensity uint8) (color.HSV, bool) {
	st := &e.leds[i]
	c := st.Target

	switch st.Mode {
	case Idle:
		if !e.layout.InBacklight(i) {
			return c, false
		}
		*st = State{Target: e.pal.Get(int(palette.Background)), Mode: Backlight}
		c = st.Target
		c.V = color.Scale8(c.V, intensity)

	case Override:
		return c, false

	case ColorHold, Brighten:
		st.Step = addStep(st.Step, 1)
		c.V = color.Scale8(c.V, InOutQuad(st.Step))
		if st.Step == StepLast {
			st.Mode = Idle
			c.V = st.Target.V
		}

	case Dim:
		st.Step = addStep(st.Step, 1)
		c.V = color.Scale8(c.V, StepLast-InOutQuad(st.Step))
		if st.Step == StepLast {
			st.Mode = Idle
			c.V = 0
		}

	case ColorFlash, ColorFlashing:
		if st.Round > 1 {
			if st.Mode == ColorFlash {
				st.Mode = Idle
				c.V = 0
				break
			}
			st.Round = 0
		}
		st.Step = addStep(st.Step, FlashSpeed)
		k := InOutQuad(st.Step)
		if st.Round == 0 {
			c.V = color.Scale8(c.V, k)
		} else {
			c.V = color.Scale8(c.V, StepLast-k)
		}
		if st.Step == StepLast {
			st.Step = 0
			st.Round++
			if st.Mode == ColorFlashing && st.Round > 1 {
				st.Round = 0
			}
		}

	case RainbowThenDim:
		st.Step = addStep(st.Step, 1)
		st.Target.H = color.AddHue(st.Target.H, RainbowHueStep)
		c = st.Target
		if st.Step == StepLast {
			st.Step = 0
			if st.Round <= 1 {
				st.Mode = Dim
				st.Round = 0
			} else {
				st.Round--
			}
		}

	case SlowRainbow:
		if e.ticks%SlowRainbowDivisor == 0 {
			st.Target.H = color.AddHue(st.Target.H, SlowRainbowHueStep)
		}
		c = st.Target

	case Backlight:
		c.V = color.Scale8(c.V, intensity)
	}

	return c, true
}

// Rainbow spreads the hue wheel over every LED and cycles it times rounds
// before dimming out.
func (e *Engine) Rainbow(times uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.leds)
	for i := range e.leds {
		h := uint16(i * color.HueMax / n)
		e.leds[i] = State{Target: color.HSV{H: h, S: 0xff, V: 0xff}, Mode: RainbowThenDim, Round: times}
	}
}

// DimAll fades every animated or backlit LED out from its current target.
// Raw-driven LEDs and dark idle keys are left alone.
func (e *Engine) DimAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.leds {
		st := &e.leds[i]
		if st.Mode == Override || (st.Mode == Idle && !e.layout.InBacklight(i)) {
			continue
		}
		*st = State{Target: st.Target, Mode: Dim}
	}
}

// ResetBacklight returns every LED in Backlight mode to Idle so the next tick
// picks up the current background color.
func (e *Engine) ResetBacklight() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.leds {
		if e.leds[i].Mode == Backlight {
			e.leds[i] = State{}
		}
	}
}

// Rotate moves the rotation indicator one backlight LED in direction dir
// (negative is backward). Calls closer than RotateInterval ticks to the last
// accepted one are dropped. It reports whether the indicator moved.
func (e *Engine) Rotate(dir int) bool {
	n := e.layout.Backlight
	if n == 0 {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rotated && e.ticks-e.lastRotate < RotateInterval {
		return false
	}
	slot := palette.Forward
	if dir < 0 {
		slot = palette.Backward
		e.rotatePos = (e.rotatePos + n - 1) % n
	} else {
		e.rotatePos = (e.rotatePos + 1) % n
	}
	first, _ := e.layout.BacklightRange()
	e.leds[first+e.rotatePos] = State{Target: e.pal.Get(int(slot)), Mode: ColorFlash}
	e.lastRotate = e.ticks
	e.rotated = true
	return true
}
