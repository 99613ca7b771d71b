package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/keylight/internal/action"
	"github.com/coreman2200/keylight/internal/bounds"
	"github.com/coreman2200/keylight/internal/color"
	diag "github.com/coreman2200/keylight/internal/diagnostics"
	"github.com/coreman2200/keylight/internal/ease"
	"github.com/coreman2200/keylight/internal/layout"
	"github.com/coreman2200/keylight/internal/led"
	"github.com/coreman2200/keylight/internal/palette"
	"github.com/coreman2200/keylight/internal/status"
	"github.com/coreman2200/keylight/internal/store"
)

// TestStepTicks is how long each step of a wiring test pattern stays lit.
const TestStepTicks = 250

// Core wires the lighting pipeline: action tables -> easing engine ->
// transmitter.
type Core struct {
	Layout  layout.Layout
	Palette *palette.Palette
	Actions *action.Tables
	Engine  *ease.Engine
	Status  *status.Display
	TX      *led.Transmitter
	Store   *store.File
	// Transport is what TX sends on.
	Transport led.Transport

	// OnReject, when set, is told about every refused configuration write.
	OnReject func(diag.Diagnostic)

	mu       sync.Mutex
	test     *diag.Runner
	testTick int
	testBuf  []color.RGB
}

type HWConfig struct {
	Layout    layout.Layout
	Transport led.Transport
	Intensity uint8
	StorePath string
}

func InitCore(hw HWConfig) *Core {
	l := hw.Layout
	pal := palette.New()
	tx := led.NewTransmitter(l.Count(), hw.Transport)
	eng := ease.NewEngine(l, pal, tx)
	eng.SetIntensity(hw.Intensity)

	c := &Core{
		Layout:  l,
		Palette: pal,
		Actions: action.Defaults(l.Rows, l.Cols),
		Engine:  eng,
		Status:  status.New(l, pal, eng),
		TX:      tx,

		Transport: hw.Transport,
	}
	if hw.StorePath != "" {
		c.Store = &store.File{Path: hw.StorePath}
	}
	return c
}

// reported marks an error that has already been logged and sent to
// OnReject.
type reported struct{ error }

func (r reported) Unwrap() error { return r.error }

// Reported tells whether err already went through Reject.
func Reported(err error) bool {
	var r reported
	return errors.As(err, &r)
}

// Reject logs a refused write and hands it to OnReject. Errors that were
// already reported are passed through untouched.
func (c *Core) Reject(op string, err error, evidence map[string]any) error {
	if err == nil || Reported(err) {
		return err
	}
	ev := log.Warn().Err(err).Str("op", op)
	for k, v := range evidence {
		ev = ev.Interface(k, v)
	}
	ev.Msg("write rejected")
	if c.OnReject != nil {
		c.OnReject(diag.Rejected(op, err, evidence))
	}
	return reported{err}
}

// OnKeyEvent fires the action configured for a key press or release.
func (c *Core) OnKeyEvent(row, col int, pressed bool) {
	e, ok := c.Actions.Lookup(pressed, row, col)
	if !ok {
		log.Debug().Int("row", row).Int("col", col).Msg("key event outside matrix")
		return
	}
	if e.Mode == ease.Idle {
		return
	}
	target := c.Palette.Get(int(e.Color))
	if err := c.SetGroup(row, col, target, e.Mode, e.Step, e.Round, e.Group); err != nil {
		log.Warn().Err(err).Int("row", row).Int("col", col).Msg("key action failed")
	}
}

// SetGroup applies target to the key at row,col, or to every key in group
// when group is non-zero.
func (c *Core) SetGroup(row, col int, target color.HSV, mode ease.Mode, step, round, group uint8) error {
	if err := c.Layout.CheckKey(row, col); err != nil {
		return err
	}
	keys := []action.Key{{Row: row, Col: col}}
	if group != 0 {
		keys = c.Actions.Members(group)
	}
	for _, k := range keys {
		id, _ := c.Layout.Index(k.Row, k.Col)
		if err := c.Engine.Set(id, target, mode, step, round); err != nil {
			return err
		}
	}
	return nil
}

// SetLED drives one LED by index.
func (c *Core) SetLED(id int, target color.HSV, mode ease.Mode, step, round uint8) error {
	if err := c.Engine.Set(id, target, mode, step, round); err != nil {
		evidence := map[string]any{"id": id}
		if row, col, ok := c.Layout.Position(id); ok {
			evidence["row"], evidence["col"] = row, col
		}
		return c.Reject("set led", err, evidence)
	}
	return nil
}

func (c *Core) ConfigureAction(pressed, row, col int, e action.Entry) error {
	if err := c.Actions.ConfigureAction(pressed, row, col, e); err != nil {
		return c.Reject("configure action", err, map[string]any{"pressed": pressed, "row": row, "col": col})
	}
	return nil
}

func (c *Core) ConfigureGroup(row, col int, group uint8) error {
	if err := c.Actions.ConfigureGroup(row, col, group); err != nil {
		return c.Reject("configure group", err, map[string]any{"row": row, "col": col})
	}
	return nil
}

// SetLight changes what a key indicates on one layer and redraws the
// indicators.
func (c *Core) SetLight(layer, row, col int, k status.Kind) error {
	if err := c.Status.SetLight(layer, row, col, k); err != nil {
		return c.Reject("set light", err, map[string]any{"layer": layer, "row": row, "col": col, "kind": string(rune(k))})
	}
	c.Status.Apply(status.All)
	return nil
}

// SetPalette replaces a palette slot. Changing the background makes the
// backlight pick the new color up on the next tick.
func (c *Core) SetPalette(i int, v color.HSV) error {
	if err := c.Palette.Set(i, v); err != nil {
		return c.Reject("set palette", err, map[string]any{"index": i})
	}
	if i == int(palette.Background) {
		c.Engine.ResetBacklight()
	}
	return nil
}

func (c *Core) GetPalette(i int) color.HSV { return c.Palette.Get(i) }

// SetIntensity changes the backlight level and redraws the indicators.
func (c *Core) SetIntensity(v uint8) {
	c.Engine.SetIntensity(v)
	c.Status.Apply(status.All)
}

// SetKeysRaw drives the key LEDs directly, in row-major key order.
func (c *Core) SetKeysRaw(colors []color.RGB) error {
	if len(colors) > c.Layout.Keys() {
		return c.Reject("set keys raw", fmt.Errorf("%d colors for %d keys: %w", len(colors), c.Layout.Keys(), bounds.ErrOutOfRange), nil)
	}
	for i, rgb := range colors {
		id, _ := c.Layout.Index(i/c.Layout.Cols, i%c.Layout.Cols)
		if err := c.Engine.SetRaw(id, rgb); err != nil {
			return err
		}
	}
	return nil
}

// SetBacklightRaw drives the backlight strip directly.
func (c *Core) SetBacklightRaw(colors []color.RGB) error {
	if len(colors) > c.Layout.Backlight {
		return c.Reject("set backlight raw", fmt.Errorf("%d colors for %d LEDs: %w", len(colors), c.Layout.Backlight, bounds.ErrOutOfRange), nil)
	}
	first, _ := c.Layout.BacklightRange()
	for i, rgb := range colors {
		if err := c.Engine.SetRaw(first+i, rgb); err != nil {
			return err
		}
	}
	return nil
}

// ImageSize is the length of a Snapshot.
func (c *Core) ImageSize() int {
	return action.ImageSize(c.Layout.Rows, c.Layout.Cols) + palette.Size*palette.SlotBytes
}

// Snapshot flattens the action tables, the group map and the palette.
func (c *Core) Snapshot() ([]byte, error) {
	a, err := c.Actions.MarshalBinary()
	if err != nil {
		return nil, err
	}
	p, err := c.Palette.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(a, p...), nil
}

// Restore loads a Snapshot. The whole image is checked before anything
// changes.
func (c *Core) Restore(img []byte) error {
	if len(img) != c.ImageSize() {
		return c.Reject("restore", fmt.Errorf("image is %d bytes, want %d: %w", len(img), c.ImageSize(), bounds.ErrOutOfRange), nil)
	}
	n := action.ImageSize(c.Layout.Rows, c.Layout.Cols)
	if err := c.Actions.UnmarshalBinary(img[:n]); err != nil {
		return c.Reject("restore", err, nil)
	}
	if err := c.Palette.UnmarshalBinary(img[n:]); err != nil {
		return c.Reject("restore", err, nil)
	}
	c.Engine.ResetBacklight()
	return nil
}

// Save writes a Snapshot to the store.
func (c *Core) Save() error {
	if c.Store == nil {
		return fmt.Errorf("no store configured")
	}
	img, err := c.Snapshot()
	if err != nil {
		return err
	}
	if err := c.Store.Save(img); err != nil {
		return err
	}
	log.Info().Str("path", c.Store.Path).Int("bytes", len(img)).Msg("configuration saved")
	return nil
}

// Load restores the Snapshot kept in the store.
func (c *Core) Load() error {
	if c.Store == nil {
		return fmt.Errorf("no store configured")
	}
	img, err := c.Store.Load()
	if err != nil {
		return err
	}
	if err := c.Restore(img); err != nil {
		return err
	}
	log.Info().Str("path", c.Store.Path).Msg("configuration loaded")
	return nil
}

// Dump writes the action tables, the palette and the light map.
func (c *Core) Dump(w io.Writer) error {
	var buf bytes.Buffer
	if err := c.Actions.Dump(&buf); err != nil {
		return err
	}
	if err := c.Palette.Dump(&buf); err != nil {
		return err
	}
	if err := c.Status.Dump(&buf); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// RunTest starts a wiring test pattern. It takes over every LED until it
// finishes; then all LEDs go back to idle.
func (c *Core) RunTest(kind diag.Kind) error {
	known := false
	for _, k := range diag.Kinds {
		known = known || k == kind
	}
	if !known {
		return c.Reject("run test", fmt.Errorf("test %q: %w", kind, bounds.ErrOutOfRange), map[string]any{"name": string(kind)})
	}
	c.mu.Lock()
	c.test = diag.NewRunner(diag.Plan{Kind: kind})
	c.testTick = 0
	c.testBuf = make([]color.RGB, c.Layout.Count())
	c.mu.Unlock()
	return nil
}

// Testing reports the pattern being played, if any.
func (c *Core) Testing() diag.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.test == nil {
		return diag.None
	}
	return c.test.Kind()
}

func (c *Core) stepTest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.test == nil {
		return
	}
	c.testTick++
	if c.testTick%TestStepTicks != 1 {
		return
	}
	if !c.test.Step(c.Layout, c.testBuf) {
		c.test = nil
		for i := 0; i < c.Layout.Count(); i++ {
			_ = c.Engine.SetRaw(i, color.RGB{})
			_ = c.Engine.Set(i, color.Black, ease.Idle, 0, 0)
		}
		log.Info().Msg("test pattern done")
		return
	}
	for i, rgb := range c.testBuf {
		_ = c.Engine.SetRaw(i, rgb)
	}
}
