// Package status shows host state (desktop number, mute, volume, active
// layer) on the keys the light map assigns to each indicator.
package status

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/keylight/internal/bounds"
	"github.com/coreman2200/keylight/internal/color"
	"github.com/coreman2200/keylight/internal/ease"
	"github.com/coreman2200/keylight/internal/layout"
	"github.com/coreman2200/keylight/internal/palette"
)

// Kind is what a key indicates. The values are the letters used by the
// light map dump and the control protocol.
type Kind byte

const (
	All       Kind = 0
	None      Kind = '.'
	AutoMouse Kind = 'A'
	Backlight Kind = 'B'
	Desktop   Kind = 'D'
	Layer     Kind = 'L'
	Macro     Kind = 'm'
	MicMute   Kind = 'R'
	Mute      Kind = 'M'
	NKRO      Kind = 'N'
	Volume    Kind = 'V'
)

func (k Kind) Valid() bool {
	switch k {
	case None, AutoMouse, Backlight, Desktop, Layer, Macro, MicMute, Mute, NKRO, Volume:
		return true
	}
	return false
}

const (
	Layers  = 3
	Screens = 2

	// StepFast starts an indicator halfway up the ease curve.
	StepFast = 0x80
	// MaxVolume is full scale for SetVolume.
	MaxVolume = 0xffff
)

// defaultRows is the 5x5 light map shared by every layer.
var defaultRows = [5][5]Kind{
	{Desktop, Desktop, Desktop, Desktop, Mute},
	{Desktop, Desktop, Desktop, Desktop, Desktop},
	{Volume, Volume, Volume, Volume, Volume},
	{Macro, Macro, Macro, Macro, Macro},
	{Layer, Layer, Desktop, Desktop, Backlight},
}

// Setter is the part of the animation engine the display drives.
type Setter interface {
	Set(id int, target color.HSV, mode ease.Mode, step, round uint8) error
}

type Display struct {
	mu     sync.Mutex
	layout layout.Layout
	pal    *palette.Palette
	out    Setter
	lights [Layers][]Kind

	desktop [Screens]uint8
	mute    bool
	micMute bool
	volume  uint16
	layer   int
}

// New builds a display with the stock light map; keys outside the 5x5 stock
// map show nothing.
func New(l layout.Layout, pal *palette.Palette, out Setter) *Display {
	d := &Display{layout: l, pal: pal, out: out}
	for i := range d.lights {
		d.lights[i] = make([]Kind, l.Keys())
		for r := 0; r < l.Rows; r++ {
			for c := 0; c < l.Cols; c++ {
				k := None
				if r < len(defaultRows) && c < len(defaultRows[r]) {
					k = defaultRows[r][c]
				}
				d.lights[i][r*l.Cols+c] = k
			}
		}
	}
	return d
}

// SetLight changes what a key indicates on one layer.
func (d *Display) SetLight(layer, row, col int, k Kind) error {
	if err := bounds.Check("layer", layer, Layers); err != nil {
		return err
	}
	if err := d.layout.CheckKey(row, col); err != nil {
		return err
	}
	if !k.Valid() {
		return fmt.Errorf("light kind %q: %w", rune(k), bounds.ErrOutOfRange)
	}
	d.mu.Lock()
	d.lights[layer][row*d.layout.Cols+col] = k
	d.mu.Unlock()
	return nil
}

// Light returns what a key indicates on a layer.
func (d *Display) Light(layer, row, col int) Kind {
	if layer < 0 || layer >= Layers || d.layout.CheckKey(row, col) != nil {
		return None
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lights[layer][row*d.layout.Cols+col]
}

// SetDesktop records the desktop shown on a screen. Screen 0 sets every
// screen, 1..Screens a single one.
func (d *Display) SetDesktop(screen int, desktop uint8) error {
	if err := bounds.Check("screen", screen, Screens+1); err != nil {
		return err
	}
	d.mu.Lock()
	if screen == 0 {
		for s := range d.desktop {
			d.desktop[s] = desktop
		}
	} else {
		d.desktop[screen-1] = desktop
	}
	d.mu.Unlock()
	d.Apply(Desktop)
	return nil
}

func (d *Display) SetMute(on bool) {
	d.mu.Lock()
	d.mute = on
	d.mu.Unlock()
	d.Apply(Mute)
}

func (d *Display) SetMicMute(on bool) {
	d.mu.Lock()
	d.micMute = on
	d.mu.Unlock()
	d.Apply(Mute)
}

func (d *Display) SetVolume(v uint16) {
	d.mu.Lock()
	d.volume = v
	d.mu.Unlock()
	d.Apply(Volume)
}

// SetLayer switches the light map and redraws every indicator.
func (d *Display) SetLayer(layer int) error {
	if err := bounds.Check("layer", layer, Layers); err != nil {
		return err
	}
	d.mu.Lock()
	d.layer = layer
	d.mu.Unlock()
	d.Apply(All)
	return nil
}

func (d *Display) CurrentLayer() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.layer
}

// VolumeHue runs from green at silence to red at full volume.
func VolumeHue(v uint16) uint16 {
	return uint16(512 - uint32(v)*512/MaxVolume)
}

// MuteColor is the indicator color for the speaker and mic mute states.
func MuteColor(mute, mic bool) color.HSV {
	switch {
	case mic && mute:
		return color.Red
	case mic:
		return color.Magenta
	case mute:
		return color.Yellow
	}
	return color.Green
}

// Apply redraws every key of kind only on the current layer, or every
// indicator for All.
func (d *Display) Apply(only Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()

	screen := 0
	lights := d.lights[d.layer]
	for r := 0; r < d.layout.Rows; r++ {
		for c := 0; c < d.layout.Cols; c++ {
			k := lights[r*d.layout.Cols+c]
			if only != All && k != only {
				continue
			}
			id, _ := d.layout.Index(r, c)

			var err error
			switch k {
			case Desktop:
				col := d.pal.Get(int(palette.Desktop) + int(d.desktop[screen]))
				err = d.out.Set(id, col, ease.ColorHold, 0, 0)
				screen = (screen + 1) % Screens
			case Layer:
				col := d.pal.Get(int(palette.Layer) + d.layer)
				err = d.out.Set(id, col, ease.ColorHold, 0, 0)
			case Mute:
				err = d.out.Set(id, MuteColor(d.mute, d.micMute), ease.ColorHold, StepFast, 0)
			case Volume:
				col := color.Yellow
				col.H = VolumeHue(d.volume)
				err = d.out.Set(id, col, ease.ColorHold, StepFast, 0)
			}
			if err != nil {
				log.Warn().Err(err).Int("row", r).Int("col", c).Str("kind", string(rune(k))).Msg("status light rejected")
			}
		}
	}
}

// Dump writes the light map of every layer, one line per row.
func (d *Display) Dump(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	bw := bufio.NewWriter(w)
	for l := range d.lights {
		fmt.Fprintf(bw, "layer %02x\n", l)
		for r := 0; r < d.layout.Rows; r++ {
			fmt.Fprintf(bw, "row %02x: ", r)
			for c := 0; c < d.layout.Cols; c++ {
				fmt.Fprintf(bw, "%c ", d.lights[l][r*d.layout.Cols+c])
			}
			fmt.Fprintln(bw)
		}
	}
	return bw.Flush()
}
