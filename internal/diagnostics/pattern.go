package diagnostics

import (
	"github.com/coreman2200/keylight/internal/color"
	"github.com/coreman2200/keylight/internal/layout"
)

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep"
	RGBTest    Kind = "rgb_channels"
	RowSweep   Kind = "row_sweep"
)

// Kinds lists every pattern a Runner can play.
var Kinds = []Kind{IndexSweep, RGBTest, RowSweep}

type Plan struct{ Kind Kind }

// Runner plays a wiring test pattern one step at a time.
type Runner struct {
	plan Plan
	step int
}

func NewRunner(plan Plan) *Runner { return &Runner{plan: plan} }
func (r *Runner) Kind() Kind      { return r.plan.Kind }

// Step fills frame; returns false when complete.
func (r *Runner) Step(l layout.Layout, frame []color.RGB) bool {
	n := l.Count()
	for i := range frame {
		frame[i] = color.RGB{}
	}

	switch r.plan.Kind {
	case IndexSweep:
		idx := r.step
		if idx >= n {
			return false
		}
		frame[idx] = color.RGB{R: 255, G: 255, B: 255}
	case RGBTest:
		if r.step >= 3 {
			return false
		}
		c := [3]color.RGB{{R: 255}, {G: 255}, {B: 255}}[r.step]
		for i := 0; i < n; i++ {
			frame[i] = c
		}
	case RowSweep:
		// every matrix row in turn, then the backlight strip
		if r.step > l.Rows {
			return false
		}
		if r.step == l.Rows {
			first, end := l.BacklightRange()
			for i := first; i < end; i++ {
				frame[i] = color.RGB{G: 255, B: 255}
			}
			break
		}
		for c := 0; c < l.Cols; c++ {
			id, _ := l.Index(r.step, c)
			frame[id] = color.RGB{G: 255, B: 255} // cyan
		}
	default:
		return false
	}
	r.step++
	return true
}
