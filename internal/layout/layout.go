package layout

import "github.com/coreman2200/keylight/internal/bounds"

// Layout describes the key matrix and the backlight strip chained after it.
type Layout struct {
	Rows      int
	Cols      int
	Backlight int
	// MirrorOddRows is set when the string snakes back on every odd row.
	MirrorOddRows bool
}

// Default is the 5x5 macro pad with an 8 LED underglow strip.
var Default = Layout{Rows: 5, Cols: 5, Backlight: 8, MirrorOddRows: true}

// Index maps row,col -> linear LED index (0..Keys()-1)
func (l Layout) Index(row, col int) (int, bool) {
	if row < 0 || row >= l.Rows || col < 0 || col >= l.Cols {
		return 0, false
	}
	c := col
	if l.MirrorOddRows && row%2 == 1 {
		c = l.Cols - 1 - col
	}
	return row*l.Cols + c, true
}

// Position is the inverse of Index for key LEDs.
func (l Layout) Position(id int) (row, col int, ok bool) {
	if id < 0 || id >= l.Keys() {
		return 0, 0, false
	}
	row, col = id/l.Cols, id%l.Cols
	if l.MirrorOddRows && row%2 == 1 {
		col = l.Cols - 1 - col
	}
	return row, col, true
}

func (l Layout) Keys() int { return l.Rows * l.Cols }

func (l Layout) Count() int { return l.Keys() + l.Backlight }

// BacklightRange returns the half-open LED range of the backlight strip.
func (l Layout) BacklightRange() (first, end int) {
	return l.Keys(), l.Count()
}

func (l Layout) InBacklight(id int) bool {
	return id >= l.Keys() && id < l.Count()
}

// CheckKey validates a matrix coordinate.
func (l Layout) CheckKey(row, col int) error {
	if err := bounds.Check("row", row, l.Rows); err != nil {
		return err
	}
	return bounds.Check("col", col, l.Cols)
}
