// Package action holds the per-key press/release light behavior and the
// key -> group map used to broadcast one action to several keys.
package action

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/coreman2200/keylight/internal/bounds"
	"github.com/coreman2200/keylight/internal/ease"
	"github.com/coreman2200/keylight/internal/palette"
)

const (
	Released = 0
	Pressed  = 1

	// EntryBytes is the size of one Entry in the flat image.
	EntryBytes = 5
)

// Entry describes what a key event does to the lights.
type Entry struct {
	Color uint8 // palette slot
	Mode  ease.Mode
	Step  uint8
	Round uint8
	Group uint8 // 0 = this key only
}

func (e Entry) validate() error {
	return ease.CheckMode(e.Mode)
}

// Key is a matrix position.
type Key struct{ Row, Col int }

// Tables is the action table pair plus the group map. Event lookups take a
// read lock; configuration writes are rare.
type Tables struct {
	mu      sync.RWMutex
	rows    int
	cols    int
	actions [2][]Entry
	groups  []uint8
}

// New returns empty tables: every entry Idle, every key ungrouped.
func New(rows, cols int) *Tables {
	t := &Tables{rows: rows, cols: cols}
	for p := range t.actions {
		t.actions[p] = make([]Entry, rows*cols)
	}
	t.groups = make([]uint8, rows*cols)
	return t
}

// Defaults flashes a row color on press and leaves release idle.
func Defaults(rows, cols int) *Tables {
	t := New(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			t.actions[Pressed][r*cols+c] = Entry{
				Color: uint8(int(palette.Color1) + r%5),
				Mode:  ease.ColorFlash,
			}
		}
	}
	return t
}

func (t *Tables) Rows() int { return t.rows }
func (t *Tables) Cols() int { return t.cols }

func (t *Tables) checkKey(row, col int) error {
	if err := bounds.Check("row", row, t.rows); err != nil {
		return err
	}
	return bounds.Check("col", col, t.cols)
}

func pressIndex(pressed bool) int {
	if pressed {
		return Pressed
	}
	return Released
}

// ConfigureAction replaces the entry for a press state and key. pressed is
// 0 (release) or 1 (press). On error nothing is written.
func (t *Tables) ConfigureAction(pressed, row, col int, e Entry) error {
	if err := bounds.Check("press state", pressed, 2); err != nil {
		return fmt.Errorf("configure action: %w", err)
	}
	if err := t.checkKey(row, col); err != nil {
		return fmt.Errorf("configure action: %w", err)
	}
	if err := e.validate(); err != nil {
		return fmt.Errorf("configure action: %w", err)
	}
	t.mu.Lock()
	t.actions[pressed][row*t.cols+col] = e
	t.mu.Unlock()
	return nil
}

// ConfigureGroup assigns a key to a group; 0 removes it from any group.
func (t *Tables) ConfigureGroup(row, col int, group uint8) error {
	if err := t.checkKey(row, col); err != nil {
		return fmt.Errorf("configure group: %w", err)
	}
	t.mu.Lock()
	t.groups[row*t.cols+col] = group
	t.mu.Unlock()
	return nil
}

// Lookup returns the entry for an event. ok is false for keys outside the
// matrix.
func (t *Tables) Lookup(pressed bool, row, col int) (Entry, bool) {
	if t.checkKey(row, col) != nil {
		return Entry{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.actions[pressIndex(pressed)][row*t.cols+col], true
}

// Group returns the group of a key, 0 when ungrouped or out of range.
func (t *Tables) Group(row, col int) uint8 {
	if t.checkKey(row, col) != nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.groups[row*t.cols+col]
}

// Members lists every key in group, in row-major order. Group 0 has no
// members.
func (t *Tables) Members(group uint8) []Key {
	if group == 0 {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Key
	for i, g := range t.groups {
		if g == group {
			out = append(out, Key{Row: i / t.cols, Col: i % t.cols})
		}
	}
	return out
}

// Dump writes both action tables and the group map, one line per row.
func (t *Tables) Dump(w io.Writer) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	bw := bufio.NewWriter(w)
	for p := range t.actions {
		fmt.Fprintf(bw, "pressed %d\n", p)
		for r := 0; r < t.rows; r++ {
			fmt.Fprintf(bw, "row %02x: ", r)
			for c := 0; c < t.cols; c++ {
				e := t.actions[p][r*t.cols+c]
				fmt.Fprintf(bw, "%02x,%01x,%02x,%02x,%02x ", e.Color, uint8(e.Mode), e.Step, e.Round, e.Group)
			}
			fmt.Fprintln(bw)
		}
	}
	fmt.Fprintln(bw, "groups")
	for r := 0; r < t.rows; r++ {
		fmt.Fprintf(bw, "row %02x: ", r)
		for c := 0; c < t.cols; c++ {
			fmt.Fprintf(bw, "%02x ", t.groups[r*t.cols+c])
		}
		fmt.Fprintln(bw)
	}
	// bufio keeps the first write error and returns it from Flush.
	return bw.Flush()
}

// ImageSize is the length of the flat image for a rows x cols matrix.
func ImageSize(rows, cols int) int {
	return 2*rows*cols*EntryBytes + rows*cols
}

// MarshalBinary flattens both tables then the group map.
func (t *Tables) MarshalBinary() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]byte, 0, ImageSize(t.rows, t.cols))
	for p := range t.actions {
		for _, e := range t.actions[p] {
			out = append(out, e.Color, uint8(e.Mode), e.Step, e.Round, e.Group)
		}
	}
	return append(out, t.groups...), nil
}

// UnmarshalBinary replaces both tables and the group map. The image is
// validated in full first; on error the tables are unchanged.
func (t *Tables) UnmarshalBinary(b []byte) error {
	n := t.rows * t.cols
	if len(b) != ImageSize(t.rows, t.cols) {
		return fmt.Errorf("action image is %d bytes, want %d: %w", len(b), ImageSize(t.rows, t.cols), bounds.ErrOutOfRange)
	}
	var actions [2][]Entry
	off := 0
	for p := range actions {
		actions[p] = make([]Entry, n)
		for i := range actions[p] {
			e := Entry{Color: b[off], Mode: ease.Mode(b[off+1]), Step: b[off+2], Round: b[off+3], Group: b[off+4]}
			if err := e.validate(); err != nil {
				return fmt.Errorf("action image entry %d/%d: %w", p, i, err)
			}
			actions[p][i] = e
			off += EntryBytes
		}
	}
	groups := make([]uint8, n)
	copy(groups, b[off:])

	t.mu.Lock()
	t.actions = actions
	t.groups = groups
	t.mu.Unlock()
	return nil
}
