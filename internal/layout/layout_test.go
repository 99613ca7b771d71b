package layout

import (
	"errors"
	"testing"

	"github.com/coreman2200/keylight/internal/bounds"
	"github.com/stretchr/testify/assert"
)

func TestIndexMirrorsOddRows(t *testing.T) {
	l := Default
	tests := []struct {
		row, col, want int
	}{
		{0, 0, 0},
		{0, 4, 4},
		{1, 0, 9},
		{1, 4, 5},
		{2, 2, 12},
		{4, 4, 24},
	}
	for _, tc := range tests {
		got, ok := l.Index(tc.row, tc.col)
		assert.True(t, ok)
		assert.Equal(t, tc.want, got, "row %d col %d", tc.row, tc.col)
	}
}

func TestIndexIsBijective(t *testing.T) {
	l := Default
	seen := map[int]bool{}
	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Cols; c++ {
			id, ok := l.Index(r, c)
			assert.True(t, ok)
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
			rr, cc, ok := l.Position(id)
			assert.True(t, ok)
			assert.Equal(t, [2]int{r, c}, [2]int{rr, cc})
		}
	}
	assert.Len(t, seen, l.Keys())
}

func TestBacklight(t *testing.T) {
	l := Default
	first, end := l.BacklightRange()
	assert.Equal(t, 25, first)
	assert.Equal(t, 33, end)
	assert.Equal(t, 33, l.Count())
	assert.False(t, l.InBacklight(24))
	assert.True(t, l.InBacklight(25))
	assert.False(t, l.InBacklight(33))
}

func TestCheckKey(t *testing.T) {
	l := Default
	assert.NoError(t, l.CheckKey(4, 4))
	assert.True(t, errors.Is(l.CheckKey(5, 0), bounds.ErrOutOfRange))
	assert.True(t, errors.Is(l.CheckKey(0, -1), bounds.ErrOutOfRange))
	_, ok := l.Index(-1, 0)
	assert.False(t, ok)
}
