package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRed(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-rgb", "ff0000", "-n", "2", "-reset"}, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "color #ff0000", lines[0])
	assert.Equal(t, "00: 92 49 24 db 6d b6 92 49 24", lines[1])
	assert.Equal(t, lines[1][2:], lines[2][2:])
	assert.True(t, strings.HasPrefix(lines[3], "reset: 180 zero bytes"))
}

func TestEncodeHSV(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-hsv", "512,255,255"}, &out))
	assert.Contains(t, out.String(), "color #00ff00")
	assert.Contains(t, out.String(), "00: db 6d b6 92 49 24 92 49 24")
}

func TestEncodeRejects(t *testing.T) {
	for _, args := range [][]string{
		{"-rgb", "ff0000", "-hsv", "0,0,0"},
		{"-rgb", "zz"},
		{"-hsv", "1536,0,0"},
		{"-n", "0"},
	} {
		assert.Error(t, run(args, &bytes.Buffer{}), "%v", args)
	}
}
