package ease

import (
	"fmt"
	"strings"

	"github.com/coreman2200/keylight/internal/bounds"
)

// Mode is the animation an LED is currently running.
type Mode uint8

const (
	Idle Mode = iota
	ColorFlash
	ColorFlashing
	ColorHold
	Brighten
	Dim
	RainbowThenDim
	SlowRainbow
	Backlight
	Override

	modeCount
)

var modeNames = [modeCount]string{
	Idle:           "idle",
	ColorFlash:     "flash",
	ColorFlashing:  "flashing",
	ColorHold:      "hold",
	Brighten:       "brighten",
	Dim:            "dim",
	RainbowThenDim: "rainbow",
	SlowRainbow:    "slow_rainbow",
	Backlight:      "backlight",
	Override:       "override",
}

func (m Mode) String() string {
	if m < modeCount {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m < modeCount }

// CheckMode rejects unknown mode values.
func CheckMode(m Mode) error {
	return bounds.Check("mode", int(m), int(modeCount))
}

// ParseMode accepts either a mode name or its decimal number.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == s {
			return Mode(i), nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil {
		if err := bounds.Check("mode", n, int(modeCount)); err != nil {
			return Idle, err
		}
		return Mode(n), nil
	}
	return Idle, fmt.Errorf("unknown mode %q: %w", s, bounds.ErrOutOfRange)
}
