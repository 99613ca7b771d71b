package ease

import "github.com/coreman2200/keylight/internal/color"

// InOutQuad is a symmetric accelerate/decelerate curve over 0..255 with
// fixed points at both ends.
func InOutQuad(i uint8) uint8 {
	j := i
	if i&0x80 != 0 {
		j = 0xff - j
	}
	jj := color.Scale8(j, j) << 1
	if i&0x80 != 0 {
		jj = 0xff - jj
	}
	return jj
}

// addStep advances a step counter, stopping at StepLast.
func addStep(step, by uint8) uint8 {
	if int(step)+int(by) >= StepLast {
		return StepLast
	}
	return step + by
}
