package led

import (
	"io"
	"sync/atomic"

	"github.com/coreman2200/keylight/internal/color"
)

// Phase is what the transport is currently sending.
type Phase uint32

const (
	ResetPulse Phase = iota
	PixelArray
)

func (p Phase) String() string {
	if p == PixelArray {
		return "pixel_array"
	}
	return "reset_pulse"
}

// Transport shifts a buffer out on the line. Start must not block; done is
// called exactly once when the last bit has left, from any goroutine. data
// stays owned by the caller and is not modified until done runs.
type Transport interface {
	Start(data []byte, done func())
}

// Ownership word: bit 0 selects the buffer owned by the transport, bit 1
// marks the other buffer as holding a complete frame.
const (
	activeBit uint32 = 1 << 0
	readyBit  uint32 = 1 << 1
)

// Stats counts transmitter activity.
type Stats struct {
	Rendered uint64 `json:"rendered"`
	Swaps    uint64 `json:"swaps"`
	Frames   uint64 `json:"frames"`
	Resets   uint64 `json:"resets"`
}

// Transmitter double-buffers the encoded frame and runs the reset/pixel
// cycle. Render is called from the tick; Complete from the transport.
// Render must not run concurrently with itself.
type Transmitter struct {
	tr    Transport
	n     int
	bufs  [2][]byte
	reset []byte

	state   atomic.Uint32
	phase   atomic.Uint32
	started atomic.Bool
	stopped atomic.Bool

	rendered atomic.Uint64
	swaps    atomic.Uint64
	frames   atomic.Uint64
	resets   atomic.Uint64
}

// NewTransmitter prepares both buffers for n pixels. Nothing is sent until
// Start.
func NewTransmitter(n int, tr Transport) *Transmitter {
	t := &Transmitter{
		tr:    tr,
		n:     n,
		bufs:  [2][]byte{NewBuffer(n), NewBuffer(n)},
		reset: make([]byte, ResetPulseBytes),
	}
	return t
}

func (t *Transmitter) Len() int { return t.n }

// Start kicks off the cycle with a reset pulse. Calling it again is a no-op.
func (t *Transmitter) Start() {
	if !t.started.CompareAndSwap(false, true) {
		return
	}
	t.phase.Store(uint32(ResetPulse))
	t.resets.Add(1)
	t.tr.Start(t.reset, t.Complete)
}

// Render encodes frame into the buffer the transport does not own and marks
// it ready. Pixels past Len are ignored.
func (t *Transmitter) Render(frame []color.RGB) {
	if len(frame) > t.n {
		frame = frame[:t.n]
	}
	// Clearing ready first keeps Complete from swapping onto a half
	// written buffer.
	var s uint32
	for {
		s = t.state.Load()
		if t.state.CompareAndSwap(s, s&^readyBit) {
			break
		}
	}
	encodeData(t.bufs[(s&activeBit)^1], frame)
	for {
		s = t.state.Load()
		if t.state.CompareAndSwap(s, s|readyBit) {
			break
		}
	}
	t.rendered.Add(1)
}

// Complete is the transfer-complete handler. It advances the phase, swaps
// in a freshly rendered buffer after a pixel array and starts the next
// transfer. It never blocks.
func (t *Transmitter) Complete() {
	if t.stopped.Load() {
		return
	}
	if Phase(t.phase.Load()) == ResetPulse {
		t.phase.Store(uint32(PixelArray))
		t.frames.Add(1)
		t.tr.Start(t.bufs[t.state.Load()&activeBit], t.Complete)
		return
	}

	// Without a new frame the same buffer goes out again.
	s := t.state.Load()
	if s&readyBit != 0 && t.state.CompareAndSwap(s, (s^activeBit)&^readyBit) {
		t.swaps.Add(1)
	}
	t.phase.Store(uint32(ResetPulse))
	t.resets.Add(1)
	t.tr.Start(t.reset, t.Complete)
}

// Active is the index of the buffer owned by the transport.
func (t *Transmitter) Active() int { return int(t.state.Load() & activeBit) }

// Ready reports whether the inactive buffer holds a frame not yet sent.
func (t *Transmitter) Ready() bool { return t.state.Load()&readyBit != 0 }

func (t *Transmitter) Phase() Phase { return Phase(t.phase.Load()) }

// Buffer exposes buffer i for inspection.
func (t *Transmitter) Buffer(i int) []byte { return t.bufs[i&1] }

func (t *Transmitter) Stats() Stats {
	return Stats{
		Rendered: t.rendered.Load(),
		Swaps:    t.swaps.Load(),
		Frames:   t.frames.Load(),
		Resets:   t.resets.Load(),
	}
}

// Close stops the cycle after the transfer in flight and closes the
// transport when it is an io.Closer.
func (t *Transmitter) Close() error {
	t.stopped.Store(true)
	if c, ok := t.tr.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
