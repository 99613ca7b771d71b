package led

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
)

// SimTransport pretends to shift data out at a fixed bit clock and calls
// done after the time the transfer would take on the wire.
type SimTransport struct {
	clock physic.Frequency

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

func NewSimTransport(clock physic.Frequency) *SimTransport {
	if clock <= 0 {
		clock = BitClock
	}
	return &SimTransport{clock: clock}
}

func (s *SimTransport) Start(data []byte, done func()) {
	d := TransferTime(len(data), s.clock)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.timer = time.AfterFunc(d, done)
}

func (s *SimTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	return nil
}

// ManualTransport records transfers and completes them only when Finish is
// called. It stands in for the hardware in tests.
type ManualTransport struct {
	mu      sync.Mutex
	sent    [][]byte
	live    []byte
	pending func()
}

func (m *ManualTransport) Start(data []byte, done func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, append([]byte(nil), data...))
	m.live = data
	m.pending = done
}

// Finish completes the transfer in flight. It reports false when nothing was
// in flight.
func (m *ManualTransport) Finish() bool {
	m.mu.Lock()
	done := m.pending
	m.pending = nil
	m.mu.Unlock()
	if done == nil {
		return false
	}
	done()
	return true
}

// Sent returns a copy of every buffer passed to Start, as it was at Start.
func (m *ManualTransport) Sent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.sent...)
}

// Live is the slice currently being "sent", shared with the caller.
func (m *ManualTransport) Live() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}
