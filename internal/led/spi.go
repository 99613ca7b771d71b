package led

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

type spiJob struct {
	data []byte
	done func()
}

// SPITransport shifts buffers out of a periph.io SPI port from a worker
// goroutine. The MOSI pin carries the one-wire signal.
type SPITransport struct {
	conn   spi.Conn
	closer io.Closer

	jobs chan spiJob
	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	errs atomic.Uint64
}

// OpenSPI opens a spidev port by name ("" picks the first one) at clock f.
// host.Init must have run.
func OpenSPI(name string, f physic.Frequency) (*SPITransport, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", name, err)
	}
	if f <= 0 {
		f = BitClock
	}
	c, err := p.Connect(f, spi.Mode0, 8)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("connect spi port %q: %w", name, err)
	}
	return NewSPITransport(c, p), nil
}

// NewSPITransport drives an already connected port. closer is closed by
// Close and may be nil.
func NewSPITransport(c spi.Conn, closer io.Closer) *SPITransport {
	s := &SPITransport{
		conn:   c,
		closer: closer,
		jobs:   make(chan spiJob, 1),
		quit:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

func (s *SPITransport) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.quit:
			return
		case j := <-s.jobs:
			if err := s.conn.Tx(j.data, nil); err != nil {
				s.errs.Add(1)
				log.Error().Err(err).Int("bytes", len(j.data)).Msg("spi tx failed")
			}
			j.done()
		}
	}
}

// Start queues data. The queue holds one job; the transmitter never has
// more than one transfer outstanding.
func (s *SPITransport) Start(data []byte, done func()) {
	select {
	case s.jobs <- spiJob{data: data, done: done}:
	case <-s.quit:
	}
}

// Errors is the number of failed transfers.
func (s *SPITransport) Errors() uint64 { return s.errs.Load() }

func (s *SPITransport) Close() error {
	var err error
	s.once.Do(func() {
		close(s.quit)
		s.wg.Wait()
		if s.closer != nil {
			err = s.closer.Close()
		}
	})
	return err
}
