package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Tick advances the animation one step: a running test pattern first, then
// every LED, then the frame goes to the transmitter.
func (c *Core) Tick() {
	c.stepTest()
	c.Engine.Advance()
}

// Run starts the transmitter and ticks every period until ctx is done.
func (c *Core) Run(ctx context.Context, period time.Duration) error {
	if period <= 0 {
		period = time.Millisecond
	}
	c.TX.Start()
	log.Info().Dur("period", period).Int("leds", c.Layout.Count()).Msg("animation loop started")

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Uint32("ticks", c.Engine.Ticks()).Msg("animation loop stopped")
			return ctx.Err()
		case <-ticker.C:
			c.Tick()
		}
	}
}

func (c *Core) Close() error { return c.TX.Close() }
