// Command keylight-encode prints the line bitstream for a color, one pixel
// per line, for checking a strip with a logic analyzer.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/keylight/internal/color"
	"github.com/coreman2200/keylight/internal/led"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("encode failed")
	}
}

func run(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("keylight-encode", flag.ContinueOnError)
	var (
		rgb   = fs.String("rgb", "", "color as rrggbb hex")
		hsv   = fs.String("hsv", "", "color as h,s,v with h in 0..1535")
		count = fs.Int("n", 1, "number of pixels")
		reset = fs.Bool("reset", false, "print the reset pulse length too")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	var c color.RGB
	switch {
	case *rgb != "" && *hsv != "":
		return fmt.Errorf("give -rgb or -hsv, not both")
	case *rgb != "":
		if _, err := fmt.Sscanf(strings.TrimPrefix(*rgb, "#"), "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
			return fmt.Errorf("parse -rgb %q: %w", *rgb, err)
		}
	case *hsv != "":
		var h, s, v int
		if _, err := fmt.Sscanf(*hsv, "%d,%d,%d", &h, &s, &v); err != nil {
			return fmt.Errorf("parse -hsv %q: %w", *hsv, err)
		}
		if h < 0 || h > color.HueMax || s < 0 || s > 255 || v < 0 || v > 255 {
			return fmt.Errorf("-hsv %q out of range", *hsv)
		}
		c = color.HSVToRGB(color.HSV{H: uint16(h), S: uint8(s), V: uint8(v)})
	}
	if *count < 1 {
		return fmt.Errorf("-n must be positive")
	}

	frame := make([]color.RGB, *count)
	for i := range frame {
		frame[i] = c
	}
	buf := make([]byte, led.BufferSize(len(frame)))
	if err := led.Encode(buf, frame); err != nil {
		return err
	}

	fmt.Fprintf(w, "color %s\n", c)
	for i := 0; i < len(buf); i += led.PixelBytes {
		fmt.Fprintf(w, "%02d: % x\n", i/led.PixelBytes, buf[i:i+led.PixelBytes])
	}
	if *reset {
		fmt.Fprintf(w, "reset: %d zero bytes, %s\n", led.ResetPulseBytes, led.TransferTime(led.ResetPulseBytes, led.BitClock))
	}
	fmt.Fprintf(w, "frame: %s\n", led.TransferTime(len(buf), led.BitClock))
	return nil
}
