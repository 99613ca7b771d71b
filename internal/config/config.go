package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type SPI struct {
	Dev     string `yaml:"dev"`      // periph port name, e.g. /dev/spidev0.0; empty picks the first
	SpeedHz int    `yaml:"speed_hz"` // line bit clock, 2250000 gives 1.33us LED bits
}

type Layout struct {
	Rows          int  `yaml:"rows"`
	Cols          int  `yaml:"cols"`
	Backlight     int  `yaml:"backlight"`
	MirrorOddRows bool `yaml:"mirror_odd_rows"`
}

type Config struct {
	Driver    string `yaml:"driver"` // "spi" | "sim"
	TickMs    int    `yaml:"tick_ms"`
	Intensity int    `yaml:"intensity"` // backlight 0..255
	PreviewHz int    `yaml:"preview_hz"`
	LogLevel  string `yaml:"log_level"`
	Addr      string `yaml:"addr"`
	StorePath string `yaml:"store_path"`

	Layout Layout `yaml:"layout"`
	SPI    SPI    `yaml:"spi,omitempty"`
}

// Default is the stock 5x5 pad with an 8 LED underglow on the simulator.
func Default() *Config {
	return &Config{
		Driver:    "sim",
		TickMs:    1,
		Intensity: 0x80,
		PreviewHz: 30,
		LogLevel:  "info",
		Addr:      ":8080",
		StorePath: "keylight.img",
		Layout:    Layout{Rows: 5, Cols: 5, Backlight: 8, MirrorOddRows: true},
		SPI:       SPI{Dev: "", SpeedHz: 2250000},
	}
}

// Load reads path over the defaults, so a partial file only overrides what
// it names.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	switch c.Driver {
	case "sim", "spi":
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.TickMs <= 0 {
		return fmt.Errorf("tick_ms must be positive, got %d", c.TickMs)
	}
	if c.Intensity < 0 || c.Intensity > 255 {
		return fmt.Errorf("intensity %d not in 0..255", c.Intensity)
	}
	if c.Layout.Rows <= 0 || c.Layout.Cols <= 0 || c.Layout.Backlight < 0 {
		return fmt.Errorf("bad layout %dx%d+%d", c.Layout.Rows, c.Layout.Cols, c.Layout.Backlight)
	}
	if n := c.Layout.Rows*c.Layout.Cols + c.Layout.Backlight; n > 255 {
		return fmt.Errorf("layout has %d LEDs, at most 255 are addressable", n)
	}
	return nil
}
