package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/coreman2200/keylight/internal/app"
	"github.com/coreman2200/keylight/internal/config"
	"github.com/coreman2200/keylight/internal/layout"
	"github.com/coreman2200/keylight/internal/led"
	"github.com/coreman2200/keylight/internal/status"
	"github.com/coreman2200/keylight/internal/ws"
)

func main() {
	// ---- Flags (config.yaml overrides them when it loads) ----
	def := config.Default()
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		driver     = flag.String("driver", def.Driver, "driver: spi | sim")
		spiDev     = flag.String("spi-dev", def.SPI.Dev, "SPI port name; empty picks the first one")
		addr       = flag.String("addr", def.Addr, "HTTP listen address")
		tickMs     = flag.Int("tick-ms", def.TickMs, "animation tick period in milliseconds")
		intensity  = flag.Int("intensity", def.Intensity, "backlight intensity 0..255")
		storePath  = flag.String("store", def.StorePath, "saved tables and palette")
		logLevel   = flag.String("log-level", def.LogLevel, "trace|debug|info|warn|error")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware output)")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Effective params ----
	cfg := def
	cfg.Driver, cfg.SPI.Dev, cfg.Addr = *driver, *spiDev, *addr
	cfg.TickMs, cfg.Intensity, cfg.StorePath, cfg.LogLevel = *tickMs, *intensity, *storePath, *logLevel
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		if err := cfg.Validate(); err != nil {
			log.Fatal().Err(err).Msg("bad flags")
		}
	} else {
		cfg = c
	}
	if *simOnly {
		cfg.Driver = "sim"
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level; using info")
	}

	l := layout.Layout{
		Rows:          cfg.Layout.Rows,
		Cols:          cfg.Layout.Cols,
		Backlight:     cfg.Layout.Backlight,
		MirrorOddRows: cfg.Layout.MirrorOddRows,
	}

	// ---- Driver selection ----
	selected := cfg.Driver
	var tr led.Transport
	switch selected {
	case "spi":
		speed := physic.Frequency(cfg.SPI.SpeedHz) * physic.Hertz
		if _, err := host.Init(); err != nil {
			log.Warn().Err(err).Msg("periph host init failed; falling back to SIM")
			break
		}
		p, err := led.OpenSPI(cfg.SPI.Dev, speed)
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "spi").
				Str("dev", cfg.SPI.Dev).
				Int("speed_hz", cfg.SPI.SpeedHz).
				Msg("SPI init failed; falling back to SIM")
			break
		}
		tr = p
	case "sim":
	default:
		log.Warn().Str("driver", selected).Msg("unknown driver; using SIM")
	}
	if tr == nil {
		selected = "sim"
		tr = led.NewSimTransport(led.BitClock)
	}

	// ---- Core ----
	core := app.InitCore(app.HWConfig{
		Layout:    l,
		Transport: tr,
		Intensity: uint8(cfg.Intensity),
		StorePath: cfg.StorePath,
	})
	loadSaved(core)
	core.Status.Apply(status.All)
	state := ws.NewState(core, selected)

	// ---- HTTP routes ----
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", state.HandleFramesWS)
	mux.HandleFunc("/diag", state.HandleDiagWS)
	mux.HandleFunc("/control", state.HandleControlWS)
	mux.HandleFunc("/health", state.HandleHealth)
	mux.HandleFunc("/dump", state.HandleDump)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run tick loop, preview & server until a signal ----
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return core.Run(ctx, time.Duration(cfg.TickMs)*time.Millisecond)
	})
	g.Go(func() error { return state.RunPreview(ctx, cfg.PreviewHz) })
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Str("driver", selected).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err := g.Wait()
	if cerr := core.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("transmitter close")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("keylight stopped")
	}
}

// loadSaved restores the saved tables and palette. It reports whether an
// image was loaded; without a store path there is nothing to try.
func loadSaved(core *app.Core) bool {
	if core.Store == nil {
		log.Info().Msg("no store configured; using defaults")
		return false
	}
	if err := core.Load(); err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", core.Store.Path).Msg("no saved configuration; using defaults")
		} else {
			log.Warn().Err(err).Str("path", core.Store.Path).Msg("saved configuration ignored")
		}
		return false
	}
	return true
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
