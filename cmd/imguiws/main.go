package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/coreman2200/funtimes-imguiws/internal/app"
	"github.com/coreman2200/funtimes-imguiws/internal/assets"
	"github.com/coreman2200/funtimes-imguiws/internal/config"
)

func main() {
	// ---- Flags; positional [port] [http-root] win over everything ----
	var (
		configPath = flag.String("config", "", "path to config.yaml")
		fps        = flag.Float64("fps", 0, "target frames per second")
		index      = flag.String("index", "", "default file inside the http root")
		theme      = flag.String("theme", "", "imgui theme: dark | light | classic")
		logLevel   = flag.String("log-level", "", "zerolog level (debug, info, warn, ...)")
		finalSpin  = flag.Bool("final-spin", false, "spin until the deadline inside the guard interval")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [port] [http-root]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	fmt.Printf("Usage: %s [port] [http-root]\n", os.Args[0])

	// ---- Config: defaults < config.yaml < flags < positional args ----
	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults")
		} else {
			cfg = c
		}
	}
	if *fps > 0 {
		cfg.FPS = *fps
	}
	if *index != "" {
		cfg.IndexFile = *index
	}
	if *theme != "" {
		cfg.Theme = *theme
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *finalSpin {
		cfg.Pacing.FinalSpin = true
	}
	if err := cfg.ApplyArgs(flag.Args()); err != nil {
		log.Fatal().Err(err).Msg("bad arguments")
	}

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	a, err := app.Start(cfg)
	if err != nil {
		var missing *assets.MissingResourceError
		if errors.As(err, &missing) {
			fmt.Fprintf(os.Stderr, "Resource, '%s', could not be found!\nExiting '%s' startup.\n", missing.Path, cfg.Name)
			os.Exit(0)
		}
		log.Fatal().Err(err).Msg("startup failed")
	}
	fmt.Printf("\nurl: localhost:%d\n", cfg.Port)

	// ---- Graceful shutdown ----
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.Error().Err(err).Msg("render loop failed")
	}
	log.Info().Msg("shutting down")
	if err := a.Close(); err != nil {
		log.Warn().Err(err).Msg("close")
	}
}
