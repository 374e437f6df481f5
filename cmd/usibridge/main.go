package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/shogitools/usibridge/api"
	"github.com/shogitools/usibridge/bot"
	"github.com/shogitools/usibridge/cache"
	"github.com/shogitools/usibridge/config"
	"github.com/shogitools/usibridge/usi"
)

const (
	GracefulShutdownTimeout = 20 * time.Second
)

func main() {
	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	log.Info().Interface("config", cfg.SanitizedSettings()).Msg("loaded config")

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("bridge failed")
	}
	log.Info().Msg("server gracefully shutting down")
}

func run(cfg *config.Config) error {
	engine := usi.New(usi.ExecLauncher(cfg.GetString(config.ConfigEnginePath)), cfg.EngineOptions())
	defer engine.Close()

	var analyzer usi.Analyzer = engine
	if size := cfg.GetInt(config.ConfigCacheSize); size > 0 {
		analyzer = cache.New(engine, size, cfg.GetDuration(config.ConfigCacheTTL))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port := cfg.GetInt(config.ConfigPort)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: api.NewServer(analyzer, cfg.GetString(config.ConfigEngineName), engine.State).Handler(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Int("port", port).Msg("bridge-listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// We received an interrupt signal, shut down.
		log.Info().Msg("got quit signal...")
		sctx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if natsURL := cfg.GetString(config.ConfigNatsURL); natsURL != "" {
		nc, err := nats.Connect(natsURL, nats.Name("usibridge"))
		if err != nil {
			stop()
			g.Wait()
			return fmt.Errorf("connecting to nats: %w", err)
		}
		defer nc.Close()
		g.Go(func() error {
			return bot.Serve(gctx, nc, cfg.GetString(config.ConfigNatsSubject), analyzer)
		})
	}

	return g.Wait()
}
