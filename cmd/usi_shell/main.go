package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shogitools/usibridge/bot"
	"github.com/shogitools/usibridge/config"
	"github.com/shogitools/usibridge/shell"
	"github.com/shogitools/usibridge/usi"
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

	// With a NATS URL the shell talks to a running bridge; otherwise it
	// drives its own engine.
	var analyzer usi.Analyzer
	if natsURL := cfg.GetString(config.ConfigNatsURL); natsURL != "" {
		nc, err := nats.Connect(natsURL, nats.Name("usi_shell"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer nc.Close()
		analyzer = bot.NewClient(nc, cfg.GetString(config.ConfigNatsSubject))
	} else {
		engine := usi.New(usi.ExecLauncher(cfg.GetString(config.ConfigEnginePath)), cfg.EngineOptions())
		defer engine.Close()
		analyzer = engine
	}

	idleConnsClosed := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal...")
		close(idleConnsClosed)
	}()

	sc := shell.NewShellController(analyzer)
	go sc.Loop(sig)

	<-idleConnsClosed
}
