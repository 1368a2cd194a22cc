package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/fernandezvara/collabkit/internal/commands"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("component", "main").Logger()

	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, a ...any) {
		log.Info().Msg(fmt.Sprintf(format, a...))
	}))
	defer undo()
	if err != nil {
		log.Error().Err(err).Msg("failed to set GOMAXPROCS")
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Make sure to cancel the context if a signal was received
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info().Str("signal", sig.String()).Msg("received signal")
		cancel()
	}()

	if err := commands.NewRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
