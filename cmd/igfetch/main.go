// cmd/igfetch/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/law-makers/igfetch/internal/cli"
	"github.com/rs/zerolog/log"
)

func main() {
	// Cancelling the context tears the browser down through the session's
	// release path before the process exits
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.Execute(ctx)
	if ctx.Err() != nil {
		log.Warn().Msg("Interrupt received, session released")
	}
	if err != nil {
		stop()
		os.Exit(1)
	}
}
