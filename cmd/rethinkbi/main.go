// Package main is the entry point for the rethinkbi CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/andrew2loo/RethinkBI/cmd/rethinkbi/commands"
	"github.com/andrew2loo/RethinkBI/internal/ui"
)

func main() {
	if err := run(); err != nil {
		ui.PrintError(err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return commands.Execute(ctx, os.Args[1:])
}
