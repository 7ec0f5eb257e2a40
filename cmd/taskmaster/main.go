// Package main is the entry point for the taskmaster CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"taskmaster/internal/cli"
	"taskmaster/internal/commands"
	"taskmaster/internal/tui"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, tui.Run)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
