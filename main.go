package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/olivier-w/surfacetest/internal/config"
	"github.com/olivier-w/surfacetest/internal/log"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if len(os.Args) < 2 {
		if err := runHost(ctx, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	log.Configure(log.Config{Level: cfg.Log.Level, Output: os.Stderr})
	if err := runCommand(ctx, cfg, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
