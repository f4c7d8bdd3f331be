package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/robosim/internal/config"
	"github.com/zeusync/robosim/internal/core/protocol"
	"github.com/zeusync/robosim/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		if errors.Is(err, protocol.ErrAddressInUse) {
			fmt.Fprintln(os.Stderr, "robosim: another simulator is already running:", err)
		} else {
			fmt.Fprintln(os.Stderr, "robosim:", err)
		}
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := injector.InitializeServer(cfg)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
