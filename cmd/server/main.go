package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/sundayezeilo/shortlinks/internal/app"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Shutdown(); err != nil {
			application.Logger.Error("shutdown failed", "error", err.Error())
		}
	}()

	// blocks until a signal arrives or a component fails
	return application.Start(ctx)
}
