package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/waitfor"
)

func main() {
	// start a mock service that takes 3 seconds to boot (see mock_server.go)
	StartMockService(":9999", 3*time.Second)

	w, err := waitfor.New("http://localhost:9999",
		waitfor.WithTimeout(10),
		waitfor.WithVerbose(true),
	)
	if err != nil {
		slog.Error("failed to create waiter", "error", err)
		os.Exit(1)
	}

	// Ctrl+C cancels the wait between iterations
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := w.Wait(ctx)
	switch {
	case err == nil:
		fmt.Printf("service is up after %d failed attempts (version %s)\n", res.Attempts, res.Version)
	case errors.Is(err, waitfor.ErrTimedOut):
		os.Exit(1)
	default:
		fmt.Println("wait cancelled")
		os.Exit(1)
	}
}
