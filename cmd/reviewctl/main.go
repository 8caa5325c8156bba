// Command reviewctl is the command-line client for a clubreviews server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dalemusser/clubreviews/internal/client/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
