package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"playlistcheck/internal/cli"
)

func main() {
	// Cancel on SIGINT or SIGTERM; a scan stops between probes and still writes its report.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
