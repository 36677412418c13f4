// Package main is the portal command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"freightdesk/internal/cmd/portalctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := portalctl.Run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if msg := portalctl.Describe(err); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		if errors.Is(err, portalctl.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
