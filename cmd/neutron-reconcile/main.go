// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/yeungp/OpenStack-tools/cmd/neutron-reconcile/commands"
	"github.com/yeungp/OpenStack-tools/lib/process"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output (compare) return an
		// error carrying the exit code. Don't print a redundant
		// "error:" line for those.
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.Root().Execute(ctx, os.Args[1:])
}
