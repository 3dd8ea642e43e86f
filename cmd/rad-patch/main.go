// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// rad-patch proposes the current branch of a radicle project as a
// patch, updates an existing patch with a new revision, or lists the
// project's open patches.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/bureau-foundation/rad-patch/cmd/rad-patch/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx)
	stop()
	if code := cli.Report(os.Stderr, err); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context) error {
	return patchCommand(systemEnvironment()).Execute(ctx, os.Args[1:])
}
