// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package main is the entry point of the yukino command.
package main

import (
	"os"

	"github.com/dark-flames/yukino-dev-sub000/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
