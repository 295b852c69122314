// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// contextWithSignals returns a context cancelled on the first interrupt or
// termination signal, and the function releasing the signal handlers.
func contextWithSignals() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
