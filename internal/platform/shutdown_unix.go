//go:build !windows

package platform

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NewShutdownContext returns a context that is cancelled on SIGINT or SIGTERM.
// The returned stop func also cancels it.
func NewShutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
