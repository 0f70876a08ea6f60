package platform

import (
	"context"
	"os"
	"os/signal"
)

// NewShutdownContext returns a context that is cancelled on Ctrl+C.
// Windows consoles do not reliably deliver SIGTERM, so only os.Interrupt is watched.
func NewShutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}
