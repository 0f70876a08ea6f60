package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a new logger instance writing JSON lines to stderr.
// Stdout is reserved for command output.
func New(level string) *logrus.Logger {
	return NewWithOutput(level, os.Stderr)
}

// NewWithOutput creates a logger that writes to the given writer
func NewWithOutput(level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.JSONFormatter{})

	// Set log level
	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.WarnLevel)
	}

	return log
}
