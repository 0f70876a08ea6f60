package commands

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Loop reads commands line by line and hands them to a Dispatcher
type Loop struct {
	dispatcher *Dispatcher
	logger     *logrus.Logger
}

// NewLoop creates a new input loop
func NewLoop(dispatcher *Dispatcher, logger *logrus.Logger) *Loop {
	return &Loop{dispatcher: dispatcher, logger: logger}
}

// Run processes input until EOF (nil), an exit command (ErrExit) or ctx is done.
// A read blocked on input is abandoned when ctx is done.
func (l *Loop) Run(ctx context.Context, input io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						l.logger.Errorf("Failed to read input: %v", err)
					}
					return err
				default:
					return ctx.Err()
				}
			}

			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			if err := l.dispatcher.Execute(ctx, fields[0], fields[1:]); err != nil {
				return err
			}
		}
	}
}
