package commands

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dalfonso89/currency-converter/internal/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_Run_EOF(t *testing.T) {
	client := &fakeClient{}
	dispatcher, out := newTestDispatcher(client, &fakeKeys{})
	loop := NewLoop(dispatcher, testutils.MockLogger())

	input := strings.NewReader("\n   \n  rate   USD   EUR  \nbogus\n")
	err := loop.Run(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, []string{"rate:USD:EUR"}, client.calls)
	assert.Contains(t, out.String(), "Command not recognized. Type help for a list of commands.\n")
}

func TestLoop_Run_Exit(t *testing.T) {
	client := &fakeClient{}
	dispatcher, _ := newTestDispatcher(client, &fakeKeys{})
	loop := NewLoop(dispatcher, testutils.MockLogger())

	input := strings.NewReader("all GBP\nexit\nrate USD EUR\n")
	err := loop.Run(context.Background(), input)

	assert.ErrorIs(t, err, ErrExit)
	assert.Equal(t, []string{"all:GBP"}, client.calls)
}

func TestLoop_Run_ContextCancelled(t *testing.T) {
	dispatcher, _ := newTestDispatcher(&fakeClient{}, &fakeKeys{})
	loop := NewLoop(dispatcher, testutils.MockLogger())

	reader, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx, reader) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
