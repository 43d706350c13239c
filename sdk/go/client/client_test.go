package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesim/linesim/internal/server"
	"github.com/linesim/linesim/pkg/linesim"
)

func TestDialAndStream(t *testing.T) {
	sim, err := linesim.New(linesim.WithFPS(0))
	require.NoError(t, err)

	srv := server.New("127.0.0.1:0", sim, nil)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	c, err := Dial(context.Background(), srv.Addr())
	require.NoError(t, err)
	defer c.Close()

	// Publish once the server has registered the client.
	go func() {
		for i := 0; i < 100; i++ {
			if err := sim.Update(); err != nil {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	evt, err := c.Next()
	require.NoError(t, err)
	assert.Equal(t, "sim.frame", evt.Type)

	frame, err := evt.Frame()
	require.NoError(t, err)
	assert.InDelta(t, 250, frame.X, 1e-9)
	assert.Greater(t, frame.Frame, uint64(0))
}

func TestNextAfterClose(t *testing.T) {
	sim, err := linesim.New(linesim.WithFPS(0))
	require.NoError(t, err)

	srv := server.New("127.0.0.1:0", sim, nil)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	c, err := Dial(context.Background(), srv.Addr())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = c.Next()
	assert.ErrorIs(t, err, ErrClientClosed)

	assert.ErrorIs(t, c.Close(), ErrClientClosed)
}

func TestDialRefused(t *testing.T) {
	_, err := Dial(context.Background(), "127.0.0.1:1")
	assert.Error(t, err)
}
