package ipc

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendezvousAcceptsOneConnection(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "world.sock")
	r, err := NewRendezvous(sock)
	require.NoError(t, err)
	defer r.Close()

	accepted := make(chan error, 1)
	go func() {
		_, err := r.Accept(context.Background())
		accepted <- err
	}()

	conn, err := Dial(sock)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, <-accepted)
}

func TestRendezvousAcceptRespectsContextCancellation(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "world.sock")
	r, err := NewRendezvous(sock)
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = r.Accept(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
