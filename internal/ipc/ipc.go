// Package ipc implements the one-shot rendezvous between a worker process
// and the child "world" process it spawns for one task (spec.md §4.8 "IPC
// one-shot rendezvous + status stream"). It also defines the StatusFrame
// shape; no status stream is carried over the connection.
package ipc

import (
	"context"
	"net"
	"os"
)

// Rendezvous listens on a Unix domain socket for exactly one child
// connection, then stops accepting further ones.
type Rendezvous struct {
	SocketPath string
	listener   net.Listener
}

// NewRendezvous creates the socket at path, removing any stale file left
// behind by a previous run first.
func NewRendezvous(path string) (*Rendezvous, error) {
	_ = os.Remove(path)
	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	return &Rendezvous{SocketPath: path, listener: l}, nil
}

// Accept blocks until the child connects or ctx is cancelled, whichever
// happens first. Calling Accept more than once is not supported; a
// Rendezvous is single-use, matching the "one-shot" contract.
func (r *Rendezvous) Accept(ctx context.Context) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := r.listener.Accept()
		ch <- result{conn, err}
	}()

	select {
	case res := <-ch:
		return res.conn, res.err
	case <-ctx.Done():
		r.listener.Close()
		return nil, ctx.Err()
	}
}

// Close releases the listener and removes the socket file.
func (r *Rendezvous) Close() error {
	err := r.listener.Close()
	_ = os.Remove(r.SocketPath)
	return err
}

// Dial connects to a worker's rendezvous socket from the child world
// process side.
func Dial(path string) (net.Conn, error) {
	return net.Dial("unix", path)
}
