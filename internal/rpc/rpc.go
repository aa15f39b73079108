// Package rpc drives the controller<->worker QUIC streams described in
// spec.md §4.8 and §6 on top of internal/wire's framing: a unidirectional
// hello stream carries a worker's ResourceMeasure once per connection, and
// every subsequent request/response round-trip runs on its own bi-stream.
package rpc

import (
	"context"
	"fmt"

	"github.com/quic-go/quic-go"

	"github.com/kentwait/epidemicsim/internal/wire"
)

// SendHello is called once by a newly connected worker to declare its
// ResourceMeasure over a fresh unidirectional stream.
func SendHello(ctx context.Context, conn quic.Connection, hello wire.HelloResponse) error {
	s, err := conn.OpenUniStreamSync(ctx)
	if err != nil {
		return fmt.Errorf("rpc: open hello stream: %w", err)
	}
	defer s.Close()
	return wire.WriteMessage(s, wire.Response{Kind: wire.KindHello, OK: true, Hello: hello})
}

// ReceiveHello is called once by the controller immediately after accepting
// a worker's connection, to learn that worker's advertised capacity.
func ReceiveHello(ctx context.Context, conn quic.Connection) (wire.HelloResponse, error) {
	s, err := conn.AcceptUniStream(ctx)
	if err != nil {
		return wire.HelloResponse{}, fmt.Errorf("rpc: accept hello stream: %w", err)
	}
	var resp wire.Response
	if err := wire.ReadMessage(s, &resp); err != nil {
		return wire.HelloResponse{}, fmt.Errorf("rpc: read hello: %w", err)
	}
	return resp.Hello, nil
}

// Handler answers one Request on the worker side. Implementations live in
// internal/workerproc.
type Handler interface {
	Handle(ctx context.Context, req wire.Request) wire.Response
}

// Serve runs the worker-side bi-stream accept loop for one controller
// connection until ctx is cancelled or the connection closes.
func Serve(ctx context.Context, conn quic.Connection, h Handler) error {
	for {
		s, err := conn.AcceptStream(ctx)
		if err != nil {
			return err
		}
		go serveStream(ctx, s, h)
	}
}

func serveStream(ctx context.Context, s quic.Stream, h Handler) {
	defer s.Close()
	var req wire.Request
	if err := wire.ReadMessage(s, &req); err != nil {
		return
	}
	resp := h.Handle(ctx, req)
	_ = wire.WriteMessage(s, resp)
}

// Call opens a fresh bi-stream on conn, sends req, and returns the worker's
// single response. Used for Terminate/ReadStatistics/RemoveStatistics and
// the initial Execute acknowledgement.
func Call(ctx context.Context, conn quic.Connection, req wire.Request) (wire.Response, error) {
	s, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return wire.Response{}, fmt.Errorf("rpc: open stream: %w", err)
	}
	defer s.Close()

	if err := wire.WriteMessage(s, req); err != nil {
		return wire.Response{}, fmt.Errorf("rpc: write request: %w", err)
	}
	if err := s.Close(); err != nil {
		// Close here only closes the write side in quic-go's half-close
		// semantics; ignore errors from a connection already winding down.
		_ = err
	}

	var resp wire.Response
	if err := wire.ReadMessage(s, &resp); err != nil {
		return wire.Response{}, fmt.Errorf("rpc: read response: %w", err)
	}
	return resp, nil
}
