package rpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kentwait/epidemicsim/internal/quictransport"
	"github.com/kentwait/epidemicsim/internal/wire"
)

type echoHandler struct {
	got chan wire.Request
}

func (h *echoHandler) Handle(ctx context.Context, req wire.Request) wire.Response {
	h.got <- req
	return wire.Response{Kind: req.Kind, OK: true}
}

func TestHelloAndCallRoundTrip(t *testing.T) {
	tlsConf, err := quictransport.GenerateInsecureTLSConfig()
	require.NoError(t, err)

	listener, err := quictransport.Listen("127.0.0.1:0", tlsConf)
	require.NoError(t, err)
	defer listener.Close()

	clientTLS, err := quictransport.GenerateInsecureTLSConfig()
	require.NoError(t, err)
	clientTLS.InsecureSkipVerify = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	acceptErr := make(chan error, 1)
	var serverHello wire.HelloResponse
	go func() {
		conn, err := listener.Accept(ctx)
		if err != nil {
			acceptErr <- err
			return
		}
		serverHello, err = ReceiveHello(ctx, conn)
		if err != nil {
			acceptErr <- err
			return
		}
		h := &echoHandler{got: make(chan wire.Request, 1)}
		acceptErr <- Serve(ctx, conn, h)
	}()

	clientConn, err := quictransport.Dial(ctx, listener.Addr().String(), clientTLS)
	require.NoError(t, err)
	defer clientConn.CloseWithError(0, "test done")

	wantMeasure := wire.ResourceMeasure{MaxWorldParams: 1000, MaxResource: 4}
	require.NoError(t, SendHello(ctx, clientConn, wire.HelloResponse{Measure: wantMeasure}))

	resp, err := Call(ctx, clientConn, wire.Request{Kind: wire.KindTerminate, TaskID: "task-1"})
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, wire.KindTerminate, resp.Kind)

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, wantMeasure, serverHello.Measure)
}
