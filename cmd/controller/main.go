// Command controller is the C6 job/task orchestrator: it serves the HTTP
// API surface (C7), persists jobs and tasks, and accepts worker
// connections over QUIC (C8), handing each one a resource lease pool
// (spec.md §4.6).
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/quic-go/quic-go"
	"go.uber.org/zap"

	"github.com/kentwait/epidemicsim/internal/api"
	"github.com/kentwait/epidemicsim/internal/orchestrator"
	"github.com/kentwait/epidemicsim/internal/quictransport"
	"github.com/kentwait/epidemicsim/internal/rpc"
	"github.com/kentwait/epidemicsim/internal/store"
)

func main() {
	httpAddr := flag.String("http", ":8080", "HTTP API listen address")
	quicAddr := flag.String("quic", ":9443", "QUIC listen address for worker connections")
	dsn := flag.String("dsn", "", "Postgres connection string; empty uses an in-memory store")
	insecure := flag.Bool("insecure", true, "use an ephemeral self-signed TLS config instead of a pinned root CA")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("controller: building logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	js, err := openStore(ctx, *dsn)
	if err != nil {
		logger.Fatal("opening job store", zap.Error(err))
	}

	workers := orchestrator.NewWorkerManager(nil)
	mgr := orchestrator.NewManager(ctx, js, workers, logger)

	if !*insecure {
		logger.Fatal("pinned root-CA TLS configuration is not implemented; run with -insecure for now")
	}
	tlsConf, err := quictransport.GenerateInsecureTLSConfig()
	if err != nil {
		logger.Fatal("generating TLS config", zap.Error(err))
	}

	listener, err := quictransport.Listen(*quicAddr, tlsConf)
	if err != nil {
		logger.Fatal("listening for workers", zap.String("addr", *quicAddr), zap.Error(err))
	}
	go acceptWorkers(ctx, listener, workers, logger)

	srv := &http.Server{Addr: *httpAddr, Handler: api.NewRouter(mgr)}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
		_ = listener.Close()
	}()

	logger.Info("controller listening", zap.String("http", *httpAddr), zap.String("quic", *quicAddr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("http server", zap.Error(err))
	}
}

func openStore(ctx context.Context, dsn string) (store.JobStore, error) {
	if dsn == "" {
		return store.NewMemStore(), nil
	}
	return store.OpenPostgres(ctx, dsn)
}

// acceptWorkers runs the worker-connection accept loop: every connecting
// worker declares its ResourceMeasure over a hello stream (spec.md §4.8)
// before it is registered with the admission loop.
func acceptWorkers(ctx context.Context, listener *quic.Listener, workers *orchestrator.WorkerManager, logger *zap.Logger) {
	var nextIndex int32 = -1
	for {
		conn, err := listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("accepting worker connection", zap.Error(err))
			continue
		}
		go func() {
			hello, err := rpc.ReceiveHello(ctx, conn)
			if err != nil {
				logger.Warn("worker hello handshake failed", zap.Error(err))
				_ = conn.CloseWithError(1, "hello handshake failed")
				return
			}
			index := int(atomic.AddInt32(&nextIndex, 1))
			client := orchestrator.NewWorkerClient(index, rpc.NewWorkerConn(conn), hello.Measure)
			workers.AddWorker(client)
			logger.Info("worker registered",
				zap.Int("worker_index", index),
				zap.Int("max_population", hello.Measure.MaxWorldParams),
				zap.Int64("max_resource", int64(hello.Measure.MaxResource)),
			)

			<-conn.Context().Done()
			workers.RemoveWorker(index)
			logger.Info("worker disconnected", zap.Int("worker_index", index))
		}()
	}
}
