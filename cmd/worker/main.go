// Command worker is the C5 worker runtime: it dials the controller over
// QUIC, declares its resource capacity on a hello stream, then serves
// Execute/Terminate/ReadStatistics/RemoveStatistics requests by spawning
// and driving cmd/world child processes (spec.md §4.5, §4.8).
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kentwait/epidemicsim/internal/quictransport"
	"github.com/kentwait/epidemicsim/internal/rpc"
	"github.com/kentwait/epidemicsim/internal/wire"
	"github.com/kentwait/epidemicsim/internal/workerproc"
)

func main() {
	controllerAddr := flag.String("controller", "127.0.0.1:9443", "controller QUIC listen address")
	statDir := flag.String("stat-dir", "./stat", "directory to write per-task statistics files")
	worldBinary := flag.String("world-bin", "./world", "path to the cmd/world binary")
	maxPopulation := flag.Int("max-population", 100000, "largest population this worker will host in one job")
	maxResource := flag.Int64("max-resource", 8, "total resource budget this worker offers the admission loop")
	insecure := flag.Bool("insecure", true, "use an ephemeral self-signed TLS config instead of a pinned root CA")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("worker: building logger: %v", err)
	}
	defer logger.Sync()

	if err := os.MkdirAll(*statDir, 0o755); err != nil {
		logger.Fatal("creating stat directory", zap.Error(err))
	}

	measure := wire.ResourceMeasure{
		MaxWorldParams: *maxPopulation,
		MaxResource:    wire.Cost(*maxResource),
	}
	runtime := workerproc.NewRuntime(*worldBinary, *statDir, measure, logger)

	if !*insecure {
		logger.Fatal("pinned root-CA TLS configuration is not implemented; run with -insecure for now")
	}
	tlsConf, err := quictransport.GenerateInsecureTLSConfig()
	if err != nil {
		logger.Fatal("generating TLS config", zap.Error(err))
	}
	// Client side only needs to trust a single self-signed cert for local
	// development; production deployments supply a root-CA-pinned config
	// in place of InsecureSkipVerify.
	tlsConf.InsecureSkipVerify = true

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := quictransport.Dial(ctx, *controllerAddr, tlsConf)
	if err != nil {
		logger.Fatal("dialing controller", zap.String("addr", *controllerAddr), zap.Error(err))
	}
	defer conn.CloseWithError(0, "worker shutting down")

	if err := rpc.SendHello(ctx, conn, wire.HelloResponse{Measure: measure}); err != nil {
		logger.Fatal("sending hello", zap.Error(err))
	}
	logger.Info("worker connected to controller",
		zap.String("controller", *controllerAddr),
		zap.Int("max_population", *maxPopulation),
		zap.Int64("max_resource", *maxResource),
	)

	if err := rpc.Serve(ctx, conn, runtime); err != nil {
		logger.Info("controller connection closed", zap.Error(err))
	}
}
