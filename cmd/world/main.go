// Command world is the child simulator process spawned once per task by
// cmd/worker (spec.md §4.5, §4.8 "IPC one-shot rendezvous"). It connects
// back to its parent's Unix socket, receives its world parameters, runs
// the step pipeline to completion, and writes its statistics file before
// exiting — the worker observes that exit instead of a separate status
// frame to learn the task finished.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/kentwait/epidemicsim/internal/agent"
	"github.com/kentwait/epidemicsim/internal/ipc"
	"github.com/kentwait/epidemicsim/internal/jobspec"
	"github.com/kentwait/epidemicsim/internal/stats"
	"github.com/kentwait/epidemicsim/internal/wire"
	"github.com/kentwait/epidemicsim/internal/world"
)

func main() {
	socketPath := flag.String("socket", "", "path to the worker's rendezvous Unix socket")
	statPath := flag.String("stat", "", "path to write this run's statistics file")
	iterations := flag.Int("iterations", 0, "number of steps to run, 0 means run until extinction")
	seed := flag.Int64("seed", time.Now().UTC().UnixNano(), "PRNG seed")
	flag.Parse()

	if *socketPath == "" || *statPath == "" {
		log.Fatal("world: -socket and -stat are required")
	}

	conn, err := ipc.Dial(*socketPath)
	if err != nil {
		log.Fatalf("world: dialing rendezvous socket: %v", err)
	}
	defer conn.Close()

	var cfg jobspec.JobConfig
	if err := wire.ReadMessage(conn, &cfg); err != nil {
		log.Fatalf("world: reading config: %v", err)
	}

	rng := agent.NewSeeded(*seed)
	w := world.New("world-0", cfg.World, cfg.Runtime, cfg.Scenario, rng)

	ctx := context.Background()
	maxSteps := *iterations
	for maxSteps <= 0 || w.StepIndex < maxSteps {
		w.Step(ctx)
		if w.IsEnded() {
			break
		}
	}

	rows := stats.FromStepLog(w.StepLog)
	if err := stats.WriteFile(*statPath, rows); err != nil {
		log.Fatalf("world: writing statistics file: %v", err)
	}
}
