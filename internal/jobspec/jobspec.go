// Package jobspec carries the user-facing job configuration shared by the
// API, the orchestrator, and the wire protocol, per SPEC_FULL.md §3.
package jobspec

import "github.com/kentwait/epidemicsim/internal/world"

// JobConfig is the JSON payload accepted by POST /jobs and the config
// persisted alongside a job row.
type JobConfig struct {
	IterationCount int                 `json:"iteration_count"`
	World          world.WorldParams   `json:"world"`
	Runtime        world.RuntimeParams `json:"runtime"`
	Scenario       []int               `json:"scenario,omitempty"`
}
