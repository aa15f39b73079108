package wire

import "errors"

// ErrResourceSizeExceeded is returned by ResourceMeasure.Measure when a job's
// population would exceed a worker's advertised capacity (spec.md §7).
var ErrResourceSizeExceeded = errors.New("wire: requested population exceeds worker resource capacity")

// Cost is the unit the orchestrator's admission loop reasons about: a
// worker's resource semaphore is weighted in Cost units, not raw agent
// counts, so the same worker can host several smaller jobs concurrently.
type Cost int64

// ResourceMeasure is what a worker reports over its hello stream (§4.5,
// §4.8): the largest population it is willing to host in one job, and the
// total resource budget (in Cost units) it offers the admission loop.
type ResourceMeasure struct {
	MaxWorldParams int
	MaxResource    Cost
}

// Measure converts a requested population into a Cost, or reports that the
// population exceeds what this worker can host at all.
func (m ResourceMeasure) Measure(population int) (Cost, error) {
	if population > m.MaxWorldParams {
		return 0, ErrResourceSizeExceeded
	}
	if m.MaxWorldParams == 0 {
		return 0, nil
	}
	cost := Cost(population) * m.MaxResource / Cost(m.MaxWorldParams)
	if cost < 1 {
		cost = 1
	}
	return cost, nil
}
