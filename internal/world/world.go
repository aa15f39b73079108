package world

import (
	"github.com/kentwait/epidemicsim/internal/agent"
	"github.com/kentwait/epidemicsim/internal/grid"
)

// World owns one simulated population and every sub-population container
// named in §4.3.
type World struct {
	ID string

	WorldParams   WorldParams
	RuntimeParams RuntimeParams

	Agents []*agent.Agent
	Grid   *grid.Grid

	Hospital []int // agent indices
	WarpSet  []int
	Cemetery []int

	TestQueue  *TestQueue
	Gatherings *Gatherings
	StepLog    *StepLog

	Scenario      []int
	ScenarioIndex int

	VaccineQueues map[agent.VaccinationPriority]*VaccineQueue

	StepIndex int

	rng agent.Source
}

// New allocates a population of WorldParams.InitNPop agents over a fresh
// grid and resets it to its initial distribution.
func New(id string, wp WorldParams, rp RuntimeParams, scenario []int, rng agent.Source) *World {
	w := &World{
		ID:            id,
		WorldParams:   wp,
		RuntimeParams: rp,
		Agents:        make([]*agent.Agent, wp.InitNPop),
		Grid:          grid.New(wp.Mesh, wp.FieldSize),
		TestQueue:     NewTestQueue(),
		Gatherings:    NewGatherings(),
		StepLog:       NewStepLog(),
		Scenario:      scenario,
		rng:           rng,
	}
	for i := range w.Agents {
		w.Agents[i] = agent.NewAgent(i, wp.ContactRingCap)
	}
	w.Reset()
	return w
}

// Reset clears sub-populations back into the field, re-seeds the initial
// distribution, classifies infected/recovered counts by reservoir
// sampling, allocates symptomatic/asymptomatic quarantine admissions to
// the Hospital, and rebuilds the vaccination priority queues, per §4.3
// "Reset".
func (w *World) Reset() {
	w.Gatherings.Clear()
	w.Grid.Clear()
	w.Hospital = w.Hospital[:0]
	w.WarpSet = w.WarpSet[:0]
	w.Cemetery = w.Cemetery[:0]
	w.StepIndex = 0
	w.ScenarioIndex = 0
	w.TestQueue = NewTestQueue()
	w.StepLog = NewStepLog()

	n := len(w.Agents)
	nInfected := int(float64(n) * w.WorldParams.InfectedFrac)
	nRecoveredCap := int(float64(n) * w.WorldParams.RecoveredFrac)
	if nInfected+nRecoveredCap > n {
		nRecoveredCap = n - nInfected
	}

	infectedIdx := map[int]bool{}
	for _, i := range agent.ReservoirSampleIndices(n, nInfected, w.rng) {
		infectedIdx[i] = true
	}
	remaining := make([]int, 0, n-nInfected)
	for i := 0; i < n; i++ {
		if !infectedIdx[i] {
			remaining = append(remaining, i)
		}
	}
	recoveredIdx := map[int]bool{}
	for _, ri := range agent.ReservoirSampleIndices(len(remaining), nRecoveredCap, w.rng) {
		recoveredIdx[remaining[ri]] = true
	}

	geom := w.WorldParams.geometry()
	ap := w.WorldParams.agentParams(w.RuntimeParams)

	nSymptomatic := 0
	classes := make([]agent.InitialClass, n)
	for i, a := range w.Agents {
		switch {
		case infectedIdx[i]:
			symptomatic := w.rng.Float64() < 0.5
			if symptomatic {
				nSymptomatic++
				classes[i] = agent.ClassInfectedSymptomatic
			} else {
				classes[i] = agent.ClassInfectedAsymptomatic
			}
		case recoveredIdx[i]:
			classes[i] = agent.ClassRecovered
		default:
			classes[i] = agent.ClassSusceptible
		}
		agent.Reset(a, classes[i], geom, ap, w.rng)
	}

	nQSymptomatic := int(float64(nSymptomatic) * w.WorldParams.QSymptomatic)
	nQAsymptomatic := int(float64(nInfected-nSymptomatic) * w.WorldParams.QAsymptomatic)
	for i := range w.Agents {
		switch classes[i] {
		case agent.ClassInfectedSymptomatic:
			if nQSymptomatic > 0 {
				nQSymptomatic--
				w.admitHospital(i)
				continue
			}
		case agent.ClassInfectedAsymptomatic:
			if nQAsymptomatic > 0 {
				nQAsymptomatic--
				w.admitHospital(i)
				continue
			}
		}
		w.placeInField(i)
	}

	center := agent.Point{X: w.WorldParams.FieldSize / 2, Y: w.WorldParams.FieldSize / 2}
	w.VaccineQueues = BuildVaccineQueues(w.Agents, center, w.rng)
}

func (w *World) admitHospital(idx int) {
	w.Agents[idx].Location = agent.Hospital
	w.Hospital = append(w.Hospital, idx)
}

func (w *World) placeInField(idx int) {
	a := w.Agents[idx]
	a.Location = agent.Field
	row, col := w.Grid.Quantize(a.Body.Pos.X, a.Body.Pos.Y)
	w.Grid.At(row, col).Add(idx)
}

// IsEnded implements §4.3 "Termination predicate": true iff total infected
// (asymptomatic + symptomatic) is zero.
func (w *World) IsEnded() bool {
	for _, a := range w.Agents {
		if a.Health.Kind == agent.Infected {
			return false
		}
	}
	return true
}

// PopulationInvariant checks §3/§8 population conservation: the sizes of
// the field, hospital, warp and cemetery containers sum to the initial
// population. It does not check that each agent sits in exactly one of
// them.
func (w *World) PopulationInvariant() bool {
	total := w.Grid.Len() + len(w.Hospital) + len(w.WarpSet) + len(w.Cemetery)
	return total == len(w.Agents)
}
