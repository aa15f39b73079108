package world

import "github.com/kentwait/epidemicsim/internal/agent"

// HealthType is the column enumeration for the statistics file (§3
// "StepLog", §6 persisted-state contract).
type HealthType int

const (
	HTSusceptible HealthType = iota
	HTAsymptomatic
	HTSymptomatic
	HTRecovered
	HTDied
	HTVaccinated
	numHealthTypes
)

// HealthTypeNames is the CSV header order, matching the scenario in
// spec.md §8: "Susceptible,Asymptomatic,Symptomatic,Recovered,Died,Vaccinated".
var HealthTypeNames = [numHealthTypes]string{
	"Susceptible", "Asymptomatic", "Symptomatic", "Recovered", "Died", "Vaccinated",
}

// Row is one step's health-type population counts.
type Row [numHealthTypes]int64

// Histogram buckets a day-count distribution (incubation/recovery/death
// days) into integer-day bins.
type Histogram map[int]int

func (h Histogram) Add(days float64) {
	h[int(days)]++
}

// StepLog accumulates per-step rows plus the incubation/recovery/death
// histograms named in §3.
type StepLog struct {
	Rows       []Row
	Incubation Histogram
	Recovery   Histogram
	Death      Histogram
}

func NewStepLog() *StepLog {
	return &StepLog{
		Incubation: Histogram{},
		Recovery:   Histogram{},
		Death:      Histogram{},
	}
}

// Classify maps an agent's current health sub-state to a HealthType column.
func Classify(a *agent.Agent) HealthType {
	switch a.Health.Kind {
	case agent.Susceptible:
		return HTSusceptible
	case agent.Infected:
		if a.Health.Infection.Symptomatic {
			return HTSymptomatic
		}
		return HTAsymptomatic
	case agent.Recovered:
		return HTRecovered
	case agent.Vaccinated:
		return HTVaccinated
	case agent.Died:
		return HTDied
	default:
		return HTSusceptible
	}
}

// Push appends the current population classification as a new row, per
// §4.3 step 8 "Log push".
func (l *StepLog) Push(agents []*agent.Agent) {
	var row Row
	for _, a := range agents {
		row[Classify(a)]++
	}
	l.Rows = append(l.Rows, row)
}

// StepCount returns the number of rows logged so far, used by the
// "monotone step" invariant (health-count log length equals step count).
func (l *StepLog) StepCount() int {
	return len(l.Rows)
}
