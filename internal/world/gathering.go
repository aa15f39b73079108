package world

import (
	"math"

	"github.com/kentwait/epidemicsim/internal/agent"
)

// Gathering is a transient circular influence region (§3, glossary).
type Gathering struct {
	ID       int
	Center   agent.Point
	Radius   float64
	Strength float64
	Duration float64 // days remaining
	alive    bool
}

// Gatherings owns the world's live gathering set, addressed by stable ID so
// that an agent can hold a plain int reference without creating a cycle
// (spec.md §9 "Cyclic agent<->gathering references").
type Gatherings struct {
	byID  map[int]*Gathering
	nextID int
}

func NewGatherings() *Gatherings {
	return &Gatherings{byID: make(map[int]*Gathering)}
}

// Get resolves a gathering id, returning (nil, false) once it has expired —
// this is the "validity checked on step" mechanism from §9.
func (g *Gatherings) Get(id int) (*Gathering, bool) {
	gg, ok := g.byID[id]
	if !ok || !gg.alive {
		return nil, false
	}
	return gg, true
}

// All returns every currently-alive gathering.
func (g *Gatherings) All() []*Gathering {
	out := make([]*Gathering, 0, len(g.byID))
	for _, gg := range g.byID {
		if gg.alive {
			out = append(out, gg)
		}
	}
	return out
}

func (g *Gatherings) Clear() {
	g.byID = make(map[int]*Gathering)
}

// Add creates a new gathering and returns its stable id.
func (g *Gatherings) Add(center agent.Point, radius, strength, duration float64) int {
	id := g.nextID
	g.nextID++
	g.byID[id] = &Gathering{ID: id, Center: center, Radius: radius, Strength: strength, Duration: duration, alive: true}
	return id
}

// Step expires gatherings whose duration has elapsed and decrements the
// rest, per §4.3 step 2.
func (g *Gatherings) Step(daysPerStep float64) {
	for id, gg := range g.byID {
		if !gg.alive {
			continue
		}
		gg.Duration -= daysPerStep
		if gg.Duration <= 0 {
			gg.alive = false
			delete(g.byID, id)
		}
	}
}

// ExpectedCount draws the Poisson-ish gathering count for a step from an
// exponential distribution with the given mean, per §4.3 step 2.
func ExpectedCount(meanFactor, daysPerStep, fieldSize float64, src agent.Source) int {
	mean := meanFactor * daysPerStep * (fieldSize * fieldSize / 1e5)
	if mean <= 0 {
		return 0
	}
	u := src.Float64()
	if u <= 0 {
		u = 1e-9
	}
	n := -math.Log(u) * mean
	return int(math.Round(n))
}

// ChooseSpot selects a new gathering's center: a fixed spot with
// probability (1 - gatRndRt), else a random agent's origin, else a uniform
// point, per §4.3 step 2.
func ChooseSpot(spots []agent.Point, agents []*agent.Agent, fieldSize, gatRndRt float64, src agent.Source) agent.Point {
	if len(spots) > 0 && src.Float64() >= gatRndRt {
		return spots[src.Intn(len(spots))]
	}
	if len(agents) > 0 {
		if a := agents[src.Intn(len(agents))]; a.Origin != nil {
			return *a.Origin
		}
	}
	return agent.Point{X: src.Float64() * fieldSize, Y: src.Float64() * fieldSize}
}
