package world

import (
	"math"
	"sort"

	"github.com/kentwait/epidemicsim/internal/agent"
)

// VaccineQueue is an ordered cursor over agent indices used to hand out
// vaccine tickets (glossary "Priority queue (vaccination)").
type VaccineQueue struct {
	order  []int
	cursor int
}

// BuildVaccineQueues rebuilds every priority ordering named in §4.3 "Reset":
// Random and Booster use a shuffled order, Central sorts by distance from
// the field center, and the rest use insertion (population) order.
func BuildVaccineQueues(agents []*agent.Agent, fieldCenter agent.Point, src agent.Source) map[agent.VaccinationPriority]*VaccineQueue {
	base := make([]int, len(agents))
	for i := range base {
		base[i] = i
	}

	shuffled := append([]int(nil), base...)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	central := append([]int(nil), base...)
	sort.Slice(central, func(i, j int) bool {
		di := agents[central[i]].Body.Pos.Dist(fieldCenter)
		dj := agents[central[j]].Body.Pos.Dist(fieldCenter)
		return di < dj
	})

	insertionOrder := append([]int(nil), base...)

	return map[agent.VaccinationPriority]*VaccineQueue{
		agent.PriorityRandom:            {order: shuffled},
		agent.PriorityBooster:           {order: append([]int(nil), shuffled...)},
		agent.PriorityCentral:           {order: central},
		agent.PriorityOlder:             {order: insertionOrder},
		agent.PriorityPopulationDensity: {order: insertionOrder},
	}
}

// Issue steps the queue's cursor forward n times, returning the agent
// indices visited. When regularity < 1, Issue randomly skips ahead
// between issuances per §4.3 step 3.
func (q *VaccineQueue) Issue(n int, regularity float64, src agent.Source) []int {
	var out []int
	for i := 0; i < n && q.cursor < len(q.order); i++ {
		out = append(out, q.order[q.cursor])
		q.cursor++
		if regularity < 1 {
			q.cursor += 1 + src.Intn(max(1, len(q.order)/2))
		}
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// TargetDoses computes this step's target dose count and the carried
// fractional remainder, per §4.3 step 3:
// target = floor(population * perform_rate * days_per_step + carry).
func TargetDoses(s *VaccinationStrategy, population int, daysPerStep float64) int {
	raw := float64(population)*s.PerformRate*daysPerStep + s.carry
	n := math.Floor(raw)
	s.carry = raw - n
	return int(n)
}
