package world

import (
	"context"
	"math"

	"github.com/kentwait/epidemicsim/internal/agent"
	"github.com/kentwait/epidemicsim/internal/grid"
)

// StepResult summarizes one executed step, useful for logging/testing.
type StepResult struct {
	TestAccept AcceptResult
	Onsets     int
	Recoveries int
	Deaths     int
}

// Step runs exactly one iteration of the pipeline described in §4.3,
// phases 1-8 in order.
func (w *World) Step(ctx context.Context) StepResult {
	var result StepResult

	// Phase 1: test queue accept.
	capacity := testAcceptanceCap(w)
	result.TestAccept = w.TestQueue.Accept(w.StepIndex, w.RuntimeParams.StepsPerDay, w.RuntimeParams.Test.TstDelay, capacity, w.Agents)

	// Phase 2: gatherings (only when not in a go-home-back scripted phase).
	if !w.inGoHomeBackPhase() {
		w.stepGatherings()
	}

	// Phase 3: vaccine distribution.
	w.stepVaccination()

	// Phase 4: field parallel interaction phase.
	w.stepInteractions(ctx)

	// Phase 5: per-agent field step.
	w.stepFieldAgents(&result)

	// Phase 6: hospital step.
	w.stepHospital(&result)

	// Phase 7: warp step.
	w.stepWarps()

	// Phase 8: log push.
	w.StepLog.Push(w.Agents)

	w.StepIndex++
	return result
}

// testAcceptanceCap converts the configured per-1000-population daily
// testing capacity into an absolute per-step acceptance count.
func testAcceptanceCap(w *World) int {
	daily := float64(len(w.Agents)) / 1000 * w.WorldParams.TstCapa
	if w.RuntimeParams.StepsPerDay > 0 {
		return int(daily / w.RuntimeParams.StepsPerDay)
	}
	return int(daily)
}

func (w *World) inGoHomeBackPhase() bool {
	return w.ScenarioIndex < len(w.Scenario) && w.Scenario[w.ScenarioIndex] == scenarioGoHomeBack
}

const scenarioGoHomeBack = 1

func (w *World) stepGatherings() {
	w.Gatherings.Step(w.RuntimeParams.DaysPerStep)

	n := ExpectedCount(w.WorldParams.GatFr, w.RuntimeParams.DaysPerStep, w.WorldParams.FieldSize, w.rng)
	for i := 0; i < n; i++ {
		spot := ChooseSpot(w.WorldParams.GatSpots, w.Agents, w.WorldParams.FieldSize, w.WorldParams.GatRndRt, w.rng)
		radius := 2 + w.rng.Float64()*3
		strength := 0.5 + w.rng.Float64()*0.5
		duration := 1 + w.rng.Float64()*2
		id := w.Gatherings.Add(spot, radius, strength, duration)
		w.broadcastGathering(id, spot, radius)
	}
}

// broadcastGathering lets every symptom-free agent within the gathering's
// circle adopt it with a probability correlated to gathering frequency.
func (w *World) broadcastGathering(id int, center agent.Point, radius float64) {
	minRow, minCol := w.Grid.Quantize(center.X-radius, center.Y-radius)
	maxRow, maxCol := w.Grid.Quantize(center.X+radius, center.Y+radius)
	for r := minRow; r <= maxRow; r++ {
		for c := minCol; c <= maxCol; c++ {
			for _, idx := range w.Grid.At(r, c).Agents {
				a := w.Agents[idx]
				if a.Health.Kind == agent.Infected && a.Health.Infection.Symptomatic {
					continue
				}
				if a.Body.Pos.Dist(center) > radius {
					continue
				}
				if w.rng.Float64() < a.GatherFreq {
					a.GatheringID = id
				}
			}
		}
	}
}

func (w *World) stepVaccination() {
	for i := range w.WorldParams.Strategies {
		s := &w.WorldParams.Strategies[i]
		q, ok := w.VaccineQueues[s.Priority]
		if !ok {
			continue
		}
		target := TargetDoses(s, len(w.Agents), w.RuntimeParams.DaysPerStep)
		for _, idx := range q.Issue(target, s.Regularity, w.rng) {
			w.Agents[idx].Vaccine.PendingTicket = &agent.VaccineTicket{VaccineType: s.VaccineType, IssuedStep: w.StepIndex}
		}
	}
}

func (w *World) stepInteractions(ctx context.Context) {
	ap := w.WorldParams.agentParams(w.RuntimeParams)
	// Pending vaccine tickets of field agents are consumed before any
	// infection admission of this step.
	for _, a := range w.Agents {
		if a.Location == agent.Field {
			agent.ConsumeVaccineTicket(a, w.StepIndex, ap)
		}
	}
	// Agents sharing a cell interact here; Pairs only yields distinct cells.
	for r := 0; r < w.WorldParams.Mesh; r++ {
		for c := 0; c < w.WorldParams.Mesh; c++ {
			agents := w.Grid.At(r, c).Agents
			for x, i := range agents {
				for _, j := range agents[x+1:] {
					w.interactPair(i, j, ap)
				}
			}
		}
	}
	for _, d := range grid.Directions() {
		_ = grid.ForEachPair(ctx, w.WorldParams.Mesh, d, func(p grid.Pair) error {
			w.interactCells(p, ap)
			return nil
		})
	}
}

// interactCells runs pairwise interaction between the agents of two distinct
// adjacent cells, per §4.3 step 4: infection admission in both directions
// and contact logging. It accumulates no avoidance force and records no best
// target; agents sharing one cell are paired in stepInteractions.
func (w *World) interactCells(p grid.Pair, ap agent.Params) {
	cellA := w.Grid.At(p.RowA, p.ColA).Agents
	cellB := w.Grid.At(p.RowB, p.ColB).Agents
	for _, i := range cellA {
		for _, j := range cellB {
			if i == j {
				continue
			}
			w.interactPair(i, j, ap)
		}
	}
}

func (w *World) interactPair(i, j int, ap agent.Params) {
	a, b := w.Agents[i], w.Agents[j]
	d := a.Body.Pos.Dist(b.Body.Pos)

	if a.Health.Kind == agent.Susceptible && agent.InfectionAdmission(a, b, d, ap, w.rng) {
		agent.Infect(a, b.Health.Infection.Variant, ap)
	}
	if b.Health.Kind == agent.Susceptible && agent.InfectionAdmission(b, a, d, ap, w.rng) {
		agent.Infect(b, a.Health.Infection.Variant, ap)
	}

	if d < w.RuntimeParams.InfecDst && w.rng.Float64() < w.WorldParams.CntctTrc {
		a.Contact.Push(agent.ContactEntry{OtherID: j, Step: w.StepIndex})
		b.Contact.Push(agent.ContactEntry{OtherID: i, Step: w.StepIndex})
	}
}

func (w *World) stepFieldAgents(result *StepResult) {
	ap := w.WorldParams.agentParams(w.RuntimeParams)
	lp := w.WorldParams.locomotion(w.RuntimeParams)
	tp := w.RuntimeParams.Test

	for row := 0; row < w.WorldParams.Mesh; row++ {
		for col := 0; col < w.WorldParams.Mesh; col++ {
			cell := w.Grid.At(row, col)
			for _, idx := range append([]int(nil), cell.Agents...) {
				w.stepOneFieldAgent(idx, row, col, ap, lp, tp, result)
			}
		}
	}
}

func (w *World) stepOneFieldAgent(idx, row, col int, ap agent.Params, lp agent.LocomotionParams, tp agent.TestParams, result *StepResult) {
	a := w.Agents[idx]
	agent.ConsumeVaccineTicket(a, w.StepIndex, ap)

	if a.QuarantineAt != 0 {
		w.quarantine(idx, row, col)
		return
	}

	if agent.CanReserve(a, w.StepIndex, tp) {
		if reason, ok := agent.SampleReason(a, tp, w.rng); ok {
			outcome := agent.PreSampleOutcome(a, w.WorldParams.Variants, tp, w.rng)
			a.Test.Reserved = true
			w.TestQueue.Enqueue(Testee{AgentIdx: idx, Reason: reason, Timestamp: w.StepIndex, Outcome: outcome})
		}
	}

	switch a.Health.Kind {
	case agent.Infected:
		inHospital := false
		ev := agent.InfectedStep(a, ap, inHospital, w.rng)
		w.recordEvent(ev, a, result)
		if ev == agent.EventDied {
			w.moveFieldToContainer(idx, row, col, &w.Cemetery)
			return
		}
	case agent.Recovered:
		agent.RecoveredStep(a, ap, w.rng, func(ag *agent.Agent, s agent.Source) {
			agent.RedrawDaysTo(ag, s)
		})
	case agent.Vaccinated:
		agent.VaccinatedStep(a, ap)
	}

	w.maybeWarp(idx, row, col)
	w.moveWithinField(idx, row, col, lp)
}

func (w *World) recordEvent(ev agent.StepResult, a *agent.Agent, result *StepResult) {
	switch ev {
	case agent.EventOnset:
		w.StepLog.Incubation.Add(a.Days.Onset)
		result.Onsets++
	case agent.EventRecoveredSymptomatic:
		w.StepLog.Recovery.Add(a.Health.Recovery.DaysRecovered)
		result.Recoveries++
	case agent.EventRecoveredAsymptomatic:
		result.Recoveries++
	case agent.EventDied:
		w.StepLog.Death.Add(a.Health.Infection.DaysDiseased)
		result.Deaths++
	}
}

func (w *World) quarantine(idx, row, col int) {
	a := w.Agents[idx]
	for _, c := range a.Contact.Drain() {
		outcome := agent.PreSampleOutcome(w.Agents[c.OtherID], w.WorldParams.Variants, w.RuntimeParams.Test, w.rng)
		w.TestQueue.Enqueue(Testee{AgentIdx: c.OtherID, Reason: agent.ReasonContact, Timestamp: w.StepIndex, Outcome: outcome})
	}
	a.QuarantineAt = 0
	origin := a.Body.Pos
	w.startWarp(idx, row, col, agent.WarpToHospital, origin)
}

func (w *World) maybeWarp(idx, row, col int) {
	a := w.Agents[idx]
	if a.WarpGoal != nil {
		return
	}
	const pNewRandom = 0.001
	const pGoHome = 0.001
	switch {
	case w.rng.Float64() < pNewRandom:
		target := agent.Point{X: w.rng.Float64() * w.WorldParams.FieldSize, Y: w.rng.Float64() * w.WorldParams.FieldSize}
		w.startWarp(idx, row, col, agent.WarpToCell, target)
	case a.Origin != nil && w.rng.Float64() < pGoHome:
		w.startWarp(idx, row, col, agent.WarpToCell, *a.Origin)
	}
}

func (w *World) startWarp(idx, row, col int, mode agent.WarpMode, target agent.Point) {
	a := w.Agents[idx]
	w.Grid.At(row, col).Remove(idx)
	a.Location = agent.Warp
	a.WarpGoal = &agent.WarpGoal{Mode: mode, Target: target}
	w.WarpSet = append(w.WarpSet, idx)
}

func (w *World) moveFieldToContainer(idx, row, col int, dst *[]int) {
	w.Grid.At(row, col).Remove(idx)
	*dst = append(*dst, idx)
}

func (w *World) moveWithinField(idx, row, col int, lp agent.LocomotionParams) {
	a := w.Agents[idx]
	if a.Location != agent.Field {
		return
	}
	var f agent.Force
	if a.GatheringID >= 0 {
		if g, ok := w.Gatherings.Get(a.GatheringID); ok {
			f.GatheringAttraction(a.Body.Pos, g.Center, g.Radius, g.Strength)
		} else {
			a.GatheringID = -1
		}
	}
	f.HomeAttraction(a.Body.Pos, a.Origin, lp.HomeAttractionCap)
	f.WallRepulsion(a.Body.Pos, lp.FieldSize, agent.AgentRadius)
	agent.Advance(a, f, lp)

	newRow, newCol := w.Grid.Quantize(a.Body.Pos.X, a.Body.Pos.Y)
	if newRow != row || newCol != col {
		w.Grid.Move(idx, row, col, newRow, newCol)
	}
}

func (w *World) stepHospital(result *StepResult) {
	ap := w.WorldParams.agentParams(w.RuntimeParams)
	remaining := w.Hospital[:0]
	for _, idx := range append([]int(nil), w.Hospital...) {
		a := w.Agents[idx]
		ev := agent.InfectedStep(a, ap, true, w.rng)
		w.recordEvent(ev, a, result)
		switch ev {
		case agent.EventRecoveredAsymptomatic, agent.EventRecoveredSymptomatic:
			target := a.Body.Pos
			if a.Origin != nil {
				target = *a.Origin
			}
			a.Location = agent.Warp
			a.WarpGoal = &agent.WarpGoal{Mode: agent.WarpToCell, Target: target}
			w.WarpSet = append(w.WarpSet, idx)
		case agent.EventDied:
			w.Cemetery = append(w.Cemetery, idx)
		default:
			remaining = append(remaining, idx)
		}
	}
	w.Hospital = remaining
}

func (w *World) stepWarps() {
	speed := w.WorldParams.FieldSize / 5 * w.RuntimeParams.DaysPerStep
	remaining := w.WarpSet[:0]
	for _, idx := range append([]int(nil), w.WarpSet...) {
		a := w.Agents[idx]
		g := a.WarpGoal
		if g == nil {
			continue
		}
		dx, dy := g.Target.X-a.Body.Pos.X, g.Target.Y-a.Body.Pos.Y
		dist := math.Hypot(dx, dy)
		if dist <= speed || dist == 0 {
			a.Body.Pos = g.Target
			w.arriveWarp(idx, g.Mode)
			continue
		}
		a.Body.Pos.X += dx / dist * speed
		a.Body.Pos.Y += dy / dist * speed
		remaining = append(remaining, idx)
	}
	w.WarpSet = remaining
}

func (w *World) arriveWarp(idx int, mode agent.WarpMode) {
	a := w.Agents[idx]
	a.WarpGoal = nil
	switch mode {
	case agent.WarpToHospital:
		a.Location = agent.Hospital
		w.Hospital = append(w.Hospital, idx)
	case agent.WarpToCemetery:
		a.Location = agent.Cemetery
		w.Cemetery = append(w.Cemetery, idx)
	default:
		a.Location = agent.Field
		row, col := w.Grid.Quantize(a.Body.Pos.X, a.Body.Pos.Y)
		w.Grid.At(row, col).Add(idx)
	}
}
