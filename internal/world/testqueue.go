package world

import "github.com/kentwait/epidemicsim/internal/agent"

// Testee is one entry queued for delayed testing (§3 "Testee record").
type Testee struct {
	AgentIdx  int
	Reason    agent.Reason
	Timestamp int // the step the sample was taken
	Outcome   agent.TestResult
}

// TestQueue is the time-ordered pending-testee list of §4.4. Outcomes are
// pre-sampled at Enqueue time; Accept only applies the acceptance-capacity
// gate and the test-delay elapsed check.
type TestQueue struct {
	pending []Testee
}

func NewTestQueue() *TestQueue { return &TestQueue{} }

// Enqueue appends a testee whose outcome has already been pre-sampled by
// the caller (agent.PreSampleOutcome), preserving timestamp order since
// callers enqueue in step order.
func (q *TestQueue) Enqueue(t Testee) {
	q.pending = append(q.pending, t)
}

// AcceptResult is the per-reason x per-outcome histogram returned by
// Accept.
type AcceptResult struct {
	Counts map[agent.Reason]map[agent.TestResult]int
}

func newAcceptResult() AcceptResult {
	return AcceptResult{Counts: map[agent.Reason]map[agent.TestResult]int{}}
}

func (r *AcceptResult) record(reason agent.Reason, outcome agent.TestResult) {
	m, ok := r.Counts[reason]
	if !ok {
		m = map[agent.TestResult]int{}
		r.Counts[reason] = m
	}
	m[outcome]++
}

// Accept dequeues every testee whose sample-time + tst_delay has elapsed,
// accepting at most dailyCap of them in this call (Step passes its per-step
// share of the daily capacity), notifies the owning agent, and
// returns the {reason} x {Positive, Negative} histogram, per §4.3 step 1
// and §4.4.
func (q *TestQueue) Accept(now int, stepsPerDay, tstDelay float64, dailyCap int, agents []*agent.Agent) AcceptResult {
	result := newAcceptResult()
	delaySteps := int(tstDelay * stepsPerDay)

	accepted := 0
	remaining := q.pending[:0]
	for _, t := range q.pending {
		if accepted >= dailyCap {
			remaining = append(remaining, t)
			continue
		}
		if now < t.Timestamp+delaySteps {
			remaining = append(remaining, t)
			continue
		}
		agent.NotifyResult(agents[t.AgentIdx], now, t.Outcome)
		result.record(t.Reason, t.Outcome)
		accepted++
	}
	q.pending = remaining
	return result
}

// Len reports the number of testees currently pending.
func (q *TestQueue) Len() int { return len(q.pending) }
