package world

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kentwait/epidemicsim/internal/agent"
)

func newTestAgent(id int) *agent.Agent {
	return agent.NewAgent(id, 4)
}

func TestTestQueueAcceptRespectsTestDelay(t *testing.T) {
	q := NewTestQueue()
	agents := []*agent.Agent{newTestAgent(0)}
	q.Enqueue(Testee{AgentIdx: 0, Reason: agent.ReasonSymptom, Timestamp: 0, Outcome: agent.Positive})

	// Delay is 2 days at 1 step/day == 2 steps; at step 1 nothing should be
	// accepted yet.
	r := q.Accept(1, 1, 2, 10, agents)
	assert.Equal(t, 1, q.Len())
	assert.Empty(t, r.Counts)

	r = q.Accept(2, 1, 2, 10, agents)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 1, r.Counts[agent.ReasonSymptom][agent.Positive])
	assert.Equal(t, agent.Positive, *agents[0].Test.UnreadResult)
}

func TestTestQueueAcceptRespectsDailyCap(t *testing.T) {
	q := NewTestQueue()
	agents := make([]*agent.Agent, 3)
	for i := range agents {
		agents[i] = newTestAgent(i)
		q.Enqueue(Testee{AgentIdx: i, Reason: agent.ReasonSuspected, Timestamp: 0, Outcome: agent.Negative})
	}

	r := q.Accept(5, 1, 0, 2, agents)
	total := 0
	for _, byOutcome := range r.Counts {
		for _, n := range byOutcome {
			total += n
		}
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, q.Len())
}

func TestNotifyPositiveResultReservesQuarantine(t *testing.T) {
	a := newTestAgent(0)
	agent.NotifyResult(a, 9, agent.Positive)
	assert.Equal(t, 9, a.QuarantineAt)
	assert.False(t, a.Test.Reserved)
}

func TestNotifyNegativeResultDoesNotReserveQuarantine(t *testing.T) {
	a := newTestAgent(0)
	agent.NotifyResult(a, 9, agent.Negative)
	assert.Equal(t, 0, a.QuarantineAt)
}
