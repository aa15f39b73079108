package world

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kentwait/epidemicsim/internal/agent"
)

func defaultWorldParams() WorldParams {
	return WorldParams{
		FieldSize:      20,
		Mesh:           4,
		InitNPop:       60,
		InfectedFrac:   0.2,
		RecoveredFrac:  0.1,
		DistancingFrac: 0,
		QSymptomatic:   0.5,
		QAsymptomatic:  0.25,
		GatFr:          0.1,
		GatRndRt:       0.5,
		CntctTrc:       0.5,
		Variants: []agent.VariantInfo{
			{Reproductivity: 1, Toxicity: 0.02, ToxicityThreshold: 0.6},
		},
		Vaccines: []agent.VaccineInfo{
			{Interval: 2, EDelay: 3, EDecay: 10, EPeriod: 20, FirstDoseEffc: 0.3, MaxEffc: 0.8, SympEffc: 0.4, SevEffc: 0.5, CrossEfficacy: []float64{1}},
		},
		Strategies: []VaccinationStrategy{
			{PerformRate: 0.05, Regularity: 1, Priority: agent.PriorityRandom, VaccineType: 0},
		},
		ContactRingCap: 5,
		ViewRange:      2,
		TstCapa:        100,
	}
}

func defaultRuntimeParams() RuntimeParams {
	return RuntimeParams{
		DaysPerStep:        1,
		StepsPerDay:        1,
		InfecDst:           3,
		Infec:              0.3,
		ContagDelay:        1,
		ContagPeak:         5,
		MaxDaysForRecovery: 14,
		TherapyEffc:        0.3,
		ImnMaxDur:          200,
		ImnMaxDurSv:        0.5,
		ImnMaxEffc:         0.9,
		ImnMaxEffcSv:       0.2,
		Friction:           0.9,
		MaxSpeed:           0.05,
		HomeAttractionCap:  0.01,
		Test: agent.TestParams{
			StepsPerDay:     1,
			TstInterval:     3,
			TstDelay:        2,
			TstSens:         0.8,
			TstSpec:         0.95,
			ProbAsSymptom:   0.5,
			ProbAsSuspected: 0.01,
		},
	}
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	rng := agent.NewSeeded(42)
	return New("w0", defaultWorldParams(), defaultRuntimeParams(), nil, rng)
}

func TestNewWorldSatisfiesPopulationInvariant(t *testing.T) {
	w := newTestWorld(t)
	assert.True(t, w.PopulationInvariant())
	assert.Equal(t, w.WorldParams.InitNPop, len(w.Agents))
}

func TestResetAllocatesHospitalFromInfected(t *testing.T) {
	w := newTestWorld(t)
	assert.True(t, len(w.Hospital) > 0, "expected some symptomatic/asymptomatic agents admitted to hospital on reset")
	for _, idx := range w.Hospital {
		assert.Equal(t, agent.Hospital, w.Agents[idx].Location)
	}
}

func TestIsEndedWhenNoInfectedAgentsExist(t *testing.T) {
	wp := defaultWorldParams()
	wp.InfectedFrac = 0
	rng := agent.NewSeeded(7)
	w := New("w1", wp, defaultRuntimeParams(), nil, rng)
	assert.True(t, w.IsEnded())
}

func TestIsEndedFalseWhenInfectedAgentsExist(t *testing.T) {
	w := newTestWorld(t)
	assert.False(t, w.IsEnded())
}

func TestStepPreservesPopulationInvariant(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		w.Step(ctx)
		require.True(t, w.PopulationInvariant(), "population invariant broken at step %d", i)
	}
}

func TestStepLogGrowsOnePerStep(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	const n = 5
	for i := 0; i < n; i++ {
		w.Step(ctx)
	}
	assert.Equal(t, n, w.StepLog.StepCount())
}

func TestStepAdvancesCounter(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	w.Step(ctx)
	assert.Equal(t, 1, w.StepIndex)
}

func TestResetIsIdempotentOnPopulationSize(t *testing.T) {
	w := newTestWorld(t)
	before := len(w.Agents)
	w.Reset()
	assert.Equal(t, before, len(w.Agents))
	assert.True(t, w.PopulationInvariant())
}
