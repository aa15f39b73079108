package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultParams() Params {
	return Params{
		DaysPerStep:        1,
		StepsPerDay:        1,
		ContagDelay:        1,
		ContagPeak:         5,
		InfecDst:           2,
		Infec:              1,
		MaxDaysForRecovery: 14,
		TherapyEffc:        0.5,
		Variants:           []VariantInfo{{Reproductivity: 1, Toxicity: 1, ToxicityThreshold: 0.8}},
		Vaccines: []VaccineInfo{{
			Interval: 21, EDelay: 14, EDecay: 60, EPeriod: 90,
			FirstDoseEffc: 0.3, MaxEffc: 0.9, SympEffc: 0.5, SevEffc: 2,
			CrossEfficacy: []float64{1},
		}},
	}
}

func TestInfectTransitionsAndIncrementsCounter(t *testing.T) {
	a := NewAgent(1, 8)
	a.Health = Health{Kind: Susceptible}
	Infect(a, 0, defaultParams())
	assert.Equal(t, Infected, a.Health.Kind)
	assert.Equal(t, 1, a.InfectionCount)
	assert.False(t, a.Health.Infection.Symptomatic)
}

func TestInfectedStepOnsetThenRecovery(t *testing.T) {
	p := defaultParams()
	a := NewAgent(2, 8)
	a.Days = DaysTo{Recover: 100, Onset: 2, Die: 40, ExpireImmunity: 1}
	Infect(a, 0, p)

	var ev StepResult
	for i := 0; i < 3 && ev != EventOnset; i++ {
		ev = InfectedStep(a, p, false, NewSeeded(1))
	}
	require.Equal(t, EventOnset, ev)
	assert.True(t, a.Health.Infection.Symptomatic)

	a.Health.Infection.OnRecovery = true
	a.Health.Infection.Severity = 0.05
	ev = InfectedStep(a, p, false, NewSeeded(1))
	assert.Equal(t, EventRecoveredSymptomatic, ev)
	assert.Equal(t, Recovered, a.Health.Kind)
}

func TestInHospitalShortensRecoveryThreshold(t *testing.T) {
	p := defaultParams()
	a := NewAgent(3, 8)
	a.Days = DaysTo{Recover: 10, Onset: 100, Die: 200, ExpireImmunity: 1}
	Infect(a, 0, p)
	a.Health.Infection.DaysInfected = 6 // > 10*(1-0.5) but < 10

	ev := InfectedStep(a, p, true, NewSeeded(1))
	assert.Equal(t, EventRecoveredAsymptomatic, ev, "hospital therapy should have already crossed the halved threshold")
}

func TestVaccineTicketConsumedBeforeInfection(t *testing.T) {
	// Covers the consumption half of the Open Question in spec.md §9:
	// ConsumeVaccineTicket turns a pending ticket into the Vaccinated state.
	// The world calls it before the step's infection-admission checks.
	p := defaultParams()
	a := NewAgent(4, 8)
	a.Health = Health{Kind: Susceptible}
	a.Vaccine.PendingTicket = &VaccineTicket{VaccineType: 0, IssuedStep: 5}

	ConsumeVaccineTicket(a, 6, p)
	assert.Equal(t, Vaccinated, a.Health.Kind)
	assert.Equal(t, 0, a.Vaccine.VaccineType)
	assert.Equal(t, 6, a.Vaccine.LastDoseStep)
}

func TestRecoveredStepRevertsToSusceptibleAfterImmunityExpires(t *testing.T) {
	p := defaultParams()
	a := NewAgent(5, 8)
	a.Health = Health{Kind: Recovered, Recovery: RecoveryParams{Immunity: 1}}
	a.Days = DaysTo{ExpireImmunity: 1, Recover: 10, Onset: 5, Die: 20}
	freshCalled := false
	RecoveredStep(a, p, NewSeeded(2), func(ag *Agent, s Source) {
		freshCalled = true
		drawDaysTo(ag, p, s)
	})
	assert.False(t, freshCalled, "should not redraw before expiry")

	a.Health.Recovery.DaysRecovered = 2
	RecoveredStep(a, p, NewSeeded(2), func(ag *Agent, s Source) {
		freshCalled = true
		drawDaysTo(ag, p, s)
	})
	assert.True(t, freshCalled)
	assert.Equal(t, Susceptible, a.Health.Kind)
}

func TestContactRingBoundedFIFO(t *testing.T) {
	r := NewContactRing(2)
	r.Push(ContactEntry{OtherID: 1, Step: 1})
	r.Push(ContactEntry{OtherID: 2, Step: 2})
	r.Push(ContactEntry{OtherID: 3, Step: 3})
	entries := r.Drain()
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].OtherID)
	assert.Equal(t, 3, entries[1].OtherID)
	assert.Empty(t, r.Drain())
}

func TestReservoirSampleIndicesExactCount(t *testing.T) {
	src := NewSeeded(42)
	idx := ReservoirSampleIndices(100, 10, src)
	assert.Len(t, idx, 10)
	seen := map[int]bool{}
	for _, i := range idx {
		assert.False(t, seen[i], "duplicate index")
		seen[i] = true
		assert.True(t, i >= 0 && i < 100)
	}
}

func TestReservoirSampleAllInfectedBoundary(t *testing.T) {
	// spec.md §8: n_infected == init_n_pop boundary.
	idx := ReservoirSampleIndices(50, 50, NewSeeded(1))
	assert.Len(t, idx, 50)
}
