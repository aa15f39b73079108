// Package world implements the per-world simulation engine (spec.md §4.3,
// §4.4): the step pipeline, test queue, gatherings, vaccination scheduling,
// and hospital/warp sub-populations that own a population of agents
// partitioned across a spatial grid.
package world

import (
	"github.com/kentwait/epidemicsim/internal/agent"
)

// VaccinationStrategy is one active `{perform_rate, regularity, priority,
// vaccine_type}` program from §4.3 step 3.
type VaccinationStrategy struct {
	PerformRate float64
	Regularity  float64
	Priority    agent.VaccinationPriority
	VaccineType int

	carry  float64
	cursor int
}

// WorldParams carries the field/population geometry and epidemiological
// knobs named throughout §4.
type WorldParams struct {
	FieldSize float64
	Mesh      int // N
	InitNPop  int

	InfectedFrac  float64
	RecoveredFrac float64
	DistancingFrac float64

	QSymptomatic  float64
	QAsymptomatic float64

	GatFr      float64 // mean gathering count factor
	GatRndRt   float64 // gat_rnd_rt
	GatSpots   []agent.Point

	CntctTrc float64 // contact-trace logging probability
	TstCapa  float64 // daily test acceptance capacity per 1000 population

	Variants []agent.VariantInfo
	Vaccines []agent.VaccineInfo

	Strategies []VaccinationStrategy

	CenteredMode    bool
	Center          agent.Point
	CenterRadiusStd float64
	Kurtosis        float64
	ContactRingCap  int
	ViewRange       float64
}

// RuntimeParams carries the day/step timebase and per-step constants.
type RuntimeParams struct {
	DaysPerStep float64
	StepsPerDay float64

	InfecDst           float64
	Infec              float64
	ContagDelay        float64
	ContagPeak         float64
	MaxDaysForRecovery float64
	TherapyEffc        float64

	ImnMaxDur    float64
	ImnMaxDurSv  float64
	ImnMaxEffc   float64
	ImnMaxEffcSv float64

	Friction      float64
	MaxSpeed      float64
	HomeAttractionCap float64

	Test agent.TestParams
}

func (p WorldParams) agentParams(r RuntimeParams) agent.Params {
	return agent.Params{
		DaysPerStep:        r.DaysPerStep,
		StepsPerDay:        r.StepsPerDay,
		ContagDelay:        r.ContagDelay,
		ContagPeak:         r.ContagPeak,
		InfecDst:           r.InfecDst,
		Infec:              r.Infec,
		MaxDaysForRecovery: r.MaxDaysForRecovery,
		TherapyEffc:        r.TherapyEffc,
		ImnMaxDur:          r.ImnMaxDur,
		ImnMaxDurSv:        r.ImnMaxDurSv,
		ImnMaxEffc:         r.ImnMaxEffc,
		ImnMaxEffcSv:       r.ImnMaxEffcSv,
		Variants:           p.Variants,
		Vaccines:           p.Vaccines,
	}
}

func (p WorldParams) geometry() agent.WorldGeometry {
	return agent.WorldGeometry{
		FieldSize:       p.FieldSize,
		CenteredMode:    p.CenteredMode,
		Center:          p.Center,
		CenterRadiusStd: p.CenterRadiusStd,
		Kurtosis:        p.Kurtosis,
		ContactRingCap:  p.ContactRingCap,
	}
}

func (p WorldParams) locomotion(r RuntimeParams) agent.LocomotionParams {
	return agent.LocomotionParams{
		FieldSize:         p.FieldSize,
		ViewRange:         p.ViewRange,
		Friction:          r.Friction,
		MaxSpeed:          r.MaxSpeed,
		DaysPerStep:       r.DaysPerStep,
		DistancingOn:      p.DistancingFrac > 0,
		HomeAttractionCap: r.HomeAttractionCap,
	}
}
