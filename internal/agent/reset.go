package agent

import "math"

// InitialClass is the initial health classification passed to Reset,
// mirroring §4.2 "Reset".
type InitialClass int

const (
	ClassSusceptible InitialClass = iota
	ClassInfectedAsymptomatic
	ClassInfectedSymptomatic
	ClassRecovered
)

// WorldGeometry carries the knobs Reset needs from world/runtime params
// without importing the world package.
type WorldGeometry struct {
	FieldSize       float64
	CenteredMode    bool
	Center          Point
	CenterRadiusStd float64
	Kurtosis        float64
	ContactRingCap  int
}

// Reset seeds an agent's body, activeness-correlated rates, and days-to
// scratchpad, per §4.2 "Reset" / "Days-to scratchpad".
func Reset(a *Agent, class InitialClass, g WorldGeometry, p Params, src Source) {
	a.Body.Appearance = src.Float64()
	a.Body.Preference = src.Float64()

	theta := src.Float64() * 2 * math.Pi
	a.Body.Velocity = Point{X: math.Cos(theta), Y: math.Sin(theta)}

	if g.CenteredMode {
		r := math.Abs(src.NormFloat64()) * g.CenterRadiusStd
		ang := src.Float64() * 2 * math.Pi
		a.Body.Pos = Point{
			X: clamp(g.Center.X+r*math.Cos(ang), 0, g.FieldSize),
			Y: clamp(g.Center.Y+r*math.Sin(ang), 0, g.FieldSize),
		}
	} else {
		a.Body.Pos = Point{X: src.Float64() * g.FieldSize, Y: src.Float64() * g.FieldSize}
	}

	a.Activeness = KurtoticUnit(src, g.Kurtosis)
	a.Mobility = a.Activeness * (0.5 + 0.5*src.Float64())
	a.GatherFreq = a.Activeness * (0.5 + 0.5*src.Float64())

	if a.Contact == nil {
		a.Contact = NewContactRing(g.ContactRingCap)
	}

	drawDaysTo(a, p, src)

	switch class {
	case ClassSusceptible:
		a.Health = Health{Kind: Susceptible}
	case ClassInfectedAsymptomatic, ClassInfectedSymptomatic:
		a.Health = Health{Kind: Infected, Infection: InfectionParams{
			Symptomatic: class == ClassInfectedSymptomatic,
		}}
	case ClassRecovered:
		// Mirrors the original's force_recovered seeding: an agent placed
		// straight into the Recovered class at reset draws its immunity
		// window directly from ImnMaxDur rather than deriving it from an
		// infection it never actually went through.
		a.Days.ExpireImmunity = src.Float64() * p.ImnMaxDur
		a.Health = Health{Kind: Recovered, Recovery: RecoveryParams{
			Immunity:      p.ImnMaxEffc,
			DaysRecovered: src.Float64() * a.Days.ExpireImmunity,
		}}
	}
	a.Location = Field
	a.InfectionCount = 0
	a.WarpGoal = nil
	a.GatheringID = -1
	a.QuarantineAt = 0
	a.Test = TestReservation{}
}

// RedrawDaysTo re-draws the days-to scratchpad, exported so callers outside
// the package (RecoveredStep's fresh-draw hook) can trigger the same draw
// Reset uses.
func RedrawDaysTo(a *Agent, src Source) {
	drawDaysTo(a, Params{}, src)
}

func drawDaysTo(a *Agent, p Params, src Source) {
	ageFactor := 1 - math.Min(1, float64(a.Age)/100)
	a.Days.Recover = Triangular(src, 7, 14*ageFactor+7, 28)
	a.Days.Onset = Triangular(src, 2, 5, 10)
	a.Days.Die = Triangular(src, 10, 20, 40)
	// ExpireImmunity has no meaning until an agent actually recovers: it is
	// derived then from how severe that infection was (acquiredImmunity),
	// or drawn directly in Reset for an agent seeded as already-recovered.
	a.Days.ExpireImmunity = 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ReservoirSampleIndices picks k distinct indices uniformly from [0, n)
// using reservoir sampling, per §4.3 "classifies n_infected and n_recovered
// counts by reservoir sampling".
func ReservoirSampleIndices(n, k int, src Source) []int {
	if k >= n {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	reservoir := make([]int, k)
	for i := 0; i < k; i++ {
		reservoir[i] = i
	}
	for i := k; i < n; i++ {
		j := src.Intn(i + 1)
		if j < k {
			reservoir[j] = i
		}
	}
	return reservoir
}
