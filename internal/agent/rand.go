package agent

import (
	"math"
	"math/rand"
)

// Source is the subset of math/rand.Rand used by the simulation core. It is
// satisfied by *rand.Rand; tests substitute a seeded instance so that runs
// are reproducible, per spec.md §9 "Global randomness".
type Source interface {
	Float64() float64
	Intn(n int) int
	NormFloat64() float64
}

// NewSeeded returns a *rand.Rand seeded deterministically, used wherever the
// caller needs reproducibility instead of the package-level global source.
func NewSeeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Triangular draws a single sample from a three-point (min, mode, max)
// triangular distribution. This stands in for the teacher's out-of-pack
// github.com/kentwait/randomvariate dependency (see DESIGN.md) and backs
// every "days-to" scratchpad draw in §4.2.
func Triangular(src Source, min, mode, max float64) float64 {
	if max <= min {
		return min
	}
	u := src.Float64()
	f := (mode - min) / (max - min)
	if u < f {
		return min + math.Sqrt(u*(max-min)*(mode-min))
	}
	return max - math.Sqrt((1-u)*(max-min)*(max-mode))
}

// KurtoticUnit draws a value in [0,1) whose distribution tail weight is
// controlled by kurtosis > 0; kurtosis == 1 degenerates to uniform. Used for
// activeness in Reset (§4.2).
func KurtoticUnit(src Source, kurtosis float64) float64 {
	if kurtosis <= 0 {
		kurtosis = 1
	}
	u := src.Float64()
	return math.Pow(u, 1/kurtosis)
}
