package agent

// TestParams bundles the knobs §4.2 "Testing reservation" and §4.4 need.
type TestParams struct {
	StepsPerDay     float64
	TstInterval     float64 // tst_interval
	TstDelay        float64 // tst_delay, in days
	TstSens         float64
	TstSpec         float64
	ProbAsSymptom   float64 // per-step trigger probability once symptom-eligible
	ProbAsSuspected float64
}

// Reason enumerates why a testee was queued, per §3 "Testee record".
type Reason int

const (
	ReasonSymptom Reason = iota
	ReasonSuspected
	ReasonContact
)

func (r Reason) String() string {
	switch r {
	case ReasonSymptom:
		return "Symptom"
	case ReasonSuspected:
		return "Suspected"
	case ReasonContact:
		return "Contact"
	default:
		return "?"
	}
}

// CanReserve reports whether an agent is eligible for a new test
// reservation: in the field, not already reserved, and enough steps have
// elapsed since its last test.
func CanReserve(a *Agent, step int, p TestParams) bool {
	if a.Location != Field {
		return false
	}
	if a.Test.Reserved {
		return false
	}
	return float64(step-a.Test.LastTestStep) >= p.TstInterval*p.StepsPerDay
}

// SampleReason decides whether and why to sample an agent for testing this
// step, per §4.2. It returns (reason, true) on a positive trigger.
func SampleReason(a *Agent, p TestParams, src Source) (Reason, bool) {
	if a.Health.Kind == Infected && a.Health.Infection.Symptomatic &&
		a.Health.Infection.DaysDiseased >= p.TstDelay {
		if src.Float64() < p.ProbAsSymptom {
			return ReasonSymptom, true
		}
	}
	if src.Float64() < p.ProbAsSuspected {
		return ReasonSuspected, true
	}
	return 0, false
}

// PreSampleOutcome computes the Positive/Negative outcome at enqueue time
// (not at accept), per §4.4: sensitivity scaled by the infecting variant's
// reproductivity if the agent was infected, else (1 - specificity).
func PreSampleOutcome(a *Agent, variants []VariantInfo, p TestParams, src Source) TestResult {
	if a.Health.Kind == Infected {
		r := 1.0
		if v := a.Health.Infection.Variant; v >= 0 && v < len(variants) {
			r = variants[v].Reproductivity
		}
		sens := p.TstSens * r
		if sens > 1 {
			sens = 1
		}
		if src.Float64() < sens {
			return Positive
		}
		return Negative
	}
	if src.Float64() < 1-p.TstSpec {
		return Positive
	}
	return Negative
}

// NotifyResult writes a test result back onto the agent, per §4.4
// "notify_result". On a positive read the agent is marked reserved for
// quarantine (§4.2: "On positive read, the agent reserves quarantine").
func NotifyResult(a *Agent, step int, result TestResult) {
	a.Test.LastTestStep = step
	a.Test.UnreadResult = &result
	a.Test.Reserved = false
	if result == Positive {
		a.QuarantineAt = step
	}
}
