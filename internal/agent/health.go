package agent

import "math"

// HealthKind discriminates the Health tagged union (§3 "Health sub-state").
type HealthKind int

const (
	Susceptible HealthKind = iota
	Infected
	Recovered
	Vaccinated
	Died
)

func (k HealthKind) String() string {
	switch k {
	case Susceptible:
		return "Susceptible"
	case Infected:
		return "Infected"
	case Recovered:
		return "Recovered"
	case Vaccinated:
		return "Vaccinated"
	case Died:
		return "Died"
	default:
		return "?"
	}
}

// InfectionParams holds the per-infection state described in §3.
type InfectionParams struct {
	Variant        int
	DaysInfected   float64
	DaysDiseased   float64
	Severity       float64
	Symptomatic    bool
	OnRecovery     bool
	ImmunityAtTime float64
}

// RecoveryParams holds acquired-immunity bookkeeping after recovery.
type RecoveryParams struct {
	DaysRecovered float64
	Immunity      float64 // capped at 1
}

// VaccinationParams tracks progress through the vaccine-immunity curve.
type VaccinationParams struct {
	DaysSinceDose float64
	VaccineType   int
}

// Health is the tagged union over an agent's epidemiological state. Exactly
// one of the *Params fields is meaningful, selected by Kind.
type Health struct {
	Kind       HealthKind
	Infection  InfectionParams
	Recovery   RecoveryParams
	Vaccine    VaccinationParams
}

// VariantInfo describes one pathogen variant's parameters.
type VariantInfo struct {
	Reproductivity float64 // r
	Toxicity       float64
	ToxicityThreshold float64
}

// VaccineInfo describes one vaccine product's efficacy curve.
type VaccineInfo struct {
	Interval       float64 // days between first-dose ramp completion
	EDelay         float64 // days to ramp to max effectiveness
	EDecay         float64 // plateau duration
	EPeriod        float64 // linear decay duration
	FirstDoseEffc  float64
	MaxEffc        float64
	SympEffc       float64 // vcn_effc_symp: scales recovery days on first dose
	SevEffc        float64 // severity effectiveness divisor during infection
	// CrossEfficacy[variant] scales the immunity a vaccinated agent carries
	// from this product when it is infected by that variant.
	CrossEfficacy []float64
}

// Params bundles the world/runtime knobs the per-step health transitions
// need, so that agent.go stays free of a dependency on the world package.
type Params struct {
	DaysPerStep         float64
	StepsPerDay         float64
	ContagDelay         float64
	ContagPeak          float64
	InfecDst            float64
	Infec               float64
	MaxDaysForRecovery  float64
	TherapyEffc         float64 // IS_IN_HOSPITAL specialization
	Variants            []VariantInfo
	Vaccines            []VaccineInfo

	// Acquired-immunity scaling (§4.2 "Recovered step"): a recovering
	// agent's immunity level and duration both scale with how close the
	// infection came to the agent's own days-to-die threshold.
	ImnMaxDur    float64 // days; ceiling on how long acquired immunity lasts
	ImnMaxDurSv  float64 // severity ratio at which the duration ceiling is reached
	ImnMaxEffc   float64 // ceiling on acquired immunity level (0-1)
	ImnMaxEffcSv float64 // severity ratio at which the effectiveness ceiling is reached
}

// exacerbate implements r^(1/3) from §4.2.
func exacerbate(r float64) float64 {
	if r <= 0 {
		return 0
	}
	return math.Cbrt(r)
}

// InfectionAdmission evaluates whether agent `a` becomes infected by
// neighbor `b` at distance d, per §4.2 "Infection admission". src supplies
// the single at-least-once probability trial.
func InfectionAdmission(a, b *Agent, d float64, p Params, src Source) bool {
	if b.Health.Kind != Infected {
		return false
	}
	variant := p.Variants[b.Health.Infection.Variant]
	r := variant.Reproductivity
	infecDst := p.InfecDst * math.Sqrt(r)
	if d > infecDst {
		return false
	}
	if b.Health.Infection.DaysInfected <= p.ContagDelay/exacerbate(r) {
		return false
	}

	immunityA := currentImmunity(a, p)
	onsetOrPeak := p.ContagPeak
	if b.Health.Infection.Symptomatic {
		// days_to_onset is only meaningful pre-onset; once symptomatic the
		// peak bound from config governs the time factor ramp instead.
	} else {
		onsetOrPeak = math.Min(p.ContagPeak, a.Days.Onset)
	}
	denom := onsetOrPeak - p.ContagDelay
	var timeFactor float64
	if denom > 0 {
		timeFactor = math.Min(1, (b.Health.Infection.DaysInfected-p.ContagDelay)/denom)
	}
	if timeFactor < 0 {
		timeFactor = 0
	}
	distFactor := math.Min(1, math.Pow((infecDst-d)/2, 2))

	prob := p.Infec * (1 - immunityA) * timeFactor * distFactor
	if prob <= 0 {
		return false
	}
	if prob > 1 {
		prob = 1
	}
	return src.Float64() < prob
}

// currentImmunity returns agent a's present immunity level irrespective of
// health kind: 0 for a never-exposed susceptible, the acquired-recovery
// immunity, or the vaccinated-curve immunity.
func currentImmunity(a *Agent, p Params) float64 {
	switch a.Health.Kind {
	case Recovered:
		return a.Health.Recovery.Immunity
	case Vaccinated:
		return VaccineImmunity(a, p)
	default:
		return 0
	}
}

// Infect transitions a susceptible (or freshly admitted) agent into the
// Infected/asymptomatic state, inheriting the variant from b and drawing an
// immunity baseline from a's prior state; for a vaccinated agent that
// baseline is scaled by its product's cross-variant efficacy entry for the
// infecting variant (§4.2).
func Infect(a *Agent, variant int, p Params) {
	immunity := 0.0
	if a.Health.Kind == Vaccinated {
		immunity = VaccineImmunity(a, p)
		if a.Vaccine.VaccineType < len(p.Vaccines) {
			ce := p.Vaccines[a.Vaccine.VaccineType].CrossEfficacy
			if variant < len(ce) {
				immunity *= ce[variant]
			}
		}
	} else if a.Health.Kind == Recovered {
		immunity = a.Health.Recovery.Immunity
	}
	a.Health = Health{
		Kind: Infected,
		Infection: InfectionParams{
			Variant:        variant,
			DaysInfected:   0,
			Symptomatic:    false,
			ImmunityAtTime: immunity,
		},
	}
	a.InfectionCount++
}

// StepResult reports a transition worth logging (incubation/recovery/death
// histograms, §3 StepLog) produced by a single InfectedStep/RecoveredStep/
// VaccinatedStep call.
type StepResult int

const (
	NoEvent StepResult = iota
	EventOnset
	EventRecoveredAsymptomatic
	EventRecoveredSymptomatic
	EventDied
)

// InfectedStep advances an Infected agent by one step per §4.2 "Infected
// step". inHospital selects the IS_IN_HOSPITAL therapy specialization.
func InfectedStep(a *Agent, p Params, inHospital bool, src Source) StepResult {
	inf := &a.Health.Infection
	inf.DaysInfected += p.DaysPerStep
	if inf.Symptomatic {
		inf.DaysDiseased += p.DaysPerStep
	}

	if inf.OnRecovery {
		inf.Severity -= p.DaysPerStep / p.MaxDaysForRecovery
		if inf.Severity <= 0 {
			return recoverAgent(a, p)
		}
		return NoEvent
	}

	variant := p.Variants[inf.Variant]
	r := variant.Reproductivity

	recoverThreshold := a.Days.Recover
	if inHospital {
		// IS_IN_HOSPITAL specialization (§4.3 step 6): therapy shortens the
		// effective days-to-recover by (1 - therapy_effc).
		recoverThreshold *= 1 - p.TherapyEffc
	}
	if !inf.Symptomatic && inf.DaysInfected < a.Days.Onset/exacerbate(r) {
		if inf.DaysInfected > recoverThreshold {
			return recoverAgent(a, p)
		}
		return NoEvent
	}

	denom := a.Days.Die - a.Days.Onset
	var delta float64
	if denom > 0 {
		delta = (1 / denom) * exacerbate(r) * p.DaysPerStep
	}
	sevEffc := 1.0
	if a.Vaccine.VaccineType >= 0 && a.Vaccine.VaccineType < len(p.Vaccines) && a.Vaccine.LastDoseStep > 0 {
		sevEffc = p.Vaccines[a.Vaccine.VaccineType].SevEffc
		if sevEffc <= 0 {
			sevEffc = 1
		}
	}
	delta /= sevEffc
	if inf.Severity > variant.ToxicityThreshold {
		delta *= variant.Toxicity
	}
	inf.Severity += delta

	if inf.Severity >= 1 {
		a.Health.Kind = Died
		a.Location = Cemetery
		return EventDied
	}

	if !inf.Symptomatic && inf.DaysInfected >= a.Days.Onset {
		inf.Symptomatic = true
		return EventOnset
	}
	return NoEvent
}

func recoverAgent(a *Agent, p Params) StepResult {
	wasSymptomatic := a.Health.Infection.Symptomatic
	immunity := acquiredImmunity(a, p)
	a.Health = Health{
		Kind: Recovered,
		Recovery: RecoveryParams{
			Immunity: immunity,
		},
	}
	if wasSymptomatic {
		return EventRecoveredSymptomatic
	}
	return EventRecoveredAsymptomatic
}

// acquiredImmunity derives a recovering agent's immunity level, and how
// long it lasts (written into a.Days.ExpireImmunity), from how severe the
// infection it just survived was relative to its own days-to-die
// threshold: a brush that came closer to death buys stronger, longer
// immunity, each capped at its own ceiling.
func acquiredImmunity(a *Agent, p Params) float64 {
	maxSeverity := a.Days.Recover * (1 - p.TherapyEffc) / a.Days.Die

	durRatio := 1.0
	if p.ImnMaxDurSv > 0 {
		durRatio = math.Min(1, maxSeverity/p.ImnMaxDurSv)
	}
	a.Days.ExpireImmunity = durRatio * p.ImnMaxDur

	effcRatio := 1.0
	if p.ImnMaxEffcSv > 0 {
		effcRatio = math.Min(1, maxSeverity/p.ImnMaxEffcSv)
	}
	return effcRatio * p.ImnMaxEffc
}

// RecoveredStep advances a Recovered agent; once immunity expires the agent
// reverts to Susceptible with a redrawn, damped scratchpad (§4.2).
func RecoveredStep(a *Agent, p Params, src Source, freshDraw func(*Agent, Source)) {
	a.Health.Recovery.DaysRecovered += p.DaysPerStep
	if a.Health.Recovery.DaysRecovered <= a.Days.ExpireImmunity {
		return
	}
	const damping = 0.1
	old := a.Days
	freshDraw(a, src)
	a.Days.Recover = damping*a.Days.Recover + (1-damping)*old.Recover
	a.Days.Onset = damping*a.Days.Onset + (1-damping)*old.Onset
	a.Days.Die = damping*a.Days.Die + (1-damping)*old.Die
	a.Health = Health{Kind: Susceptible}
}

// VaccineImmunity computes the piecewise immunity curve of §4.2 "Vaccinated
// step" as a function of days-since-dose.
func VaccineImmunity(a *Agent, p Params) float64 {
	if a.Vaccine.VaccineType < 0 || a.Vaccine.VaccineType >= len(p.Vaccines) {
		return 0
	}
	v := p.Vaccines[a.Vaccine.VaccineType]
	d := a.Health.Vaccine.DaysSinceDose
	switch {
	case d < v.Interval:
		if v.Interval <= 0 {
			return v.FirstDoseEffc
		}
		return v.FirstDoseEffc * d / v.Interval
	case d < v.Interval+v.EDelay:
		t := d - v.Interval
		if v.EDelay <= 0 {
			return v.MaxEffc
		}
		return v.FirstDoseEffc + (v.MaxEffc-v.FirstDoseEffc)*t/v.EDelay
	case d < v.Interval+v.EDelay+v.EDecay:
		return v.MaxEffc
	case d < v.Interval+v.EDelay+v.EDecay+v.EPeriod:
		t := d - (v.Interval + v.EDelay + v.EDecay)
		if v.EPeriod <= 0 {
			return 0
		}
		return v.MaxEffc * (1 - t/v.EPeriod)
	default:
		return 0
	}
}

// VaccinatedStep advances the days-since-dose counter and reverts the agent
// to Susceptible once the immunity curve has fully decayed.
func VaccinatedStep(a *Agent, p Params) {
	a.Health.Vaccine.DaysSinceDose += p.DaysPerStep
	v := p.Vaccines[a.Vaccine.VaccineType]
	total := v.Interval + v.EDelay + v.EDecay + v.EPeriod
	if a.Health.Vaccine.DaysSinceDose >= total {
		a.Health = Health{Kind: Susceptible}
	}
}

// ConsumeVaccineTicket applies a pending vaccine ticket, per §4.2 "Vaccine
// ticketing". The world calls it for every field agent before the step's
// infection-admission checks, so a just-vaccinated agent is immediately
// eligible for the immunity it grants (Open Question in spec.md §9:
// "vaccine ticket consumed first").
func ConsumeVaccineTicket(a *Agent, step int, p Params) {
	t := a.Vaccine.PendingTicket
	if t == nil {
		return
	}
	a.Vaccine.PendingTicket = nil
	firstDose := a.Vaccine.LastDoseStep == 0
	a.Vaccine.LastDoseStep = step
	a.Vaccine.VaccineType = t.VaccineType
	baseline := currentImmunity(a, p)
	a.Vaccine.Immunity = baseline
	a.Health = Health{Kind: Vaccinated, Vaccine: VaccinationParams{VaccineType: t.VaccineType}}
	if firstDose && t.VaccineType < len(p.Vaccines) {
		a.Days.Recover *= 1 - p.Vaccines[t.VaccineType].SympEffc
	}
}
