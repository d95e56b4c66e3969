package sim

// StaminaCalculator computes how much of a horse's stamina pool is burned
// in the current tick. Depletion is a product of four independent
// factors:
//
//	depletion = distance-band base rate
//	          × stat efficiency (stamina, durability, happiness)
//	          × pace (current speed over base speed)
//	          × running-style phase factor
//
// Like the speed pipeline, it is total: unknown styles and degenerate
// inputs yield neutral factors, never errors.
type StaminaCalculator struct {
	cfg *TuningConfig
}

// NewStaminaCalculator builds a calculator over an immutable tuning config.
func NewStaminaCalculator(cfg *TuningConfig) *StaminaCalculator {
	return &StaminaCalculator{cfg: cfg}
}

// Depletion returns the stamina to subtract this tick. paceMultiplier is
// the horse's composed speed multiplier for the tick (current speed over
// base speed): running faster burns proportionally faster.
func (c *StaminaCalculator) Depletion(ctx ModifierContext, paceMultiplier float64) float64 {
	if ctx.Attrs == nil {
		return 0
	}
	base := c.baseRate(ctx.Race)
	eff := c.statEfficiency(ctx.Attrs)
	pace := paceMultiplier
	if pace < 0 {
		pace = 0
	}
	style := c.styleFactor(ctx.Attrs.Style, ctx.Progress())
	return base * eff * pace * style
}

// baseRate looks up the stepwise distance-band rate. Four bands: sprints
// sip stamina, staying races drain it.
func (c *StaminaCalculator) baseRate(race RaceDefinition) float64 {
	for _, band := range c.cfg.Stamina.DistanceBands {
		if race.Distance < band.MaxDistance {
			return band.Rate
		}
	}
	bands := c.cfg.Stamina.DistanceBands
	if len(bands) == 0 {
		return 1.0
	}
	return bands[len(bands)-1].Rate
}

// statEfficiency folds stamina, durability, and happiness into one
// multiplier. Each stat above the midpoint reduces depletion. Note the
// happiness sign: in the speed pipeline high happiness is a direct bonus;
// here it reduces burn instead; a content horse conserves energy.
func (c *StaminaCalculator) statEfficiency(attrs *HorseAttributes) float64 {
	st := c.cfg.Stamina
	eff := (1.0 - float64(attrs.Stamina-StatMidpoint)*st.StaminaEffCoeff) *
		(1.0 - float64(attrs.Durability-StatMidpoint)*st.DurabilityEffCoeff) *
		(1.0 - float64(attrs.Happiness-StatMidpoint)*st.HappinessEffCoeff)
	if eff < st.MinEfficiency {
		eff = st.MinEfficiency
	}
	return eff
}

// styleFactor shapes burn across the race per running style: an explosive
// starter pays early and coasts late, a closer banks early and spends in
// the stretch. Unknown styles are neutral.
func (c *StaminaCalculator) styleFactor(style RunningStyle, progress float64) float64 {
	phases, ok := c.cfg.Stamina.StylePhases[style.String()]
	if !ok {
		return 1.0
	}
	switch {
	case progress < phases.EarlyEnd:
		return phases.Early
	case progress >= phases.LateStart:
		return phases.Late
	default:
		return phases.Mid
	}
}
