package sim

import (
	"math"
	"math/rand"
)

// SpeedModifierCalculator converts a ModifierContext into a single
// multiplicative factor on the race's base speed. The pipeline is
// strictly ordered and every stage is multiplicative:
//
//  1. stat modifiers (speed, agility, happiness)
//  2. environment (surface, condition lookup tables)
//  3. phase bonus (running-style windows; deep closer is conditional)
//  4. stamina penalty (from remaining stamina fraction)
//  5. random variance (uniform, small, once per tick)
//
// Every stage returns 1.0 on missing or degenerate input. The pipeline is
// total over its domain: a race must always complete once started.
type SpeedModifierCalculator struct {
	cfg *TuningConfig
}

// NewSpeedModifierCalculator builds a calculator over an immutable tuning
// config.
func NewSpeedModifierCalculator(cfg *TuningConfig) *SpeedModifierCalculator {
	return &SpeedModifierCalculator{cfg: cfg}
}

// StatModifier composes the three stat contributions. Speed and agility
// are linear offsets from the midpoint; happiness is two-phase
// logarithmic and asymmetric.
func (c *SpeedModifierCalculator) StatModifier(ctx ModifierContext) float64 {
	if ctx.Attrs == nil {
		return 1.0
	}
	a := ctx.Attrs
	speed := 1.0 + float64(a.Speed-StatMidpoint)*c.cfg.Speed.SpeedCoeff
	agility := 1.0 + float64(a.Agility-StatMidpoint)*c.cfg.Speed.AgilityCoeff
	return speed * agility * c.happinessModifier(a.Happiness)
}

// happinessModifier is the two-phase log curve. Above the midpoint the
// bonus has diminishing returns; below it the penalty uses the same curve
// shape but a steeper scale, so min-happiness hurts strictly more than
// max-happiness helps.
func (c *SpeedModifierCalculator) happinessModifier(happiness int) float64 {
	mid := float64(StatMidpoint)
	h := float64(happiness)
	switch {
	case h > mid:
		frac := (h - mid) / mid
		return 1.0 + c.cfg.Speed.HappinessBonusScale*math.Log1p(frac)
	case h < mid:
		frac := (mid - h) / mid
		return 1.0 - c.cfg.Speed.HappinessPenaltyScale*math.Log1p(frac)
	default:
		return 1.0
	}
}

// EnvironmentModifier multiplies the surface and condition table factors.
// Unknown keys are neutral, never an error.
func (c *SpeedModifierCalculator) EnvironmentModifier(ctx ModifierContext) float64 {
	surface := 1.0
	if f, ok := c.cfg.Speed.SurfaceFactors[ctx.Race.Surface]; ok {
		surface = f
	}
	condition := 1.0
	if f, ok := c.cfg.Speed.ConditionFactors[ctx.Race.Condition]; ok {
		condition = f
	}
	return surface * condition
}

// PhaseModifier returns the running-style bonus for the current progress.
//
// Every style except the deep closer uses a configured progress window.
// The deep closer is special-cased: its bonus is conditional on lane
// position and clear running room rather than a time window, so it needs
// the horse's live state and the rest of the field.
func (c *SpeedModifierCalculator) PhaseModifier(ctx ModifierContext, state *HorseRaceState, field []*HorseRaceState) float64 {
	if ctx.Attrs == nil {
		return 1.0
	}
	if ctx.Attrs.Style == StyleDeepCloser {
		return c.deepCloserModifier(ctx, state, field)
	}
	window, ok := c.cfg.Speed.Phases[ctx.Attrs.Style.String()]
	if !ok {
		return 1.0
	}
	progress := ctx.Progress()
	if progress >= window.Start && progress < window.End {
		return window.Bonus
	}
	return 1.0
}

// deepCloserModifier grants the conditional bonus: final stretch, off the
// rail, nobody within the clear-ahead window in the same lane.
func (c *SpeedModifierCalculator) deepCloserModifier(ctx ModifierContext, state *HorseRaceState, field []*HorseRaceState) float64 {
	if state == nil {
		return 1.0
	}
	dc := c.cfg.Speed.DeepCloser
	if ctx.Progress() < dc.WindowStart {
		return 1.0
	}
	if state.Lane < dc.MinLane {
		return 1.0
	}
	for _, other := range field {
		if other == state || other.Finished {
			continue
		}
		if other.Lane != state.Lane {
			continue
		}
		gap := other.Distance - state.Distance
		if gap >= 0 && gap < dc.ClearAheadDistance {
			return 1.0
		}
	}
	return dc.Bonus
}

// StaminaModifier maps the remaining-stamina fraction to a speed factor
// using a two-regime curve: a negligible linear penalty above the
// threshold, a quadratic and progressively severe one below it, capped at
// the configured maximum. Zero-capacity horses are exempt (fraction 1.0).
func (c *SpeedModifierCalculator) StaminaModifier(state *HorseRaceState) float64 {
	if state == nil {
		return 1.0
	}
	frac := state.StaminaFraction()
	sp := c.cfg.Speed.StaminaPenalty

	var penalty float64
	if frac >= sp.Threshold {
		penalty = sp.LinearSlope * (1.0 - frac)
	} else {
		atThreshold := sp.LinearSlope * (1.0 - sp.Threshold)
		depth := (sp.Threshold - frac) / sp.Threshold
		penalty = atThreshold + sp.QuadScale*depth*depth
	}
	if penalty > sp.MaxPenalty {
		penalty = sp.MaxPenalty
	}
	return 1.0 - penalty
}

// Variance draws the per-tick uniform perturbation in
// [1-magnitude, 1+magnitude]. Independent of every other stage; a zero
// magnitude still consumes one draw so tick alignment is stable across
// tunings.
func (c *SpeedModifierCalculator) Variance(rng *rand.Rand) float64 {
	draw := rng.Float64()*2.0 - 1.0
	return 1.0 + draw*c.cfg.Speed.VarianceMagnitude
}

// Baseline composes stages 1-4 (stat, environment, phase, stamina) for a
// horse, omitting variance. This is the multiplier the tick loop feeds to
// the OvertakingManager before traffic effects.
func (c *SpeedModifierCalculator) Baseline(ctx ModifierContext, state *HorseRaceState, field []*HorseRaceState) float64 {
	return c.StatModifier(ctx) *
		c.EnvironmentModifier(ctx) *
		c.PhaseModifier(ctx, state, field) *
		c.StaminaModifier(state)
}

// EstimateNeighbor is the multiplier estimate the OvertakingManager uses
// for another horse: stat, environment, stamina, and window-phase stages
// only. Traffic effects, penalties, and variance are deliberately
// omitted, and the deep closer's conditional bonus is skipped, so that
// two horses referencing each other's speed cannot feed back. This is a
// documented approximation, not a fixed-point solve; keep it that way.
func (c *SpeedModifierCalculator) EstimateNeighbor(ctx ModifierContext, state *HorseRaceState) float64 {
	phase := 1.0
	if ctx.Attrs != nil && ctx.Attrs.Style != StyleDeepCloser {
		if window, ok := c.cfg.Speed.Phases[ctx.Attrs.Style.String()]; ok {
			progress := ctx.Progress()
			if progress >= window.Start && progress < window.End {
				phase = window.Bonus
			}
		}
	}
	return c.StatModifier(ctx) *
		c.EnvironmentModifier(ctx) *
		phase *
		c.StaminaModifier(state)
}
