package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func midpointHorse(id string) HorseAttributes {
	return HorseAttributes{
		ID:         id,
		Speed:      StatMidpoint,
		Agility:    StatMidpoint,
		Stamina:    StatMidpoint,
		Durability: StatMidpoint,
		Happiness:  StatMidpoint,
		Style:      StyleUnknown,
	}
}

func neutralContext(attrs *HorseAttributes) ModifierContext {
	race := RaceDefinition{Distance: 10, TotalTicks: 600, MinFieldSize: 1, MaxFieldSize: 18}
	return NewModifierContext(1, attrs, race)
}

func TestStatModifier_NeutralMidpoint(t *testing.T) {
	// A horse with every stat at the midpoint composes exactly 1.0.
	calc := NewSpeedModifierCalculator(DefaultTuning())
	attrs := midpointHorse("h1")
	assert.Equal(t, 1.0, calc.StatModifier(neutralContext(&attrs)))
}

func TestStatModifier_LinearStatDirections(t *testing.T) {
	calc := NewSpeedModifierCalculator(DefaultTuning())

	fast := midpointHorse("fast")
	fast.Speed = 100
	slow := midpointHorse("slow")
	slow.Speed = 0

	assert.Greater(t, calc.StatModifier(neutralContext(&fast)), 1.0)
	assert.Less(t, calc.StatModifier(neutralContext(&slow)), 1.0)
}

func TestHappinessModifier_Asymmetry(t *testing.T) {
	// The penalty magnitude at minimum happiness strictly exceeds the
	// bonus magnitude at maximum happiness.
	calc := NewSpeedModifierCalculator(DefaultTuning())

	happy := midpointHorse("happy")
	happy.Happiness = StatMax
	sour := midpointHorse("sour")
	sour.Happiness = StatMin

	bonus := calc.StatModifier(neutralContext(&happy)) - 1.0
	penalty := 1.0 - calc.StatModifier(neutralContext(&sour))

	assert.Greater(t, bonus, 0.0)
	assert.Greater(t, penalty, 0.0)
	assert.Greater(t, penalty, bonus, "min-happiness penalty must exceed max-happiness bonus")
}

func TestHappinessModifier_DiminishingReturns(t *testing.T) {
	// Log curve: the step from 50->75 is bigger than the step 75->100.
	calc := NewSpeedModifierCalculator(DefaultTuning())

	h75 := midpointHorse("h75")
	h75.Happiness = 75
	h100 := midpointHorse("h100")
	h100.Happiness = 100

	firstStep := calc.StatModifier(neutralContext(&h75)) - 1.0
	secondStep := calc.StatModifier(neutralContext(&h100)) - calc.StatModifier(neutralContext(&h75))
	assert.Greater(t, firstStep, secondStep)
}

func TestEnvironmentModifier_TableLookup(t *testing.T) {
	calc := NewSpeedModifierCalculator(DefaultTuning())
	attrs := midpointHorse("h1")

	tests := []struct {
		name      string
		surface   Surface
		condition Condition
		want      float64
	}{
		{"neutral turf good", SurfaceTurf, ConditionGood, 1.0},
		{"heavy going slows", SurfaceTurf, ConditionHeavy, 0.93},
		{"dirt discount", SurfaceDirt, ConditionGood, 0.98},
		{"unknown surface neutral", Surface("moon-dust"), ConditionGood, 1.0},
		{"unknown condition neutral", SurfaceTurf, Condition("frozen"), 1.0},
		{"both unknown neutral", Surface(""), Condition(""), 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			race := RaceDefinition{Distance: 10, TotalTicks: 600, Surface: tt.surface, Condition: tt.condition}
			ctx := NewModifierContext(1, &attrs, race)
			assert.InDelta(t, tt.want, calc.EnvironmentModifier(ctx), 1e-9)
		})
	}
}

func TestPhaseModifier_Windows(t *testing.T) {
	cfg := DefaultTuning()
	calc := NewSpeedModifierCalculator(cfg)
	race := RaceDefinition{Distance: 10, TotalTicks: 100}

	tests := []struct {
		name  string
		style RunningStyle
		tick  int
		want  float64
	}{
		{"front runner in window", StyleFrontRunner, 10, cfg.Speed.Phases["front-runner"].Bonus},
		{"front runner past window", StyleFrontRunner, 30, 1.0},
		{"closer before window", StyleCloser, 50, 1.0},
		{"closer in stretch", StyleCloser, 80, cfg.Speed.Phases["closer"].Bonus},
		{"unknown style neutral", StyleUnknown, 50, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := midpointHorse("h1")
			attrs.Style = tt.style
			ctx := NewModifierContext(tt.tick, &attrs, race)
			state := &HorseRaceState{Attrs: &attrs, Lane: 1, StartLane: 1}
			assert.InDelta(t, tt.want, calc.PhaseModifier(ctx, state, []*HorseRaceState{state}), 1e-9)
		})
	}
}

func TestPhaseModifier_DeepCloserConditional(t *testing.T) {
	cfg := DefaultTuning()
	calc := NewSpeedModifierCalculator(cfg)
	race := RaceDefinition{Distance: 10, TotalTicks: 100}

	attrs := midpointHorse("dc")
	attrs.Style = StyleDeepCloser

	newState := func(lane int, dist float64) *HorseRaceState {
		return &HorseRaceState{Attrs: &attrs, Lane: lane, Distance: dist}
	}

	t.Run("bonus with clear room off the rail", func(t *testing.T) {
		state := newState(3, 8.0)
		ctx := NewModifierContext(80, &attrs, race)
		got := calc.PhaseModifier(ctx, state, []*HorseRaceState{state})
		assert.InDelta(t, cfg.Speed.DeepCloser.Bonus, got, 1e-9)
	})

	t.Run("no bonus before the final stretch", func(t *testing.T) {
		state := newState(3, 4.0)
		ctx := NewModifierContext(40, &attrs, race)
		assert.Equal(t, 1.0, calc.PhaseModifier(ctx, state, []*HorseRaceState{state}))
	})

	t.Run("no bonus on the rail", func(t *testing.T) {
		state := newState(1, 8.0)
		ctx := NewModifierContext(80, &attrs, race)
		assert.Equal(t, 1.0, calc.PhaseModifier(ctx, state, []*HorseRaceState{state}))
	})

	t.Run("no bonus behind traffic", func(t *testing.T) {
		state := newState(3, 8.0)
		other := midpointHorse("other")
		blocker := &HorseRaceState{Attrs: &other, Lane: 3, Distance: 8.1}
		ctx := NewModifierContext(80, &attrs, race)
		got := calc.PhaseModifier(ctx, state, []*HorseRaceState{state, blocker})
		assert.Equal(t, 1.0, got)
	})
}

func TestStaminaModifier_TwoRegimeCurve(t *testing.T) {
	cfg := DefaultTuning()
	calc := NewSpeedModifierCalculator(cfg)

	state := func(frac float64) *HorseRaceState {
		return &HorseRaceState{StaminaPool: 100, StaminaLeft: frac * 100}
	}

	t.Run("full stamina is neutral", func(t *testing.T) {
		assert.Equal(t, 1.0, calc.StaminaModifier(state(1.0)))
	})

	t.Run("above threshold the penalty is negligible", func(t *testing.T) {
		got := calc.StaminaModifier(state(0.6))
		assert.Less(t, got, 1.0)
		assert.Greater(t, got, 0.98)
	})

	t.Run("below threshold the penalty grows quadratically", func(t *testing.T) {
		p40 := 1.0 - calc.StaminaModifier(state(0.40))
		p20 := 1.0 - calc.StaminaModifier(state(0.20))
		p10 := 1.0 - calc.StaminaModifier(state(0.10))
		// Increments accelerate as stamina drains
		assert.Greater(t, p20-p40, p40)
		assert.Greater(t, p10, p20)
	})

	t.Run("cap bounds the total penalty", func(t *testing.T) {
		got := calc.StaminaModifier(state(0.0))
		assert.GreaterOrEqual(t, got, 1.0-cfg.Speed.StaminaPenalty.MaxPenalty-1e-9)
	})

	t.Run("zero-capacity pool is exempt", func(t *testing.T) {
		empty := &HorseRaceState{StaminaPool: 0, StaminaLeft: 0}
		assert.Equal(t, 1.0, calc.StaminaModifier(empty))
	})
}

func TestVariance_BoundedAndSeeded(t *testing.T) {
	cfg := DefaultTuning()
	calc := NewSpeedModifierCalculator(cfg)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		v := calc.Variance(rng)
		require.GreaterOrEqual(t, v, 1.0-cfg.Speed.VarianceMagnitude)
		require.LessOrEqual(t, v, 1.0+cfg.Speed.VarianceMagnitude)
	}
}

func TestVariance_ZeroMagnitudeIsExactlyNeutral(t *testing.T) {
	cfg := DefaultTuning()
	cfg.Speed.VarianceMagnitude = 0
	calc := NewSpeedModifierCalculator(cfg)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		assert.Equal(t, 1.0, calc.Variance(rng))
	}
}

func TestBaseline_NeutralComposition(t *testing.T) {
	// Midpoint stats, neutral environment, no phase window, full
	// stamina: the composed multiplier before variance is exactly 1.0.
	calc := NewSpeedModifierCalculator(DefaultTuning())
	attrs := midpointHorse("h1")
	state := &HorseRaceState{Attrs: &attrs, Lane: 1, StaminaPool: 100, StaminaLeft: 100}
	ctx := neutralContext(&attrs)
	assert.Equal(t, 1.0, calc.Baseline(ctx, state, []*HorseRaceState{state}))
}

func TestEstimateNeighbor_OmitsConditionalBonus(t *testing.T) {
	// The neighbor estimate must skip the deep closer's conditional
	// bonus: it exists to break the mutual-reference cycle, not to be
	// exact.
	cfg := DefaultTuning()
	calc := NewSpeedModifierCalculator(cfg)
	race := RaceDefinition{Distance: 10, TotalTicks: 100}

	attrs := midpointHorse("dc")
	attrs.Style = StyleDeepCloser
	state := &HorseRaceState{Attrs: &attrs, Lane: 3, Distance: 8.0, StaminaPool: 100, StaminaLeft: 100}
	ctx := NewModifierContext(80, &attrs, race)

	full := calc.Baseline(ctx, state, []*HorseRaceState{state})
	estimate := calc.EstimateNeighbor(ctx, state)
	assert.Greater(t, full, estimate, "estimate must not include the conditional bonus")
	assert.Equal(t, 1.0, estimate)
}

func TestPipeline_TotalOverNilInputs(t *testing.T) {
	// The hot path must be total: nil attrs and nil state are neutral.
	calc := NewSpeedModifierCalculator(DefaultTuning())
	ctx := ModifierContext{Tick: 1, TotalTicks: 100}
	assert.Equal(t, 1.0, calc.StatModifier(ctx))
	assert.Equal(t, 1.0, calc.PhaseModifier(ctx, nil, nil))
	assert.Equal(t, 1.0, calc.StaminaModifier(nil))
}
