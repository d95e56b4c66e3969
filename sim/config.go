package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TuningConfig carries every numeric constant the engine consumes: modifier
// coefficients, lookup tables, thresholds. The engine owns none of these
// values; game balance lives in data so tuning requires no recompilation.
//
// A config is loaded (or defaulted) once at race setup and treated as
// immutable afterwards, so two races with different tuning can run
// concurrently without interference.
type TuningConfig struct {
	Race        RaceTuning        `yaml:"race"`
	Speed       SpeedTuning       `yaml:"speed"`
	Stamina     StaminaTuning     `yaml:"stamina"`
	Overtaking  OvertakingTuning  `yaml:"overtaking"`
	Progression ProgressionTuning `yaml:"progression"`
}

// RaceTuning holds loop-level parameters.
type RaceTuning struct {
	// TicksPerDistanceUnit derives TotalTicks from distance so that a
	// multiplier-1.0 horse finishes exactly on the last tick.
	TicksPerDistanceUnit int `yaml:"ticks_per_distance_unit"`

	MinFieldSize int `yaml:"min_field_size"`
	MaxFieldSize int `yaml:"max_field_size"`

	// PhotoFinishMargin is the finish-time gap (in fractional ticks)
	// below which two consecutive finishers are flagged as a photo
	// finish. Tie-break is by starting lane, never exact equality.
	PhotoFinishMargin float64 `yaml:"photo_finish_margin"`
}

// PhaseWindow is a running-style bonus window over fractional race
// progress: the bonus applies while Start <= progress < End.
type PhaseWindow struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Bonus float64 `yaml:"bonus"`
}

// DeepCloserTuning parameterizes the one conditional (non-window) phase
// bonus: final stretch, clear running room, off the rail.
type DeepCloserTuning struct {
	WindowStart        float64 `yaml:"window_start"`
	Bonus              float64 `yaml:"bonus"`
	ClearAheadDistance float64 `yaml:"clear_ahead_distance"`
	MinLane            int     `yaml:"min_lane"`
}

// StaminaPenaltyTuning shapes the remaining-stamina to speed-penalty curve:
// a negligible linear regime above Threshold, quadratic below it, capped.
type StaminaPenaltyTuning struct {
	Threshold   float64 `yaml:"threshold"`
	LinearSlope float64 `yaml:"linear_slope"`
	QuadScale   float64 `yaml:"quad_scale"`
	MaxPenalty  float64 `yaml:"max_penalty"`
}

// SpeedTuning holds the speed modifier pipeline coefficients and tables.
type SpeedTuning struct {
	SpeedCoeff   float64 `yaml:"speed_coeff"`
	AgilityCoeff float64 `yaml:"agility_coeff"`

	// Happiness is two-phase logarithmic and asymmetric: the penalty
	// scale must exceed the bonus scale so a miserable horse loses more
	// than a delighted one gains.
	HappinessBonusScale   float64 `yaml:"happiness_bonus_scale"`
	HappinessPenaltyScale float64 `yaml:"happiness_penalty_scale"`

	// VarianceMagnitude is the half-width of the uniform per-tick
	// perturbation. Zero disables variance entirely (used by tests).
	VarianceMagnitude float64 `yaml:"variance_magnitude"`

	SurfaceFactors   map[Surface]float64   `yaml:"surface_factors"`
	ConditionFactors map[Condition]float64 `yaml:"condition_factors"`

	// Phases is keyed by running-style name. Styles without an entry
	// (including StyleDeepCloser, which is conditional) get no window
	// bonus.
	Phases map[string]PhaseWindow `yaml:"phases"`

	DeepCloser DeepCloserTuning `yaml:"deep_closer"`

	StaminaPenalty StaminaPenaltyTuning `yaml:"stamina_penalty"`
}

// DistanceBand maps a distance upper bound to a stamina base depletion
// rate. Bands are ordered ascending; the band index is the DistanceClass.
type DistanceBand struct {
	MaxDistance float64 `yaml:"max_distance"`
	Rate        float64 `yaml:"rate"`
}

// StyleDepletion shapes per-style stamina burn across race phases.
type StyleDepletion struct {
	EarlyEnd  float64 `yaml:"early_end"`
	LateStart float64 `yaml:"late_start"`
	Early     float64 `yaml:"early"`
	Mid       float64 `yaml:"mid"`
	Late      float64 `yaml:"late"`
}

// StaminaTuning holds depletion coefficients.
type StaminaTuning struct {
	PoolPerPoint float64 `yaml:"pool_per_point"`

	DistanceBands []DistanceBand `yaml:"distance_bands"`

	StaminaEffCoeff    float64 `yaml:"stamina_eff_coeff"`
	DurabilityEffCoeff float64 `yaml:"durability_eff_coeff"`
	// HappinessEffCoeff is deliberately sign-inverted relative to the
	// speed pipeline: a happy horse conserves energy.
	HappinessEffCoeff float64 `yaml:"happiness_eff_coeff"`
	MinEfficiency     float64 `yaml:"min_efficiency"`

	StylePhases map[string]StyleDepletion `yaml:"style_phases"`
}

// OvertakingTuning holds the lane-change state machine parameters.
type OvertakingTuning struct {
	BaseCooldownTicks      int `yaml:"base_cooldown_ticks"`
	AgilityCooldownDivisor int `yaml:"agility_cooldown_divisor"`

	// Asymmetric clearance: more room required ahead of the mover than
	// behind it.
	AheadClearance  float64 `yaml:"ahead_clearance"`
	BehindClearance float64 `yaml:"behind_clearance"`

	// LookAheadDistance is the traffic window for least-traffic lane
	// seeking and for blocked detection.
	LookAheadDistance float64 `yaml:"look_ahead_distance"`

	SqueezeBaseChance   float64 `yaml:"squeeze_base_chance"`
	SqueezeAgilityCoeff float64 `yaml:"squeeze_agility_coeff"`
	SqueezeMaxChance    float64 `yaml:"squeeze_max_chance"`

	BasePenaltyTicks         int     `yaml:"base_penalty_ticks"`
	DurabilityPenaltyDivisor int     `yaml:"durability_penalty_divisor"`
	MinPenaltyTicks          int     `yaml:"min_penalty_ticks"`
	PenaltyFactor            float64 `yaml:"penalty_factor"`

	// FollowCap bounds a blocked horse's multiplier relative to the
	// estimated multiplier of the horse directly ahead.
	FollowCap          float64 `yaml:"follow_cap"`
	BoxedPenaltyFactor float64 `yaml:"boxed_penalty_factor"`

	// FinalQuarterStart is where the deep closer switches from patient
	// lane-holding to traffic-seeking.
	FinalQuarterStart float64 `yaml:"final_quarter_start"`
}

// CareerPhase maps a career race-count upper bound to a growth multiplier.
type CareerPhase struct {
	MaxRaces   int     `yaml:"max_races"`
	Multiplier float64 `yaml:"multiplier"`
}

// PerformanceTiers maps finishing position to a growth multiplier.
type PerformanceTiers struct {
	Win   float64 `yaml:"win"`
	Place float64 `yaml:"place"`
	Show  float64 `yaml:"show"`
	Mid   float64 `yaml:"mid"`
	Back  float64 `yaml:"back"`
	// BackStartFraction: finishing position beyond this fraction of the
	// field counts as back-of-field.
	BackStartFraction float64 `yaml:"back_start_fraction"`
}

// RaceFocus scales growth by race type: one factor for the short-race
// stats (speed, agility) and one for the endurance stats (stamina,
// durability).
type RaceFocus struct {
	SpeedAgility      float64 `yaml:"speed_agility"`
	StaminaDurability float64 `yaml:"stamina_durability"`
}

// ProgressionTuning holds post-race stat growth parameters.
type ProgressionTuning struct {
	GapGrowthRate float64 `yaml:"gap_growth_rate"`

	// CareerPhases ordered ascending by MaxRaces; careers past the last
	// band use TwilightMultiplier.
	CareerPhases       []CareerPhase `yaml:"career_phases"`
	TwilightMultiplier float64       `yaml:"twilight_multiplier"`

	PerformanceTiers PerformanceTiers `yaml:"performance_tiers"`

	// FocusByClass is keyed by DistanceClass name (sprint/mile/middle/long).
	FocusByClass map[string]RaceFocus `yaml:"focus_by_class"`
}

// DefaultTuning returns the built-in balance tables. A YAML tuning file
// overrides these field-by-field; anything the file omits keeps its
// default.
func DefaultTuning() *TuningConfig {
	return &TuningConfig{
		Race: RaceTuning{
			TicksPerDistanceUnit: 60,
			MinFieldSize:         2,
			MaxFieldSize:         18,
			PhotoFinishMargin:    0.08,
		},
		Speed: SpeedTuning{
			SpeedCoeff:            0.0020,
			AgilityCoeff:          0.0010,
			HappinessBonusScale:   0.06,
			HappinessPenaltyScale: 0.12,
			VarianceMagnitude:     0.01,
			SurfaceFactors: map[Surface]float64{
				SurfaceTurf:      1.00,
				SurfaceDirt:      0.98,
				SurfaceSynthetic: 0.99,
			},
			ConditionFactors: map[Condition]float64{
				ConditionFirm:  1.01,
				ConditionGood:  1.00,
				ConditionSoft:  0.97,
				ConditionHeavy: 0.93,
			},
			Phases: map[string]PhaseWindow{
				StyleFrontRunner.String(): {Start: 0.00, End: 0.20, Bonus: 1.040},
				StyleStalker.String():     {Start: 0.10, End: 0.45, Bonus: 1.030},
				StyleMidpack.String():     {Start: 0.30, End: 0.70, Bonus: 1.030},
				StyleCloser.String():      {Start: 0.75, End: 1.01, Bonus: 1.050},
			},
			DeepCloser: DeepCloserTuning{
				WindowStart:        0.75,
				Bonus:              1.070,
				ClearAheadDistance: 0.25,
				MinLane:            2,
			},
			StaminaPenalty: StaminaPenaltyTuning{
				Threshold:   0.50,
				LinearSlope: 0.02,
				QuadScale:   0.30,
				MaxPenalty:  0.35,
			},
		},
		Stamina: StaminaTuning{
			PoolPerPoint: 12.0,
			DistanceBands: []DistanceBand{
				{MaxDistance: 6, Rate: 0.80},   // sprint
				{MaxDistance: 10, Rate: 1.00},  // mile
				{MaxDistance: 14, Rate: 1.25},  // middle
				{MaxDistance: 1e9, Rate: 1.60}, // long
			},
			StaminaEffCoeff:    0.0040,
			DurabilityEffCoeff: 0.0030,
			HappinessEffCoeff:  0.0020,
			MinEfficiency:      0.25,
			StylePhases: map[string]StyleDepletion{
				StyleFrontRunner.String(): {EarlyEnd: 0.30, LateStart: 0.70, Early: 1.35, Mid: 1.00, Late: 0.80},
				StyleStalker.String():     {EarlyEnd: 0.30, LateStart: 0.70, Early: 1.10, Mid: 1.00, Late: 0.95},
				StyleMidpack.String():     {EarlyEnd: 0.30, LateStart: 0.70, Early: 1.00, Mid: 1.05, Late: 1.00},
				StyleCloser.String():      {EarlyEnd: 0.30, LateStart: 0.70, Early: 0.85, Mid: 0.95, Late: 1.30},
				StyleDeepCloser.String():  {EarlyEnd: 0.30, LateStart: 0.70, Early: 0.80, Mid: 0.90, Late: 1.40},
			},
		},
		Overtaking: OvertakingTuning{
			BaseCooldownTicks:        8,
			AgilityCooldownDivisor:   14,
			AheadClearance:           0.30,
			BehindClearance:          0.12,
			LookAheadDistance:        0.60,
			SqueezeBaseChance:        0.15,
			SqueezeAgilityCoeff:      0.0050,
			SqueezeMaxChance:         0.65,
			BasePenaltyTicks:         6,
			DurabilityPenaltyDivisor: 25,
			MinPenaltyTicks:          1,
			PenaltyFactor:            0.93,
			FollowCap:                1.00,
			BoxedPenaltyFactor:       0.96,
			FinalQuarterStart:        0.75,
		},
		Progression: ProgressionTuning{
			GapGrowthRate: 0.04,
			CareerPhases: []CareerPhase{
				{MaxRaces: 5, Multiplier: 0.60},  // young, developing slowly
				{MaxRaces: 25, Multiplier: 1.50}, // prime
				{MaxRaces: 45, Multiplier: 0.80}, // veteran
			},
			TwilightMultiplier: 0.25,
			PerformanceTiers: PerformanceTiers{
				Win:               1.50,
				Place:             1.25,
				Show:              1.10,
				Mid:               1.00,
				Back:              0.60,
				BackStartFraction: 0.75,
			},
			FocusByClass: map[string]RaceFocus{
				DistanceSprint.String(): {SpeedAgility: 1.30, StaminaDurability: 0.70},
				DistanceMile.String():   {SpeedAgility: 1.00, StaminaDurability: 1.00},
				DistanceMiddle.String(): {SpeedAgility: 1.00, StaminaDurability: 1.00},
				DistanceLong.String():   {SpeedAgility: 0.70, StaminaDurability: 1.30},
			},
		},
	}
}

// LoadTuning reads a YAML tuning file over the defaults. Unknown fields
// are rejected so a typo in a balance file fails loudly instead of
// silently keeping a default.
func LoadTuning(path string) (*TuningConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning file: %w", err)
	}

	cfg := DefaultTuning()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse tuning file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tuning file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks structural sanity of the tables. It does not judge
// balance, only that the engine's assumptions hold.
func (c *TuningConfig) Validate() error {
	if c.Race.TicksPerDistanceUnit <= 0 {
		return fmt.Errorf("race.ticks_per_distance_unit must be positive")
	}
	if c.Race.MinFieldSize <= 0 || c.Race.MaxFieldSize < c.Race.MinFieldSize {
		return fmt.Errorf("invalid race field size bounds [%d,%d]", c.Race.MinFieldSize, c.Race.MaxFieldSize)
	}
	if c.Race.PhotoFinishMargin < 0 {
		return fmt.Errorf("race.photo_finish_margin must be non-negative")
	}
	if c.Speed.HappinessPenaltyScale <= c.Speed.HappinessBonusScale {
		return fmt.Errorf("happiness penalty scale %.3f must exceed bonus scale %.3f",
			c.Speed.HappinessPenaltyScale, c.Speed.HappinessBonusScale)
	}
	if c.Speed.VarianceMagnitude < 0 {
		return fmt.Errorf("speed.variance_magnitude must be non-negative")
	}
	for name, w := range c.Speed.Phases {
		if _, ok := ParseRunningStyle(name); !ok {
			return fmt.Errorf("speed.phases: unknown running style %q", name)
		}
		if w.Start < 0 || w.End < w.Start || w.Bonus <= 0 {
			return fmt.Errorf("speed.phases[%s]: malformed window", name)
		}
	}
	sp := c.Speed.StaminaPenalty
	if sp.Threshold <= 0 || sp.Threshold >= 1 {
		return fmt.Errorf("speed.stamina_penalty.threshold must be in (0,1)")
	}
	if sp.MaxPenalty <= 0 || sp.MaxPenalty >= 1 {
		return fmt.Errorf("speed.stamina_penalty.max_penalty must be in (0,1)")
	}
	if c.Stamina.PoolPerPoint < 0 {
		return fmt.Errorf("stamina.pool_per_point must be non-negative")
	}
	if len(c.Stamina.DistanceBands) == 0 {
		return fmt.Errorf("stamina.distance_bands must not be empty")
	}
	prev := 0.0
	for i, b := range c.Stamina.DistanceBands {
		if b.MaxDistance <= prev {
			return fmt.Errorf("stamina.distance_bands[%d]: bounds must be strictly ascending", i)
		}
		if b.Rate <= 0 {
			return fmt.Errorf("stamina.distance_bands[%d]: rate must be positive", i)
		}
		prev = b.MaxDistance
	}
	for name := range c.Stamina.StylePhases {
		if _, ok := ParseRunningStyle(name); !ok {
			return fmt.Errorf("stamina.style_phases: unknown running style %q", name)
		}
	}
	ot := c.Overtaking
	if ot.AheadClearance <= ot.BehindClearance {
		return fmt.Errorf("overtaking.ahead_clearance %.3f must exceed behind_clearance %.3f",
			ot.AheadClearance, ot.BehindClearance)
	}
	if ot.SqueezeMaxChance >= 1.0 {
		return fmt.Errorf("overtaking.squeeze_max_chance must be below 1.0")
	}
	if ot.MinPenaltyTicks < 1 {
		return fmt.Errorf("overtaking.min_penalty_ticks must be at least 1")
	}
	if ot.PenaltyFactor <= 0 || ot.PenaltyFactor > 1 {
		return fmt.Errorf("overtaking.penalty_factor must be in (0,1]")
	}
	if c.Progression.GapGrowthRate < 0 {
		return fmt.Errorf("progression.gap_growth_rate must be non-negative")
	}
	prevRaces := 0
	for i, p := range c.Progression.CareerPhases {
		if p.MaxRaces <= prevRaces && i > 0 {
			return fmt.Errorf("progression.career_phases[%d]: bounds must be strictly ascending", i)
		}
		prevRaces = p.MaxRaces
	}
	return nil
}
