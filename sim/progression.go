package sim

import "fmt"

// StatGrowth is the permanent attribute delta earned from one race.
// Values are fractional stat points; the persistence layer decides how to
// accumulate and round them.
type StatGrowth struct {
	Speed      float64
	Agility    float64
	Stamina    float64
	Durability float64
}

// StatProgressionCalculator derives permanent attribute growth after a
// race ends. It never runs during the tick loop, and it never mutates
// HorseAttributes: it returns deltas for an external collaborator to
// apply.
//
// Growth per attribute is the base gap-to-ceiling growth times three
// multipliers (career phase, finishing performance, race-type focus),
// all composed multiplicatively and clamped so an attribute never passes
// its genetic ceiling.
type StatProgressionCalculator struct {
	cfg *TuningConfig
}

// NewStatProgressionCalculator builds a calculator over an immutable
// tuning config.
func NewStatProgressionCalculator(cfg *TuningConfig) *StatProgressionCalculator {
	return &StatProgressionCalculator{cfg: cfg}
}

// Growth computes one finished horse's attribute deltas. A missing
// genetic ceiling (zero value) is a per-horse error: the caller reports
// it and moves on to the next finisher rather than aborting the batch.
func (c *StatProgressionCalculator) Growth(attrs *HorseAttributes, place, fieldSize int, race RaceDefinition) (StatGrowth, error) {
	if attrs == nil {
		return StatGrowth{}, fmt.Errorf("nil attributes")
	}
	ceil := attrs.Ceilings
	if ceil.Speed == 0 || ceil.Agility == 0 || ceil.Stamina == 0 || ceil.Durability == 0 {
		return StatGrowth{}, fmt.Errorf("horse %s: missing genetic ceiling data", attrs.ID)
	}
	if place < 1 || fieldSize < 1 {
		return StatGrowth{}, fmt.Errorf("horse %s: invalid placement %d in field of %d", attrs.ID, place, fieldSize)
	}

	career := c.careerPhaseMultiplier(attrs.CareerRaces)
	perf := c.performanceMultiplier(place, fieldSize)
	focus := c.raceFocus(race)

	return StatGrowth{
		Speed:      c.gapGrowth(attrs.Speed, ceil.Speed, career*perf*focus.SpeedAgility),
		Agility:    c.gapGrowth(attrs.Agility, ceil.Agility, career*perf*focus.SpeedAgility),
		Stamina:    c.gapGrowth(attrs.Stamina, ceil.Stamina, career*perf*focus.StaminaDurability),
		Durability: c.gapGrowth(attrs.Durability, ceil.Durability, career*perf*focus.StaminaDurability),
	}, nil
}

// gapGrowth grows an attribute toward its ceiling in proportion to the
// remaining gap: near-ceiling attributes barely move, an attribute at its
// ceiling moves exactly zero, and growth is never negative and never
// overshoots.
func (c *StatProgressionCalculator) gapGrowth(current, ceiling int, multiplier float64) float64 {
	gap := float64(ceiling - current)
	if gap <= 0 {
		return 0
	}
	growth := gap * c.cfg.Progression.GapGrowthRate * multiplier
	if growth < 0 {
		return 0
	}
	if growth > gap {
		growth = gap
	}
	return growth
}

// careerPhaseMultiplier is the stepwise development curve: young horses
// develop slowly, prime-phase horses fastest, veterans slower, and very
// long careers barely at all.
func (c *StatProgressionCalculator) careerPhaseMultiplier(careerRaces int) float64 {
	for _, phase := range c.cfg.Progression.CareerPhases {
		if careerRaces <= phase.MaxRaces {
			return phase.Multiplier
		}
	}
	return c.cfg.Progression.TwilightMultiplier
}

// performanceMultiplier maps finishing position to a discrete tier:
// win, place, show, mid-field neutral, back-of-field penalty.
func (c *StatProgressionCalculator) performanceMultiplier(place, fieldSize int) float64 {
	tiers := c.cfg.Progression.PerformanceTiers
	switch place {
	case 1:
		return tiers.Win
	case 2:
		return tiers.Place
	case 3:
		return tiers.Show
	}
	if float64(place) > float64(fieldSize)*tiers.BackStartFraction {
		return tiers.Back
	}
	return tiers.Mid
}

// raceFocus looks up the race-type growth focus by distance class.
// Unknown classes are neutral.
func (c *StatProgressionCalculator) raceFocus(race RaceDefinition) RaceFocus {
	if focus, ok := c.cfg.Progression.FocusByClass[race.Class(c.cfg).String()]; ok {
		return focus
	}
	return RaceFocus{SpeedAgility: 1.0, StaminaDurability: 1.0}
}
