package sim

import "fmt"

// DistanceClass buckets race length for stamina base rates and the
// progression race-type focus.
type DistanceClass int

const (
	DistanceSprint DistanceClass = iota
	DistanceMile
	DistanceMiddle
	DistanceLong
)

func (d DistanceClass) String() string {
	switch d {
	case DistanceSprint:
		return "sprint"
	case DistanceMile:
		return "mile"
	case DistanceMiddle:
		return "middle"
	case DistanceLong:
		return "long"
	}
	return "unknown"
}

// RaceDefinition describes one race to be simulated. Distance is in
// fractional track-length units; TotalTicks is derived from distance when
// left zero so an average horse finishes in the target tick count.
type RaceDefinition struct {
	Distance   float64   `yaml:"distance"`
	Surface    Surface   `yaml:"surface"`
	Condition  Condition `yaml:"condition"`
	TotalTicks int       `yaml:"total_ticks"`

	// Field size bounds. Zero values fall back to tuning defaults.
	MinFieldSize int `yaml:"min_field_size"`
	MaxFieldSize int `yaml:"max_field_size"`
}

// Normalize fills derived fields from the tuning config. Returns a copy;
// the caller's definition is not mutated.
func (r RaceDefinition) Normalize(cfg *TuningConfig) RaceDefinition {
	if r.TotalTicks == 0 {
		r.TotalTicks = int(r.Distance * float64(cfg.Race.TicksPerDistanceUnit))
	}
	if r.MinFieldSize == 0 {
		r.MinFieldSize = cfg.Race.MinFieldSize
	}
	if r.MaxFieldSize == 0 {
		r.MaxFieldSize = cfg.Race.MaxFieldSize
	}
	return r
}

// Validate is the pre-loop setup check. A race must never fail once the
// tick loop has started, so everything rejectable is rejected here.
func (r RaceDefinition) Validate() error {
	if r.Distance <= 0 {
		return fmt.Errorf("race distance %.2f must be positive", r.Distance)
	}
	if r.TotalTicks <= 0 {
		return fmt.Errorf("race tick count %d must be positive", r.TotalTicks)
	}
	if r.MinFieldSize <= 0 || r.MaxFieldSize < r.MinFieldSize {
		return fmt.Errorf("invalid field size bounds [%d,%d]", r.MinFieldSize, r.MaxFieldSize)
	}
	return nil
}

// BaseSpeed is the per-tick distance an unmodified (multiplier 1.0) horse
// covers: the field's reference pace. All modifier stages scale this.
func (r RaceDefinition) BaseSpeed() float64 {
	return r.Distance / float64(r.TotalTicks)
}

// Class buckets the race distance using the tuning band table. Band
// order defines the class: sprint, mile, middle, long.
func (r RaceDefinition) Class(cfg *TuningConfig) DistanceClass {
	for i, band := range cfg.Stamina.DistanceBands {
		if r.Distance < band.MaxDistance {
			if i > int(DistanceLong) {
				return DistanceLong
			}
			return DistanceClass(i)
		}
	}
	return DistanceLong
}

// Progress converts a tick index to fractional race progress in [0,1].
func (r RaceDefinition) Progress(tick int) float64 {
	if r.TotalTicks <= 0 {
		return 0
	}
	p := float64(tick) / float64(r.TotalTicks)
	if p > 1 {
		p = 1
	}
	return p
}
