package sim

import "fmt"

const (
	// StatMin/StatMax bound every horse stat.
	StatMin = 0
	StatMax = 100

	// StatMidpoint is the neutral value: a horse with every stat at the
	// midpoint and a neutral environment composes a speed multiplier of
	// exactly 1.0 before variance.
	StatMidpoint = 50
)

// StatCeilings holds the genetic ceiling per trainable stat. Ceilings are
// set by breeding logic outside the engine and consumed only by post-race
// progression, never during a race. A zero ceiling means the data is
// missing.
type StatCeilings struct {
	Speed      int `yaml:"speed"`
	Agility    int `yaml:"agility"`
	Stamina    int `yaml:"stamina"`
	Durability int `yaml:"durability"`
}

// HorseAttributes is the read-only attribute record for one entrant.
// The engine never mutates it; permanent growth is returned as deltas
// for an external collaborator to persist.
type HorseAttributes struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	Speed      int `yaml:"speed"`
	Agility    int `yaml:"agility"`
	Stamina    int `yaml:"stamina"`
	Durability int `yaml:"durability"`
	Happiness  int `yaml:"happiness"`

	Style RunningStyle `yaml:"-"`
	// StyleName is the roster-file spelling of Style; resolved by
	// ParseRunningStyle at setup.
	StyleName string `yaml:"style"`

	Ceilings StatCeilings `yaml:"ceilings"`

	// CareerRaces is the number of races run before this one. Drives the
	// career-phase progression multiplier.
	CareerRaces int `yaml:"career_races"`
}

// Validate rejects malformed attribute records before the tick loop
// begins. Mid-race the pipeline is total; setup is where bad input dies.
func (h *HorseAttributes) Validate() error {
	if h.ID == "" {
		return fmt.Errorf("horse %q: empty ID", h.Name)
	}
	stats := []struct {
		name string
		v    int
	}{
		{"speed", h.Speed},
		{"agility", h.Agility},
		{"stamina", h.Stamina},
		{"durability", h.Durability},
		{"happiness", h.Happiness},
	}
	for _, s := range stats {
		if s.v < StatMin || s.v > StatMax {
			return fmt.Errorf("horse %s: %s stat %d out of range [%d,%d]", h.ID, s.name, s.v, StatMin, StatMax)
		}
	}
	return nil
}
