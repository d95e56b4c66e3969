package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/derby-sim/derby-sim/sim"
)

// RosterFile is the YAML structure of a roster file: an ordered list of
// entrants. List order is gate order (lane 1 first).
type RosterFile struct {
	Horses []sim.HorseAttributes `yaml:"horses"`
}

// LoadRoster reads a YAML roster file with strict field checking, so a
// typo in a stat name fails loudly instead of silently running a default.
func LoadRoster(path string) ([]sim.HorseAttributes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}

	var roster RosterFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&roster); err != nil {
		return nil, fmt.Errorf("parse roster file %s: %w", path, err)
	}
	if len(roster.Horses) == 0 {
		return nil, fmt.Errorf("roster file %s: no horses", path)
	}
	return roster.Horses, nil
}

// DemoRoster is the built-in eight-horse field used when no roster file
// is given: one of each style plus varied stat spreads, ceilings set so
// progression has room to work.
func DemoRoster() []sim.HorseAttributes {
	return []sim.HorseAttributes{
		{ID: "h1", Name: "Copper Gate", Speed: 72, Agility: 55, Stamina: 48, Durability: 60, Happiness: 65,
			StyleName: "front-runner", Ceilings: sim.StatCeilings{Speed: 88, Agility: 70, Stamina: 65, Durability: 75}, CareerRaces: 9},
		{ID: "h2", Name: "Quiet Harbor", Speed: 60, Agility: 62, Stamina: 58, Durability: 55, Happiness: 50,
			StyleName: "stalker", Ceilings: sim.StatCeilings{Speed: 78, Agility: 80, Stamina: 72, Durability: 70}, CareerRaces: 18},
		{ID: "h3", Name: "Northern Ledger", Speed: 55, Agility: 48, Stamina: 70, Durability: 66, Happiness: 58,
			StyleName: "midpack", Ceilings: sim.StatCeilings{Speed: 70, Agility: 62, Stamina: 85, Durability: 80}, CareerRaces: 30},
		{ID: "h4", Name: "Gale Answer", Speed: 64, Agility: 70, Stamina: 52, Durability: 44, Happiness: 72,
			StyleName: "closer", Ceilings: sim.StatCeilings{Speed: 82, Agility: 90, Stamina: 66, Durability: 58}, CareerRaces: 4},
		{ID: "h5", Name: "Stillwater Oath", Speed: 50, Agility: 58, Stamina: 75, Durability: 70, Happiness: 45,
			StyleName: "deep-closer", Ceilings: sim.StatCeilings{Speed: 64, Agility: 72, Stamina: 92, Durability: 84}, CareerRaces: 22},
		{ID: "h6", Name: "Brass Veranda", Speed: 68, Agility: 52, Stamina: 60, Durability: 58, Happiness: 60,
			StyleName: "stalker", Ceilings: sim.StatCeilings{Speed: 84, Agility: 66, Stamina: 74, Durability: 72}, CareerRaces: 12},
		{ID: "h7", Name: "Lantern Mile", Speed: 58, Agility: 66, Stamina: 64, Durability: 62, Happiness: 55,
			StyleName: "closer", Ceilings: sim.StatCeilings{Speed: 74, Agility: 82, Stamina: 78, Durability: 76}, CareerRaces: 40},
		{ID: "h8", Name: "Ember Count", Speed: 62, Agility: 60, Stamina: 56, Durability: 64, Happiness: 68,
			StyleName: "front-runner", Ceilings: sim.StatCeilings{Speed: 80, Agility: 75, Stamina: 70, Durability: 78}, CareerRaces: 15},
	}
}
