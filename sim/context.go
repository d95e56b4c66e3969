package sim

// ModifierContext is the immutable value bundle handed to every
// calculator: where we are in the race and who is running. It carries no
// mutable race state; per-horse state travels separately so calculators
// stay pure functions of (context, state, config).
type ModifierContext struct {
	Tick       int
	TotalTicks int
	Attrs      *HorseAttributes
	Race       RaceDefinition
}

// NewModifierContext bundles the current tick with a horse and the race
// definition.
func NewModifierContext(tick int, attrs *HorseAttributes, race RaceDefinition) ModifierContext {
	return ModifierContext{
		Tick:       tick,
		TotalTicks: race.TotalTicks,
		Attrs:      attrs,
		Race:       race,
	}
}

// Progress is the fractional race progress in [0,1] at this tick.
func (c ModifierContext) Progress() float64 {
	return c.Race.Progress(c.Tick)
}
