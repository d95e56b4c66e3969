package sim

import "fmt"

// HorseRaceState is the mutable per-horse state for one race. It is owned
// exclusively by the tick loop: calculators receive it by reference but
// only the loop and the OvertakingManager mutate it. Once Place is
// assigned the state is effectively immutable and is handed read-only to
// stat progression.
type HorseRaceState struct {
	Attrs *HorseAttributes

	// StartLane is the gate assignment; it never changes and doubles as
	// the stable evaluation order and the photo-finish tie-break key.
	StartLane int
	Lane      int

	// Distance covered so far, in track units. Monotonically
	// non-decreasing; clamped to the race distance on the finishing tick.
	Distance float64

	Finished bool
	// FinishTime is fractional ticks: the crossing tick minus one plus
	// the interpolated fraction of that tick spent reaching the wire.
	FinishTime float64

	// Stamina pool. StaminaLeft never increases during a race and is
	// clamped to [0, StaminaPool]. A zero pool marks the horse as
	// penalty-exempt, not as empty.
	StaminaLeft float64
	StaminaPool float64

	// Transient state owned by the OvertakingManager.
	TicksSinceLaneChange int
	PenaltyTicksLeft     int

	// lastSpeed is the per-tick distance covered on the most recent
	// evaluated tick; used to project stragglers past the final tick.
	lastSpeed float64

	// Assigned once, after the loop ends.
	Place       int
	PhotoFinish bool
}

// NewHorseRaceState builds the starting state for one entrant.
func NewHorseRaceState(attrs *HorseAttributes, startLane int, cfg *TuningConfig) *HorseRaceState {
	pool := float64(attrs.Stamina) * cfg.Stamina.PoolPerPoint
	return &HorseRaceState{
		Attrs:             attrs,
		StartLane:         startLane,
		Lane:              startLane,
		StaminaLeft:       pool,
		StaminaPool:       pool,
		// Start with the cooldown already elapsed so the first attempt
		// is gated only by clearance, not by a cold timer.
		TicksSinceLaneChange: cfg.Overtaking.BaseCooldownTicks,
	}
}

// StaminaFraction returns remaining stamina as a fraction of the pool.
// Zero-pool horses report 1.0: they are exempt from stamina penalties,
// never divided by zero.
func (s *HorseRaceState) StaminaFraction() float64 {
	if s.StaminaPool <= 0 {
		return 1.0
	}
	return s.StaminaLeft / s.StaminaPool
}

// assertInvariants panics on mid-race state corruption. A partially
// simulated race cannot be resumed or trusted, so these are treated as
// unrecoverable programming errors rather than returned errors.
func (s *HorseRaceState) assertInvariants(fieldSize int) {
	if s.Lane < 1 || s.Lane > fieldSize {
		panic(fmt.Sprintf("horse %s: lane %d out of [1,%d]", s.Attrs.ID, s.Lane, fieldSize))
	}
	if s.StaminaLeft < 0 || s.StaminaLeft > s.StaminaPool {
		panic(fmt.Sprintf("horse %s: stamina %.3f out of [0,%.3f]", s.Attrs.ID, s.StaminaLeft, s.StaminaPool))
	}
	if s.Distance < 0 {
		panic(fmt.Sprintf("horse %s: negative distance %.3f", s.Attrs.ID, s.Distance))
	}
}
