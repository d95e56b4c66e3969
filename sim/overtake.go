package sim

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// OvertakingManager runs the once-per-tick lane decision for each horse:
// whether to attempt a lane change, how contention against neighbors
// resolves, and what traffic does to this tick's speed.
//
// Per-horse persistent state lives in HorseRaceState
// (TicksSinceLaneChange, PenaltyTicksLeft); the manager itself is
// stateless apart from its RNG stream, so it can be shared across ticks
// within one race.
//
// Circular-dependency rule: when this component needs another horse's
// speed it uses SpeedModifierCalculator.EstimateNeighbor, which omits
// traffic effects, penalties, and variance. Two horses mutually reading
// each other's full current speed would feed back; the truncated estimate
// is a deliberate approximation and must stay one.
type OvertakingManager struct {
	cfg   *TuningConfig
	speed *SpeedModifierCalculator
	rng   *rand.Rand
}

// NewOvertakingManager builds a manager. rng must be the dedicated
// overtaking subsystem stream so squeeze rolls never shift the variance
// stream.
func NewOvertakingManager(cfg *TuningConfig, speed *SpeedModifierCalculator, rng *rand.Rand) *OvertakingManager {
	return &OvertakingManager{cfg: cfg, speed: speed, rng: rng}
}

// Apply advances the horse's overtaking state machine by one tick and
// returns the traffic-adjusted speed multiplier, given the pre-traffic
// baseline from the speed pipeline. It may change state.Lane, reset the
// cooldown timer, and start or consume a squeeze penalty.
func (m *OvertakingManager) Apply(ctx ModifierContext, state *HorseRaceState, field []*HorseRaceState) float64 {
	multiplier := 1.0
	state.TicksSinceLaneChange++

	// Consume an active squeeze penalty first: it applies whether or not
	// the horse tries anything else this tick.
	if state.PenaltyTicksLeft > 0 {
		state.PenaltyTicksLeft--
		multiplier *= m.cfg.Overtaking.PenaltyFactor
	}

	moved := m.tryLaneChange(ctx, state, field)
	if !moved {
		multiplier *= m.blockedResponse(ctx, state, field)
	}
	return multiplier
}

// tryLaneChange runs the cooldown gate, the style lane policy, and the
// attempt resolution. Returns true if the horse changed lanes this tick.
func (m *OvertakingManager) tryLaneChange(ctx ModifierContext, state *HorseRaceState, field []*HorseRaceState) bool {
	if state.TicksSinceLaneChange < m.cooldownTicks(ctx.Attrs) {
		return false
	}
	desired := m.desiredLane(ctx, state, field)
	if desired == state.Lane {
		return false
	}

	// Movement is gradual: one lane per attempt toward the desired lane.
	target := state.Lane + 1
	if desired < state.Lane {
		target = state.Lane - 1
	}
	if target < 1 || target > len(field) {
		return false
	}

	if !m.laneOccupied(state, field, target) {
		logrus.Debugf("[tick %07d] %s drifts lane %d -> %d", ctx.Tick, state.Attrs.ID, state.Lane, target)
		state.Lane = target
		state.TicksSinceLaneChange = 0
		return true
	}

	return m.riskySqueeze(ctx, state, target)
}

// riskySqueeze attempts to force entry into an occupied lane. Success
// chance scales with agility, capped strictly below certainty; success
// costs a temporary speed penalty whose duration shrinks with durability
// down to a one-tick floor. Failure consumes the cooldown with no move.
func (m *OvertakingManager) riskySqueeze(ctx ModifierContext, state *HorseRaceState, target int) bool {
	ot := m.cfg.Overtaking
	chance := ot.SqueezeBaseChance + float64(state.Attrs.Agility)*ot.SqueezeAgilityCoeff
	if chance > ot.SqueezeMaxChance {
		chance = ot.SqueezeMaxChance
	}

	if m.rng.Float64() >= chance {
		state.TicksSinceLaneChange = 0
		return false
	}

	state.Lane = target
	state.TicksSinceLaneChange = 0
	state.PenaltyTicksLeft = m.penaltyTicks(state.Attrs)
	logrus.Debugf("[tick %07d] %s squeezes into lane %d, penalized %d ticks",
		ctx.Tick, state.Attrs.ID, target, state.PenaltyTicksLeft)
	return true
}

// blockedResponse handles the horse that stays in its lane behind
// traffic: cap its multiplier at the estimated multiplier of the horse
// directly ahead, and for the stalker add a frustration penalty when
// boxed in on both sides.
func (m *OvertakingManager) blockedResponse(ctx ModifierContext, state *HorseRaceState, field []*HorseRaceState) float64 {
	factor := 1.0

	if leader := m.horseAhead(state, field); leader != nil {
		leaderCtx := NewModifierContext(ctx.Tick, leader.Attrs, ctx.Race)
		cap := m.speed.EstimateNeighbor(leaderCtx, leader) * m.cfg.Overtaking.FollowCap
		own := m.speed.EstimateNeighbor(ctx, state)
		if own > cap && own > 0 {
			factor *= cap / own
		}
	}

	if state.Attrs.Style == StyleStalker && m.boxedIn(state, field) {
		factor *= m.cfg.Overtaking.BoxedPenaltyFactor
	}
	return factor
}

// cooldownTicks is the agility-scaled attempt gate: higher agility
// shortens the wait, bounded at zero.
func (m *OvertakingManager) cooldownTicks(attrs *HorseAttributes) int {
	ot := m.cfg.Overtaking
	cd := ot.BaseCooldownTicks
	if ot.AgilityCooldownDivisor > 0 {
		cd -= attrs.Agility / ot.AgilityCooldownDivisor
	}
	if cd < 0 {
		cd = 0
	}
	return cd
}

// penaltyTicks is the durability-scaled squeeze penalty duration with a
// floor of MinPenaltyTicks.
func (m *OvertakingManager) penaltyTicks(attrs *HorseAttributes) int {
	ot := m.cfg.Overtaking
	ticks := ot.BasePenaltyTicks
	if ot.DurabilityPenaltyDivisor > 0 {
		ticks -= attrs.Durability / ot.DurabilityPenaltyDivisor
	}
	if ticks < ot.MinPenaltyTicks {
		ticks = ot.MinPenaltyTicks
	}
	return ticks
}

// desiredLane dispatches the per-style lane-seeking policy.
func (m *OvertakingManager) desiredLane(ctx ModifierContext, state *HorseRaceState, field []*HorseRaceState) int {
	switch ctx.Attrs.Style {
	case StyleFrontRunner:
		// Always hunt the rail.
		if state.Lane > 1 {
			return state.Lane - 1
		}
		return state.Lane
	case StyleStalker:
		return state.Lane
	case StyleMidpack:
		// Seek the center of the field one lane at a time.
		center := (len(field) + 1) / 2
		switch {
		case state.Lane < center:
			return state.Lane + 1
		case state.Lane > center:
			return state.Lane - 1
		}
		return state.Lane
	case StyleCloser:
		return m.leastTrafficLane(state, field)
	case StyleDeepCloser:
		// Patient until the final quarter, then hunt for room.
		if ctx.Progress() < m.cfg.Overtaking.FinalQuarterStart {
			return state.Lane
		}
		return m.leastTrafficLane(state, field)
	}
	return state.Lane
}

// leastTrafficLane picks the adjacent-or-current lane with the fewest
// horses ahead within the look-ahead window. Ties prefer the current
// lane, then the inner option, so the choice is deterministic.
func (m *OvertakingManager) leastTrafficLane(state *HorseRaceState, field []*HorseRaceState) int {
	best := state.Lane
	bestCount := m.trafficAhead(state, field, state.Lane)
	for _, lane := range []int{state.Lane - 1, state.Lane + 1} {
		if lane < 1 || lane > len(field) {
			continue
		}
		count := m.trafficAhead(state, field, lane)
		if count < bestCount {
			best = lane
			bestCount = count
		}
	}
	return best
}

// trafficAhead counts horses in the given lane within the look-ahead
// window in front of the horse.
func (m *OvertakingManager) trafficAhead(state *HorseRaceState, field []*HorseRaceState, lane int) int {
	count := 0
	for _, other := range field {
		if other == state || other.Finished || other.Lane != lane {
			continue
		}
		gap := other.Distance - state.Distance
		if gap >= 0 && gap <= m.cfg.Overtaking.LookAheadDistance {
			count++
		}
	}
	return count
}

// laneOccupied runs the asymmetric clearance check for moving into a
// lane: more room is required ahead of the mover than behind it, so a
// horse never cuts across the nose of a trailing rival.
func (m *OvertakingManager) laneOccupied(state *HorseRaceState, field []*HorseRaceState, lane int) bool {
	ot := m.cfg.Overtaking
	for _, other := range field {
		if other == state || other.Finished || other.Lane != lane {
			continue
		}
		gap := other.Distance - state.Distance
		if gap >= 0 && gap < ot.AheadClearance {
			return true
		}
		if gap < 0 && -gap < ot.BehindClearance {
			return true
		}
	}
	return false
}

// horseAhead returns the nearest unfinished horse in the same lane within
// the ahead-clearance window, or nil when the road is clear.
func (m *OvertakingManager) horseAhead(state *HorseRaceState, field []*HorseRaceState) *HorseRaceState {
	var nearest *HorseRaceState
	nearestGap := m.cfg.Overtaking.AheadClearance
	for _, other := range field {
		if other == state || other.Finished || other.Lane != state.Lane {
			continue
		}
		gap := other.Distance - state.Distance
		if gap > 0 && gap < nearestGap {
			nearest = other
			nearestGap = gap
		}
	}
	return nearest
}

// boxedIn reports whether both adjacent lanes have a horse alongside
// within the clearance window (or the rail/outer bound substitutes for
// one side only when the other is blocked by a horse).
func (m *OvertakingManager) boxedIn(state *HorseRaceState, field []*HorseRaceState) bool {
	inner := state.Lane - 1
	outer := state.Lane + 1
	innerBlocked := inner < 1 || m.laneOccupied(state, field, inner)
	outerBlocked := outer > len(field) || m.laneOccupied(state, field, outer)
	// Being against the rail alone is not frustration; at least one side
	// must be an actual horse.
	if inner < 1 && outer > len(field) {
		return false
	}
	hasHorseSide := (inner >= 1 && m.laneOccupied(state, field, inner)) ||
		(outer <= len(field) && m.laneOccupied(state, field, outer))
	return innerBlocked && outerBlocked && hasHorseSide
}
