package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derby-sim/derby-sim/sim/internal/testutil"
)

// zeroVarianceTuning returns the default tables with the random stage
// disabled, for scenarios that must be exactly reproducible by hand.
func zeroVarianceTuning() *TuningConfig {
	cfg := DefaultTuning()
	cfg.Speed.VarianceMagnitude = 0
	return cfg
}

func identicalField(n int) []HorseAttributes {
	roster := make([]HorseAttributes, 0, n)
	for i := 0; i < n; i++ {
		h := midpointHorse(string(rune('a' + i)))
		h.Ceilings = StatCeilings{Speed: 80, Agility: 80, Stamina: 80, Durability: 80}
		roster = append(roster, h)
	}
	return roster
}

func mixedField() []HorseAttributes {
	styles := []string{"front-runner", "stalker", "midpack", "closer", "deep-closer", "stalker", "closer", "front-runner"}
	roster := make([]HorseAttributes, 0, len(styles))
	for i, style := range styles {
		h := HorseAttributes{
			ID:         string(rune('a' + i)),
			Speed:      45 + i*5,
			Agility:    70 - i*4,
			Stamina:    50 + i*3,
			Durability: 60 - i*2,
			Happiness:  40 + i*6,
			StyleName:  style,
			Ceilings:   StatCeilings{Speed: 95, Agility: 95, Stamina: 95, Durability: 95},
		}
		h.CareerRaces = 3 * i
		roster = append(roster, h)
	}
	return roster
}

func TestNewSimulator_SetupValidation(t *testing.T) {
	race := RaceDefinition{Distance: 10, Surface: SurfaceTurf, Condition: ConditionGood}

	tests := []struct {
		name   string
		race   RaceDefinition
		roster []HorseAttributes
	}{
		{"empty roster", race, nil},
		{"zero distance", RaceDefinition{Distance: 0}, identicalField(8)},
		{"negative ticks", RaceDefinition{Distance: 10, TotalTicks: -5}, identicalField(8)},
		{"oversized field", race, identicalField(30)},
		{"stat out of range", race, func() []HorseAttributes {
			r := identicalField(8)
			r[3].Speed = 250
			return r
		}()},
		{"duplicate IDs", race, func() []HorseAttributes {
			r := identicalField(8)
			r[1].ID = r[0].ID
			return r
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSimulator(tt.race, tt.roster, DefaultTuning(), 42)
			assert.Error(t, err)
		})
	}
}

func TestNewSimulator_UndersizedFieldRejected(t *testing.T) {
	cfg := DefaultTuning() // min field size 2
	race := RaceDefinition{Distance: 10}
	_, err := NewSimulator(race, identicalField(1), cfg, 42)
	assert.Error(t, err)
}

func TestRun_InvariantsHoldAcrossTheRace(t *testing.T) {
	race := RaceDefinition{Distance: 10, Surface: SurfaceTurf, Condition: ConditionGood}
	s, err := NewSimulator(race, mixedField(), DefaultTuning(), 42)
	require.NoError(t, err)

	result := s.Run()

	testutil.AssertLaneBounds(t, result.Snapshots, 8)
	testutil.AssertMonotonicDistance(t, result.Snapshots)
	testutil.AssertStaminaMonotonic(t, result.Snapshots)
	testutil.AssertPlacePermutation(t, result.Finish)
	assert.Len(t, result.Finish, 8)
	assert.Len(t, result.Progression, 8)
}

func TestRun_ReplayIsBitIdentical(t *testing.T) {
	race := RaceDefinition{Distance: 12, Surface: SurfaceDirt, Condition: ConditionSoft}

	runOnce := func() *RaceResult {
		s, err := NewSimulator(race, mixedField(), DefaultTuning(), 1337)
		require.NoError(t, err)
		return s.Run()
	}

	a := runOnce()
	b := runOnce()
	testutil.RequireIdenticalResults(t, a.Finish, b.Finish, a.Snapshots, b.Snapshots)
}

func TestRun_DifferentSeedsDiverge(t *testing.T) {
	race := RaceDefinition{Distance: 12, Surface: SurfaceDirt, Condition: ConditionSoft}

	run := func(seed int64) *RaceResult {
		s, err := NewSimulator(race, mixedField(), DefaultTuning(), seed)
		require.NoError(t, err)
		return s.Run()
	}

	a := run(1)
	b := run(2)
	assert.NotEqual(t, a.Snapshots, b.Snapshots, "variance must differ across seeds")
}

func TestRun_IdenticalHorsesTieWithStableTieBreak(t *testing.T) {
	// Eight clones, zero variance, neutral styles: everyone crosses
	// together. Placement must fall back to starting lane, and the
	// photo-finish margin must flag the whole pack.
	race := RaceDefinition{Distance: 10, Surface: SurfaceTurf, Condition: ConditionGood}
	s, err := NewSimulator(race, identicalField(8), zeroVarianceTuning(), 42)
	require.NoError(t, err)

	result := s.Run()

	require.Len(t, result.Finish, 8)
	firstTime := result.Finish[0].Time
	for i, rec := range result.Finish {
		assert.InDelta(t, firstTime, rec.Time, 1e-9, "clones must tie")
		assert.Equal(t, i+1, rec.Place)
		assert.Equal(t, i+1, rec.StartLane, "tie-break must follow starting lane")
		assert.True(t, rec.PhotoFinish, "the whole pack is inside the photo margin")
	}
}

func TestRun_ZeroStaminaPoolIsPenaltyExempt(t *testing.T) {
	// A horse with no stamina pool configured runs the whole race
	// unpenalized: its stamina fraction reports 1.0 at every tick.
	cfg := zeroVarianceTuning()
	cfg.Race.MinFieldSize = 1

	h := midpointHorse("solo")
	h.Stamina = 0 // pool = 0 * PoolPerPoint
	h.Ceilings = StatCeilings{Speed: 80, Agility: 80, Stamina: 80, Durability: 80}

	race := RaceDefinition{Distance: 10, Surface: SurfaceTurf, Condition: ConditionGood}
	s, err := NewSimulator(race, []HorseAttributes{h}, cfg, 42)
	require.NoError(t, err)

	result := s.Run()

	for _, snap := range result.Snapshots {
		require.Equal(t, 1.0, snap.Horses[0].StaminaFrac, "tick %d", snap.Tick)
	}

	// With every stage neutral the horse finishes exactly on schedule.
	require.Len(t, result.Finish, 1)
	assert.InDelta(t, float64(race.Normalize(cfg).TotalTicks), result.Finish[0].Time, 1e-6)
}

func TestRun_CrossingTickDepletesFractionally(t *testing.T) {
	// With the penalty curve flattened and variance off, a boosted solo
	// horse runs a constant multiplier and crosses the wire mid-tick.
	// Total stamina burned must track elapsed fractional ticks, not the
	// whole-tick count.
	cfg := zeroVarianceTuning()
	cfg.Race.MinFieldSize = 1
	cfg.Speed.StaminaPenalty.LinearSlope = 0
	cfg.Speed.StaminaPenalty.QuadScale = 0

	h := midpointHorse("solo")
	h.Speed = 100 // constant 1.1 multiplier

	race := RaceDefinition{Distance: 5, Surface: SurfaceTurf, Condition: ConditionGood}
	s, err := NewSimulator(race, []HorseAttributes{h}, cfg, 42)
	require.NoError(t, err)

	result := s.Run()
	require.Len(t, result.Finish, 1)
	finishTime := result.Finish[0].Time
	assert.Greater(t, finishTime, float64(int(finishTime)), "scenario must finish mid-tick")

	perTick := NewStaminaCalculator(cfg).Depletion(
		staminaContext(&h, race.Distance, 1, race.Normalize(cfg).TotalTicks), 1.1)
	pool := float64(h.Stamina) * cfg.Stamina.PoolPerPoint

	last := result.Snapshots[len(result.Snapshots)-1]
	require.True(t, last.Horses[0].Finished)
	assert.InDelta(t, 1.0-perTick*finishTime/pool, last.Horses[0].StaminaFrac, 1e-9)
}

func TestRun_StragglersStillPlace(t *testing.T) {
	// A brutally short tick budget: nobody reaches the wire inside the
	// loop, yet placement must still be a total order.
	race := RaceDefinition{Distance: 10, TotalTicks: 5, Surface: SurfaceTurf, Condition: ConditionGood}
	s, err := NewSimulator(race, mixedField(), DefaultTuning(), 42)
	require.NoError(t, err)

	result := s.Run()

	testutil.AssertPlacePermutation(t, result.Finish)
	for _, rec := range result.Finish {
		assert.Greater(t, rec.Time, 5.0, "projected finishes land past the simulated window")
	}
}

func TestRun_ProgressionErrorsAreStrictlyPerHorse(t *testing.T) {
	roster := mixedField()
	roster[2].Ceilings = StatCeilings{} // missing data for one horse only

	race := RaceDefinition{Distance: 10, Surface: SurfaceTurf, Condition: ConditionGood}
	s, err := NewSimulator(race, roster, DefaultTuning(), 42)
	require.NoError(t, err)

	result := s.Run()

	require.Len(t, result.Progression, 8)
	failures := 0
	for _, p := range result.Progression {
		if p.Err != nil {
			failures++
			assert.Equal(t, "c", p.HorseID)
		} else {
			// Everyone else still gets growth computed
			assert.GreaterOrEqual(t, p.Growth.Speed, 0.0)
		}
	}
	assert.Equal(t, 1, failures)
}

func TestRun_SnapshotStreamIsStableOrder(t *testing.T) {
	race := RaceDefinition{Distance: 10, Surface: SurfaceTurf, Condition: ConditionGood}
	s, err := NewSimulator(race, mixedField(), DefaultTuning(), 42)
	require.NoError(t, err)

	result := s.Run()

	require.NotEmpty(t, result.Snapshots)
	for _, snap := range result.Snapshots {
		require.Len(t, snap.Horses, 8)
		for i, h := range snap.Horses {
			// Snapshot order is gate order, every tick
			assert.Equal(t, string(rune('a'+i)), h.ID)
		}
	}
}

func TestNewSimulator_MissingStyleIsNeutral(t *testing.T) {
	// A roster entry without a style must not inherit the zero value of
	// RunningStyle, which is a real style with a phase bonus and a lane
	// policy. This is exactly the state a YAML-decoded record arrives in.
	roster := identicalField(2)
	roster[0].Style = StyleFrontRunner
	roster[0].StyleName = ""

	race := RaceDefinition{Distance: 10, Surface: SurfaceTurf, Condition: ConditionGood}
	s, err := NewSimulator(race, roster, zeroVarianceTuning(), 42)
	require.NoError(t, err)

	assert.Equal(t, StyleUnknown, s.Horses[0].Attrs.Style)
	assert.Equal(t, StyleUnknown, s.Horses[1].Attrs.Style)
}

func TestRun_UnknownStyleRunsNeutral(t *testing.T) {
	// A sprint keeps stamina out of play so the only difference between
	// the two clones is the front runner's early window bonus. The
	// unknown-style horse runs fully neutral and loses.
	roster := identicalField(2)
	roster[0].StyleName = "front-runner" // lane 1: holds the rail, no traffic
	roster[1].StyleName = "gallop-wizard"

	race := RaceDefinition{Distance: 5, Surface: SurfaceTurf, Condition: ConditionGood}
	s, err := NewSimulator(race, roster, zeroVarianceTuning(), 42)
	require.NoError(t, err)

	result := s.Run()
	testutil.AssertPlacePermutation(t, result.Finish)
	assert.Equal(t, "a", result.Finish[0].ID)
}

func TestRun_RiskyPenaltyDurationShrinksWithDurability(t *testing.T) {
	// Unit-level check on the knob the race exposes: with everything
	// else fixed, higher durability strictly shortens the squeeze
	// penalty until the one-tick floor.
	cfg := DefaultTuning()
	m := newTestManager(cfg, 1)

	prevTicks := int(1 << 30)
	sawFloor := false
	for dur := 0; dur <= 100; dur += 25 {
		attrs := midpointHorse("probe")
		attrs.Durability = dur
		ticks := m.penaltyTicks(&attrs)
		assert.LessOrEqual(t, ticks, prevTicks, "duration must not grow with durability")
		assert.GreaterOrEqual(t, ticks, cfg.Overtaking.MinPenaltyTicks)
		if ticks == cfg.Overtaking.MinPenaltyTicks {
			sawFloor = true
		}
		prevTicks = ticks
	}
	_ = sawFloor // floor reachability depends on tuning; bounds checked above
}
