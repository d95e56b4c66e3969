package sim

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/derby-sim/derby-sim/sim/timeline"
)

// Simulator is the composition root for one race: it owns the per-horse
// race state, threads the tuning config and RNG streams into the
// stateless calculators, and drives the tick loop.
//
// A single race is single-threaded and deterministic: horses are
// evaluated in starting-lane order every tick, and all randomness comes
// from the injected seed. Independent races may run concurrently, each
// with its own Simulator.
type Simulator struct {
	Race   RaceDefinition
	Config *TuningConfig
	Clock  int

	// Horses in starting-lane order. This order is the stable evaluation
	// order for the whole race.
	Horses []*HorseRaceState

	speed       *SpeedModifierCalculator
	stamina     *StaminaCalculator
	overtaking  *OvertakingManager
	progression *StatProgressionCalculator
	varianceRNG *rand.Rand

	snapshots []timeline.TickSnapshot
}

// NewSimulator validates the race setup and builds a simulator. All
// rejectable input dies here, before the first tick: the loop itself
// never returns an error.
func NewSimulator(race RaceDefinition, roster []HorseAttributes, cfg *TuningConfig, seed int64) (*Simulator, error) {
	if cfg == nil {
		cfg = DefaultTuning()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}

	race = race.Normalize(cfg)
	if err := race.Validate(); err != nil {
		return nil, fmt.Errorf("invalid race definition: %w", err)
	}

	if len(roster) == 0 {
		return nil, fmt.Errorf("empty roster")
	}
	if len(roster) < race.MinFieldSize || len(roster) > race.MaxFieldSize {
		return nil, fmt.Errorf("field size %d outside bounds [%d,%d]",
			len(roster), race.MinFieldSize, race.MaxFieldSize)
	}

	rng := NewPartitionedRNG(NewSimulationKey(seed))
	speed := NewSpeedModifierCalculator(cfg)

	s := &Simulator{
		Race:        race,
		Config:      cfg,
		speed:       speed,
		stamina:     NewStaminaCalculator(cfg),
		overtaking:  NewOvertakingManager(cfg, speed, rng.ForSubsystem(SubsystemOvertaking)),
		progression: NewStatProgressionCalculator(cfg),
		varianceRNG: rng.ForSubsystem(SubsystemVariance),
	}

	seen := make(map[string]bool, len(roster))
	for i := range roster {
		attrs := &roster[i]
		if err := attrs.Validate(); err != nil {
			return nil, fmt.Errorf("invalid roster: %w", err)
		}
		if seen[attrs.ID] {
			return nil, fmt.Errorf("invalid roster: duplicate horse ID %s", attrs.ID)
		}
		seen[attrs.ID] = true
		// The zero value of RunningStyle is a real style, so a missing
		// style name must resolve explicitly to the neutral fallback.
		attrs.Style = StyleUnknown
		if attrs.StyleName != "" {
			style, ok := ParseRunningStyle(attrs.StyleName)
			if !ok {
				// Unknown styles run the race with neutral behavior
				// everywhere; this is a tuning-data concern, not a fault.
				logrus.Warnf("horse %s: unknown running style %q, treating as neutral", attrs.ID, attrs.StyleName)
			}
			attrs.Style = style
		}
		// Roster order is the gate order: lane i+1.
		s.Horses = append(s.Horses, NewHorseRaceState(attrs, i+1, cfg))
	}

	return s, nil
}

// Run drives the full race and returns the result. The loop runs at most
// the race's fixed tick count; horses still short of the wire after the
// last tick have their finish time extrapolated at their final speed so
// placement is always total.
func (s *Simulator) Run() *RaceResult {
	logrus.Infof("Race start: %.1f units on %s/%s, %d ticks, %d runners",
		s.Race.Distance, s.Race.Surface, s.Race.Condition, s.Race.TotalTicks, len(s.Horses))

	baseSpeed := s.Race.BaseSpeed()

	for tick := 1; tick <= s.Race.TotalTicks; tick++ {
		s.Clock = tick
		if s.allFinished() {
			break
		}
		s.step(tick, baseSpeed)
		s.recordSnapshot(tick)
	}

	s.extrapolateStragglers(baseSpeed)
	s.assignPlaces()

	logrus.Infof("[tick %07d] Race ended, winner %s", s.Clock, s.winnersID())

	return &RaceResult{
		Finish:      s.finishRecords(),
		Snapshots:   s.snapshots,
		Progression: s.runProgression(),
	}
}

// step advances every unfinished horse by one tick in stable order.
func (s *Simulator) step(tick int, baseSpeed float64) {
	for _, h := range s.Horses {
		if h.Finished {
			continue
		}
		ctx := NewModifierContext(tick, h.Attrs, s.Race)

		baseline := s.speed.Baseline(ctx, h, s.Horses)
		traffic := s.overtaking.Apply(ctx, h, s.Horses)
		variance := s.speed.Variance(s.varianceRNG)
		multiplier := baseline * traffic * variance

		speed := baseSpeed * multiplier
		if speed < 0 {
			speed = 0
		}
		h.lastSpeed = speed

		remaining := s.Race.Distance - h.Distance
		tickShare := 1.0
		if speed > 0 && speed >= remaining {
			// Crossed the wire inside this tick: interpolate the
			// fraction of the tick spent reaching it.
			tickShare = remaining / speed
			h.FinishTime = float64(tick-1) + tickShare
			h.Distance = s.Race.Distance
			h.Finished = true
			logrus.Debugf("[tick %07d] %s finishes at %.3f", tick, h.Attrs.ID, h.FinishTime)
		} else {
			h.Distance += speed
		}

		// Only the fraction of the crossing tick actually run burns
		// stamina.
		depletion := s.stamina.Depletion(ctx, multiplier) * tickShare
		h.StaminaLeft -= depletion
		if h.StaminaLeft < 0 {
			h.StaminaLeft = 0
		}

		h.assertInvariants(len(s.Horses))
	}
}

// extrapolateStragglers assigns finish times to horses that did not reach
// the wire within the fixed tick count, projecting their last computed
// speed forward. Placement must be a total order over the field.
func (s *Simulator) extrapolateStragglers(baseSpeed float64) {
	for _, h := range s.Horses {
		if h.Finished {
			continue
		}
		speed := h.lastSpeed
		if speed <= 0 {
			// A horse that never moved still places: project the worst
			// sustained pace the penalty curve allows.
			speed = baseSpeed * (1.0 - s.Config.Speed.StaminaPenalty.MaxPenalty)
		}
		remaining := s.Race.Distance - h.Distance
		h.FinishTime = float64(s.Race.TotalTicks) + remaining/speed
		h.Distance = s.Race.Distance
		h.Finished = true
	}
}

// assignPlaces sorts by elapsed time with starting lane as the stable
// photo-finish tie-break and assigns places 1..N exactly once.
func (s *Simulator) assignPlaces() {
	order := make([]*HorseRaceState, len(s.Horses))
	copy(order, s.Horses)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].FinishTime != order[j].FinishTime {
			return order[i].FinishTime < order[j].FinishTime
		}
		return order[i].StartLane < order[j].StartLane
	})

	margin := s.Config.Race.PhotoFinishMargin
	for i, h := range order {
		h.Place = i + 1
		if i > 0 && order[i].FinishTime-order[i-1].FinishTime < margin {
			order[i].PhotoFinish = true
			order[i-1].PhotoFinish = true
		}
	}
}

// runProgression computes post-race growth per horse. Failures are
// reported per horse; one missing ceiling never aborts the batch.
func (s *Simulator) runProgression() []ProgressionResult {
	results := make([]ProgressionResult, 0, len(s.Horses))
	for _, h := range s.Horses {
		growth, err := s.progression.Growth(h.Attrs, h.Place, len(s.Horses), s.Race)
		if err != nil {
			logrus.Warnf("progression skipped: %v", err)
		}
		results = append(results, ProgressionResult{
			HorseID: h.Attrs.ID,
			Growth:  growth,
			Err:     err,
		})
	}
	return results
}

func (s *Simulator) recordSnapshot(tick int) {
	positions := make([]timeline.HorsePosition, 0, len(s.Horses))
	for _, h := range s.Horses {
		positions = append(positions, timeline.HorsePosition{
			ID:          h.Attrs.ID,
			Lane:        h.Lane,
			Distance:    h.Distance,
			StaminaFrac: h.StaminaFraction(),
			Finished:    h.Finished,
		})
	}
	s.snapshots = append(s.snapshots, timeline.TickSnapshot{Tick: tick, Horses: positions})
}

func (s *Simulator) finishRecords() []timeline.FinishRecord {
	records := make([]timeline.FinishRecord, len(s.Horses))
	for _, h := range s.Horses {
		records[h.Place-1] = timeline.FinishRecord{
			ID:          h.Attrs.ID,
			Place:       h.Place,
			Time:        h.FinishTime,
			PhotoFinish: h.PhotoFinish,
			StartLane:   h.StartLane,
		}
	}
	return records
}

func (s *Simulator) allFinished() bool {
	for _, h := range s.Horses {
		if !h.Finished {
			return false
		}
	}
	return true
}

func (s *Simulator) winnersID() string {
	for _, h := range s.Horses {
		if h.Place == 1 {
			return h.Attrs.ID
		}
	}
	return ""
}
