package sim

import "github.com/derby-sim/derby-sim/sim/timeline"

// ProgressionResult carries one horse's post-race growth, or the
// per-horse error that kept it from being computed. A progression
// failure never aborts the rest of the batch.
type ProgressionResult struct {
	HorseID string
	Growth  StatGrowth
	Err     error
}

// RaceResult is the engine's complete output for one race: the ordered
// finishing list, the tick snapshot stream, and per-horse permanent
// growth. The engine hands it off and forgets it; persistence and
// messaging are collaborators' concerns.
type RaceResult struct {
	Finish      []timeline.FinishRecord
	Snapshots   []timeline.TickSnapshot
	Progression []ProgressionResult
}
