// Package timeline holds the pure data records the engine emits for
// external consumers: the per-tick snapshot stream read by the
// commentary/narrative layer and the finishing records stored by the
// persistence layer. It has no dependency on the sim package so those
// consumers can import it without pulling in the engine.
package timeline

// HorsePosition is one horse's observable state at a tick.
type HorsePosition struct {
	ID       string
	Lane     int
	Distance float64
	// StaminaFrac is remaining stamina as a fraction of the pool;
	// 1.0 for horses with no pool configured.
	StaminaFrac float64
	Finished    bool
}

// TickSnapshot is the engine's output for a single tick: every horse's
// lane and distance, in stable starting-lane order.
type TickSnapshot struct {
	Tick   int
	Horses []HorsePosition
}

// FinishRecord is one line of the final placing.
type FinishRecord struct {
	ID    string
	Place int
	// Time is the elapsed finishing time in fractional ticks.
	Time float64
	// PhotoFinish marks a finisher separated from a neighbor by less
	// than the configured photo-finish margin.
	PhotoFinish bool
	StartLane   int
}
