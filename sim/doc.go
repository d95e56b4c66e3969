// Package sim provides the core tick-driven race simulation engine for
// derby-sim.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - state.go: per-horse race state and its invariants
//   - speed.go: the layered speed modifier pipeline
//   - simulator.go: the tick loop, finish resolution, and placement
//
// # Architecture
//
// The engine is a set of stateless calculators composed by the tick-loop
// orchestrator in Simulator:
//   - SpeedModifierCalculator: stat, environment, phase, stamina, and
//     variance stages composed into one multiplicative speed factor
//   - StaminaCalculator: per-tick stamina depletion
//   - OvertakingManager: per-horse lane-change state machine and traffic
//     resolution
//   - StatProgressionCalculator: post-race permanent attribute growth
//
// Each calculator is a pure function of (context, state, config); all
// mutable per-horse state is owned by the tick loop and passed in by
// explicit reference. All numeric constants live in TuningConfig,
// loaded from data at setup, so balance changes need no recompilation.
//
// # Determinism
//
// A race is a bounded, synchronous, single-threaded computation:
// horses evaluate in starting-lane order every tick and randomness comes
// from a seedable PartitionedRNG with isolated subsystem streams. Given
// the same seed, roster, definition, and tuning, two runs produce
// identical finishing orders and tick snapshots. Independent races may
// run concurrently; nothing in a Simulator is shared.
//
// Output records live in sim/timeline, a pure-data package that external
// commentary and persistence layers can import without the engine.
package sim
