// Package testutil provides shared test infrastructure for the derby-sim
// engine: invariant assertions over snapshot streams and result
// comparison helpers used across sim/ test packages.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derby-sim/derby-sim/sim/timeline"
)

// AssertLaneBounds checks that every horse in every snapshot stays within
// [1, fieldSize].
func AssertLaneBounds(t *testing.T, snapshots []timeline.TickSnapshot, fieldSize int) {
	t.Helper()
	for _, snap := range snapshots {
		for _, h := range snap.Horses {
			if h.Lane < 1 || h.Lane > fieldSize {
				t.Fatalf("tick %d: horse %s lane %d out of [1,%d]", snap.Tick, h.ID, h.Lane, fieldSize)
			}
		}
	}
}

// AssertMonotonicDistance checks that no horse ever moves backward
// across the snapshot stream.
func AssertMonotonicDistance(t *testing.T, snapshots []timeline.TickSnapshot) {
	t.Helper()
	last := map[string]float64{}
	for _, snap := range snapshots {
		for _, h := range snap.Horses {
			if prev, ok := last[h.ID]; ok && h.Distance < prev {
				t.Fatalf("tick %d: horse %s distance regressed %.4f -> %.4f", snap.Tick, h.ID, prev, h.Distance)
			}
			last[h.ID] = h.Distance
		}
	}
}

// AssertStaminaMonotonic checks that remaining stamina fraction never
// increases and stays within [0,1].
func AssertStaminaMonotonic(t *testing.T, snapshots []timeline.TickSnapshot) {
	t.Helper()
	last := map[string]float64{}
	for _, snap := range snapshots {
		for _, h := range snap.Horses {
			assert.GreaterOrEqual(t, h.StaminaFrac, 0.0, "tick %d horse %s", snap.Tick, h.ID)
			assert.LessOrEqual(t, h.StaminaFrac, 1.0, "tick %d horse %s", snap.Tick, h.ID)
			if prev, ok := last[h.ID]; ok && h.StaminaFrac > prev {
				t.Fatalf("tick %d: horse %s stamina rose %.4f -> %.4f", snap.Tick, h.ID, prev, h.StaminaFrac)
			}
			last[h.ID] = h.StaminaFrac
		}
	}
}

// AssertPlacePermutation checks the finishing list is places 1..N in
// ascending time order.
func AssertPlacePermutation(t *testing.T, finish []timeline.FinishRecord) {
	t.Helper()
	for i, rec := range finish {
		require.Equal(t, i+1, rec.Place, "finish list must be ordered by place")
		if i > 0 {
			assert.GreaterOrEqual(t, rec.Time, finish[i-1].Time, "finish times must ascend")
		}
	}
}

// RequireIdenticalResults compares two runs bit-for-bit: finishing order,
// times, and every tick snapshot.
func RequireIdenticalResults(t *testing.T, a, b []timeline.FinishRecord, snapA, snapB []timeline.TickSnapshot) {
	t.Helper()
	require.Equal(t, a, b, "finishing records must be identical across replays")
	require.Equal(t, snapA, snapB, "tick snapshots must be identical across replays")
}
