package cmd

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	sim "github.com/derby-sim/derby-sim/sim"
	"github.com/derby-sim/derby-sim/sim/timeline"
)

// PrintResult displays the finishing order and progression summary at the
// end of a simulation.
func PrintResult(raceID string, result *sim.RaceResult, elapsed time.Duration) {
	fmt.Println("=== Race Result ===")
	fmt.Printf("Race ID        : %s\n", raceID)
	fmt.Printf("Simulated ticks: %d\n", len(result.Snapshots))
	fmt.Printf("Wall time      : %s\n", elapsed)

	photoFinishes := lo.CountBy(result.Finish, func(r timeline.FinishRecord) bool {
		return r.PhotoFinish
	})
	if photoFinishes > 0 {
		fmt.Printf("Photo finish   : %d horses inside the margin\n", photoFinishes)
	}

	growthByID := lo.SliceToMap(result.Progression, func(p sim.ProgressionResult) (string, sim.ProgressionResult) {
		return p.HorseID, p
	})

	fmt.Println()
	fmt.Printf("%-5s %-10s %-10s %-6s %s\n", "Place", "Horse", "Time", "Lane", "Growth (spd/agi/sta/dur)")
	for _, rec := range result.Finish {
		marker := " "
		if rec.PhotoFinish {
			marker = "*"
		}
		line := fmt.Sprintf("%-5d %-10s %8.3f%s %-6d", rec.Place, rec.ID, rec.Time, marker, rec.StartLane)
		if p, ok := growthByID[rec.ID]; ok {
			if p.Err != nil {
				line += fmt.Sprintf(" (no growth: %v)", p.Err)
			} else {
				line += fmt.Sprintf(" +%.2f/+%.2f/+%.2f/+%.2f",
					p.Growth.Speed, p.Growth.Agility, p.Growth.Stamina, p.Growth.Durability)
			}
		}
		fmt.Println(line)
	}
}

// PrintSnapshots dumps the tick stream, one line per horse per tick.
// Meant for piping into the commentary tooling, not for human reading.
func PrintSnapshots(result *sim.RaceResult) {
	for _, snap := range result.Snapshots {
		for _, h := range snap.Horses {
			fmt.Printf("tick=%d horse=%s lane=%d distance=%.4f stamina=%.3f\n",
				snap.Tick, h.ID, h.Lane, h.Distance, h.StaminaFrac)
		}
	}
}

// sameResult compares two runs' observable output: finishing records and
// the full snapshot stream.
func sameResult(a, b *sim.RaceResult) bool {
	if len(a.Finish) != len(b.Finish) || len(a.Snapshots) != len(b.Snapshots) {
		return false
	}
	for i := range a.Finish {
		if a.Finish[i] != b.Finish[i] {
			return false
		}
	}
	for i := range a.Snapshots {
		if a.Snapshots[i].Tick != b.Snapshots[i].Tick {
			return false
		}
		if len(a.Snapshots[i].Horses) != len(b.Snapshots[i].Horses) {
			return false
		}
		for j := range a.Snapshots[i].Horses {
			if a.Snapshots[i].Horses[j] != b.Snapshots[i].Horses[j] {
				return false
			}
		}
	}
	return true
}
