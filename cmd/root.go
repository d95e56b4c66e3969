package cmd

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/derby-sim/derby-sim/sim"
)

var (
	// CLI flags for the race definition
	seed       int64   // Seed for the race RNG streams
	distance   float64 // Race distance in track units
	surface    string  // Track surface (turf, dirt, synthetic)
	condition  string  // Track condition (firm, good, soft, heavy)
	totalTicks int     // Tick count override (0 = derive from distance)
	raceCount  int     // Number of races to run as a card
	logLevel   string  // Log verbosity level

	// CLI flags for input files
	rosterFile string // YAML roster of entrants
	tuningFile string // YAML balance tables overriding the defaults

	// CLI flags for output
	showSnapshots bool // Dump the per-tick snapshot stream
	verifyReplay  bool // Run twice and require identical results
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "derby-sim",
	Short: "Deterministic tick-driven horse race simulator",
}

// runCmd simulates a single race using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one race simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := sim.DefaultTuning()
		if tuningFile != "" {
			cfg, err = sim.LoadTuning(tuningFile)
			if err != nil {
				logrus.Fatalf("Unable to load tuning: %v", err)
			}
		}

		roster := DemoRoster()
		if rosterFile != "" {
			roster, err = LoadRoster(rosterFile)
			if err != nil {
				logrus.Fatalf("Unable to load roster: %v", err)
			}
		}

		race := sim.RaceDefinition{
			Distance:   distance,
			Surface:    sim.Surface(surface),
			Condition:  sim.Condition(condition),
			TotalTicks: totalTicks,
		}

		seeds := []int64{seed}
		if raceCount > 1 {
			// A card of races: each race gets its own stream derived
			// from the master seed.
			seeds = raceSeeds(seed, raceCount)
		}

		for _, raceSeed := range seeds {
			raceID := uuid.New().String()
			logrus.Infof("Starting race %s: distance=%.1f surface=%s condition=%s seed=%d",
				raceID, distance, surface, condition, raceSeed)

			startTime := time.Now()
			result := simulateOnce(race, roster, cfg, raceSeed)

			if verifyReplay {
				replay := simulateOnce(race, roster, cfg, raceSeed)
				if !sameResult(result, replay) {
					logrus.Fatalf("Replay mismatch: identical seed and inputs produced different results")
				}
				logrus.Info("Replay verified: results identical")
			}

			PrintResult(raceID, result, time.Since(startTime))
			if showSnapshots {
				PrintSnapshots(result)
			}
		}
	},
}

// raceSeeds derives one seed per race on a card from the master seed.
// Each race reads the first draw of its own subsystem stream, so adding
// races to a card never shifts the seeds of the earlier ones.
func raceSeeds(masterSeed int64, n int) []int64 {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(masterSeed))
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = rng.ForSubsystem(sim.SubsystemRace(i)).Int63()
	}
	return seeds
}

func simulateOnce(race sim.RaceDefinition, roster []sim.HorseAttributes, cfg *sim.TuningConfig, seed int64) *sim.RaceResult {
	// Each run gets a fresh roster copy: NewSimulator resolves style
	// names in place and the replay must see pristine input.
	entrants := make([]sim.HorseAttributes, len(roster))
	copy(entrants, roster)

	s, err := sim.NewSimulator(race, entrants, cfg, seed)
	if err != nil {
		logrus.Fatalf("Race setup rejected: %v", err)
	}
	return s.Run()
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the race RNG streams")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Race definition
	runCmd.Flags().Float64Var(&distance, "distance", 10.0, "Race distance in track units")
	runCmd.Flags().StringVar(&surface, "surface", "turf", "Track surface (turf, dirt, synthetic)")
	runCmd.Flags().StringVar(&condition, "condition", "good", "Track condition (firm, good, soft, heavy)")
	runCmd.Flags().IntVar(&totalTicks, "ticks", 0, "Tick count override (0 = derive from distance)")
	runCmd.Flags().IntVar(&raceCount, "races", 1, "Number of races to run as a card (each with a derived seed)")

	// Input files
	runCmd.Flags().StringVar(&rosterFile, "roster", "", "YAML roster file (omit for the built-in demo field)")
	runCmd.Flags().StringVar(&tuningFile, "tuning", "", "YAML tuning file overriding the default balance tables")

	// Output
	runCmd.Flags().BoolVar(&showSnapshots, "snapshots", false, "Dump the per-tick snapshot stream")
	runCmd.Flags().BoolVar(&verifyReplay, "verify", false, "Run the race twice and require identical results")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
