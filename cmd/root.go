package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chaosgen/chaosgen/gen/scenario"
	"github.com/chaosgen/chaosgen/runner"
)

var (
	// CLI flags for the run command
	scenarioPath string  // Path to a YAML scenario; empty runs the built-in default
	concurrency  int     // Number of client worker slots
	seed         int64   // Master seed; overrides the scenario's own seed
	timeLimitMs  int64   // Overall run bound in ms; overrides the scenario's
	logLevel     string  // Log verbosity level
	clientSeed   int64   // Seed for the simulated execution layer
	failRatio    float64 // Probability a simulated invocation fails
	infoRatio    float64 // Probability a simulated invocation times out
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "chaosgen",
	Short: "Deterministic operation scheduler for fault-injection test runs",
}

// runCmd compiles a scenario and drives it against the simulated client
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a workload scenario to exhaustion",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		var s *scenario.Scenario
		if scenarioPath != "" {
			s, err = scenario.Load(scenarioPath)
			if err != nil {
				logrus.Fatalf("Could not load scenario: %v", err)
			}
		} else {
			s = defaultScenario()
		}
		if timeLimitMs > 0 {
			s.TimeLimitMs = timeLimitMs
		}

		tree, err := s.Compile(seed)
		if err != nil {
			logrus.Fatalf("Could not compile scenario: %v", err)
		}

		logrus.Infof("Starting run: concurrency=%d seed=%d time_limit_ms=%d",
			concurrency, seed, s.TimeLimitMs)

		client := runner.NewSimClient(clientSeed, failRatio, infoRatio)
		r := runner.New(concurrency, tree, client)
		if err := r.Run(); err != nil {
			logrus.Fatalf("Run failed: %v", err)
		}
		printSummary(r.History())
		logrus.Info("Run complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// validateCmd checks a scenario file without running it
var validateCmd = &cobra.Command{
	Use:   "validate <scenario.yaml>",
	Short: "Validate a scenario file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s, err := scenario.Load(args[0])
		if err != nil {
			logrus.Fatalf("Could not load scenario: %v", err)
		}
		if err := s.Validate(); err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
		logrus.Infof("%s is valid", args[0])
	},
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a YAML scenario file (empty runs the built-in default)")
	runCmd.Flags().IntVar(&concurrency, "concurrency", 5, "Number of client worker slots")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for scheduling randomness")
	runCmd.Flags().Int64Var(&timeLimitMs, "time-limit", 0, "Overall run bound in milliseconds (0 keeps the scenario's)")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Simulated execution layer
	runCmd.Flags().Int64Var(&clientSeed, "client-seed", 1, "Seed for simulated invocation outcomes")
	runCmd.Flags().Float64Var(&failRatio, "fail-ratio", 0.05, "Probability a simulated invocation fails")
	runCmd.Flags().Float64Var(&infoRatio, "info-ratio", 0.02, "Probability a simulated invocation times out")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
