package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/alloc-sim/sim/policy"
	"github.com/inference-sim/alloc-sim/sim/trace"
)

var (
	// Shared CLI flags
	seed       int64  // Master seed; overrides the config file seed when set
	logLevel   string // Log verbosity level
	configPath string // Path to an EnvConfig YAML file; built-in defaults when empty

	// Environment overrides
	normalize  bool   // Scale observations into [0,1]
	rewardMode string // "value" or "utilization"

	// Episode driver flags
	episodes           int    // Number of episodes to play
	validationEpisodes int    // Episodes played on a separate validation environment
	policyName         string // Policy choosing the actions
	compareExact       bool   // Solve every instance exactly and report the optimality ratio
	dbPath             string // SQLite results ledger; disabled when empty
	traceLevel         string // Per-step trace verbosity
	summaryPath        string // Write the summary JSON to this file as well

	// Solve flags
	instances int // Number of generated instances to solve
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "alloc-sim",
	Short: "Episode simulator for multi-dimensional resource allocation",
}

// runCmd drives episodes with a policy
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play allocation episodes with a policy",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		if !policy.IsValidPolicy(policyName) {
			logrus.Fatalf("Unknown policy %q. Valid: random, greedy, exact", policyName)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Unknown trace level %q. Valid: none, steps", traceLevel)
		}
		if episodes <= 0 {
			logrus.Fatalf("--episodes must be positive, got %d", episodes)
		}
		if validationEpisodes < 0 {
			logrus.Fatalf("--validation-episodes must be non-negative, got %d", validationEpisodes)
		}

		cfg, err := resolveEnvConfig(cmd, configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := executeRun(cfg, runSettingsFromFlags(), os.Stdout); err != nil {
			logrus.Fatalf("Run failed: %v", err)
		}
		logrus.Info("Run complete.")
	},
}

// solveCmd solves generated instances exactly
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve generated instances exactly and compare with the greedy baseline",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if instances <= 0 {
			logrus.Fatalf("--instances must be positive, got %d", instances)
		}
		cfg, err := resolveEnvConfig(cmd, configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := executeSolve(cfg, instances, os.Stdout); err != nil {
			logrus.Fatalf("Solve failed: %v", err)
		}
	},
}

// validateCmd checks a config file without running anything
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an environment config file",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if configPath == "" {
			logrus.Fatalf("--config is required")
		}
		if err := validateConfigFile(configPath, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Master seed (overrides the config file seed; time-seeded when neither is set)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to environment config YAML (built-in defaults when empty)")
	rootCmd.PersistentFlags().BoolVar(&normalize, "normalize", false, "Scale observations into [0,1] (overrides config)")
	rootCmd.PersistentFlags().StringVar(&rewardMode, "reward", "value", "Reward mode: value or utilization (overrides config)")

	runCmd.Flags().IntVar(&episodes, "episodes", 100, "Number of episodes to play")
	runCmd.Flags().IntVar(&validationEpisodes, "validation-episodes", 0, "Episodes to play on a separately seeded validation environment")
	runCmd.Flags().StringVar(&policyName, "policy", "greedy", "Policy: random, greedy, exact")
	runCmd.Flags().BoolVar(&compareExact, "compare-exact", false, "Solve each instance exactly and report value/optimum")
	runCmd.Flags().StringVar(&dbPath, "db", "", "SQLite results ledger path (disabled when empty)")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Trace verbosity: none, steps")
	runCmd.Flags().StringVar(&summaryPath, "summary", "", "Also write the summary JSON to this file")

	solveCmd.Flags().IntVar(&instances, "instances", 10, "Number of generated instances to solve")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(validateCmd)
}
