package cmd

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/reclaim-bench/reclaim-bench/bench"
	"github.com/reclaim-bench/reclaim-bench/report"
)

var (
	// CLI flags
	configPath  string // Path to the benchmark group YAML
	outDir      string // Directory for CSV outputs
	logLevel    string // Log verbosity level
	seed        int64  // Master seed override
	threads     []int  // Thread-count sweep override
	repetitions int    // Repetition count override
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "reclaim-bench",
	Short: "Benchmark harness for concurrent memory reclamation strategies",
}

// runCmd executes one benchmark group using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a benchmark group and write its CSV results",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		group, err := bench.LoadGroupSpec(configPath)
		if err != nil {
			logrus.Fatalf("Unable to load benchmark group: %v", err)
		}

		// Flag overrides beat the file values, but only when set explicitly
		if cmd.Flags().Changed("seed") {
			group.Seed = seed
		}
		if cmd.Flags().Changed("threads") {
			group.Threads = threads
		}
		if cmd.Flags().Changed("repetitions") {
			group.Repetitions = repetitions
		}
		if err := group.Validate(); err != nil {
			logrus.Fatalf("Invalid benchmark group after overrides: %v", err)
		}

		logrus.Infof("Starting group %q: %d structures x %d schemes x %v threads, %d repetitions",
			group.Name, len(group.Structures), len(group.Schemes), group.Threads, group.Repetitions)

		startTime := time.Now()

		orch := bench.NewOrchestrator(group)
		results, err := orch.Run(context.Background())
		if err != nil {
			logrus.Fatalf("Benchmark group aborted: %v", err)
		}

		if err := report.WriteFiles(outDir, group.Name, results); err != nil {
			logrus.Fatalf("Unable to write results: %v", err)
		}

		logrus.Infof("Group complete: %d repetitions in %v, results in %s",
			len(results), time.Since(startTime).Round(time.Millisecond), outDir)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to the benchmark group YAML file")
	runCmd.Flags().StringVar(&outDir, "out", "results", "Directory for CSV output files")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Sweep overrides
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for deterministic operation streams")
	runCmd.Flags().IntSliceVar(&threads, "threads", nil, "Comma-separated thread counts, overrides the file sweep")
	runCmd.Flags().IntVar(&repetitions, "repetitions", 0, "Repetitions per configuration, overrides the file value")

	if err := runCmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
