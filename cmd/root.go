package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	sim "github.com/inference-sim/dining-sim/sim"
	"github.com/inference-sim/dining-sim/sim/report"
	"github.com/inference-sim/dining-sim/sim/trace"
)

var (
	// CLI flags for table and pass configuration
	philosophers   int           // Number of philosophers (and forks)
	capacities     []int         // Gate capacities, one concurrent pass each
	gatePolicy     string        // Admission gate policy
	gateScope      string        // Part of the cycle that holds a gate slot
	order          string        // Fork acquisition order
	cycles         int           // Think/eat cycles per philosopher per pass
	thinkDelay     time.Duration // Think phase duration
	eatDelay       time.Duration // Eat phase duration
	jitter         float64       // Delay jitter fraction
	seed           int64         // Seed for jitter draws
	acquireTimeout time.Duration // Bounded wait per fork (0 = unbounded)
	passTimeout    time.Duration // Deadline for the whole run (0 = none)
	mode           string        // sweep, sequential, or concurrent
	outputPath     string        // Result file path
	configPath     string        // Optional YAML run config
	logLevel       string        // Log verbosity level
	traceLevel     string        // Event trace level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "dining-sim",
	Short: "Dining philosophers simulation with bounded admission",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run sequential and gated concurrent passes",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		opts, err := resolveRunOptions(cmd.Flags())
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if _, err := runSimulation(ctx, opts, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// validateCmd checks a YAML run config without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a YAML run config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			return fmt.Errorf("--config is required")
		}
		bundle, err := sim.LoadRunBundle(configPath)
		if err != nil {
			return err
		}
		if err := bundle.Validate(); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", configPath)
		return err
	},
}

// runSimulation builds the table, drives the passes selected by opts, prints
// each result to out, and writes the report file when opts.Output is set.
func runSimulation(ctx context.Context, opts runOptions, out io.Writer) ([]sim.PassResult, error) {
	if opts.PassTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.PassTimeout)
		defer cancel()
	}

	var st *trace.SimulationTrace
	if opts.TraceLevel != "" && opts.TraceLevel != string(trace.TraceLevelNone) {
		st = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(opts.TraceLevel)})
		opts.Table.Observer = st
	}

	table, err := sim.NewTable(opts.Philosophers, opts.Table)
	if err != nil {
		return nil, err
	}
	orch, err := sim.NewOrchestrator(table, sim.OrchestratorConfig{Scope: opts.Scope})
	if err != nil {
		return nil, err
	}

	logrus.Infof("Starting simulation: %d philosophers, mode=%s, capacities=%v, think=%v, eat=%v",
		opts.Philosophers, opts.Mode, opts.Capacities, opts.Table.Delays.Think, opts.Table.Delays.Eat)

	var results []sim.PassResult
	switch opts.Mode {
	case modeSequential:
		var res sim.PassResult
		res, err = orch.RunSequential(ctx)
		results = append(results, res)
	case modeConcurrent:
		for _, c := range opts.Capacities {
			var gate sim.AdmissionGate
			gate, err = sim.NewAdmissionGate(opts.GatePolicy, c, opts.Philosophers)
			if err != nil {
				break
			}
			var res sim.PassResult
			res, err = orch.RunConcurrent(ctx, gate)
			results = append(results, res)
			if err != nil {
				break
			}
		}
	default:
		results, err = orch.Sweep(ctx, opts.GatePolicy, opts.Capacities)
	}
	if err != nil {
		return results, err
	}

	for _, res := range results {
		if _, werr := fmt.Fprintln(out, res.String()); werr != nil {
			return results, werr
		}
	}
	if st != nil {
		summary := trace.Summarize(st)
		logrus.Infof("Trace: %d events, peak holders %d, peak eating %d, peak admitted %d, double holds %d",
			summary.TotalEvents, summary.PeakHolders, summary.PeakEating, summary.PeakAdmitted, summary.DoubleHolds)
	}

	rep := report.New(opts.GatePolicy, results)
	if opts.Output != "" {
		if err := rep.SaveToFile(opts.Output); err != nil {
			return results, err
		}
		logrus.Infof("Results saved to %s", opts.Output)
	}
	return results, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerRunFlags binds the run flags to fs, resetting every flag variable
// to its default.
func registerRunFlags(fs *pflag.FlagSet) {
	fs.IntVar(&philosophers, "philosophers", 7, "Number of philosophers (and forks), at least 2")
	fs.IntSliceVar(&capacities, "capacity", []int{2}, "Comma-separated admission gate capacities, one concurrent pass each")
	fs.StringVar(&gatePolicy, "gate", "semaphore", "Admission gate policy (semaphore, unbounded)")
	fs.StringVar(&gateScope, "gate-scope", string(sim.ScopeRunning), "Part of the cycle holding a gate slot (running, eating)")
	fs.StringVar(&order, "order", "parity", "Fork acquisition order (parity, left-first)")
	fs.IntVar(&cycles, "cycles", 1, "Think/eat cycles per philosopher per pass")
	fs.DurationVar(&thinkDelay, "think", sim.DefaultThinkDelay, "Think phase duration")
	fs.DurationVar(&eatDelay, "eat", sim.DefaultEatDelay, "Eat phase duration")
	fs.Float64Var(&jitter, "jitter", 0, "Fraction in [0,1] by which think/eat delays vary")
	fs.Int64Var(&seed, "seed", 42, "Seed for delay jitter")
	fs.DurationVar(&acquireTimeout, "acquire-timeout", 0, "Give up on a fork after this long (0 = wait forever)")
	fs.DurationVar(&passTimeout, "timeout", 0, "Cancel the run after this long (0 = no deadline)")
	fs.StringVar(&mode, "mode", modeSweep, "Passes to run (sweep, sequential, concurrent)")
	fs.StringVar(&outputPath, "output", report.DefaultPath, "Result file path (empty = do not write)")
	fs.StringVar(&configPath, "config", "", "YAML run config; explicit flags take precedence")
	fs.StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	fs.StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Event trace level (none, events)")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd.Flags())

	validateCmd.Flags().StringVar(&configPath, "config", "", "YAML run config to validate")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
