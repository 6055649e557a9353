package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/inference-sim/dining-sim/sim"
	"github.com/inference-sim/dining-sim/sim/report"
)

// fastOptions resolves options for a zero-delay run writing into a temp dir.
func fastOptions(t *testing.T, args ...string) runOptions {
	t.Helper()
	out := filepath.Join(t.TempDir(), report.DefaultPath)
	base := []string{"--think", "0s", "--eat", "0s", "--output", out}
	opts, err := resolveRunOptions(parseRunFlags(t, append(base, args...)...))
	require.NoError(t, err)
	return opts
}

func TestRunSimulation_Sweep_WritesReport(t *testing.T) {
	// GIVEN a zero-delay sweep over three capacities
	opts := fastOptions(t, "--philosophers", "5", "--capacity", "1,2,5", "--trace", "events")
	var out bytes.Buffer

	// WHEN the simulation runs
	results, err := runSimulation(context.Background(), opts, &out)

	// THEN one sequential and three concurrent passes complete
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, sim.ModeSequential, results[0].Mode)
	for _, res := range results {
		assert.Equal(t, 5, res.Meals)
	}
	assert.Equal(t, 4, strings.Count(out.String(), "\n"), "one line per pass")

	// AND the report holds the baseline and every trial
	rep, err := report.Load(opts.Output)
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Philosophers)
	require.Len(t, rep.Trials, 3)
	assert.Equal(t, []int{1, 2, 5}, []int{rep.Trials[0].Capacity, rep.Trials[1].Capacity, rep.Trials[2].Capacity})
	assert.LessOrEqual(t, rep.Trials[0].PeakAdmitted, 1)
}

func TestRunSimulation_SequentialMode(t *testing.T) {
	opts := fastOptions(t, "--mode", "sequential", "--philosophers", "3", "--cycles", "2")
	results, err := runSimulation(context.Background(), opts, &bytes.Buffer{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 6, results[0].Meals)
}

func TestRunSimulation_ConcurrentMode_Unbounded(t *testing.T) {
	opts := fastOptions(t, "--mode", "concurrent", "--gate", "unbounded", "--philosophers", "4")
	results, err := runSimulation(context.Background(), opts, &bytes.Buffer{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, sim.ModeConcurrent, results[0].Mode)
	assert.Equal(t, 4, results[0].Capacity)
}

func TestRunSimulation_NoOutput(t *testing.T) {
	opts := fastOptions(t, "--mode", "sequential", "--philosophers", "2")
	opts.Output = ""
	_, err := runSimulation(context.Background(), opts, &bytes.Buffer{})
	assert.NoError(t, err)
}

func TestRunSimulation_PassTimeoutCancels(t *testing.T) {
	// GIVEN a run whose eat phase outlasts the run deadline
	opts := fastOptions(t, "--mode", "concurrent", "--eat", "10s", "--timeout", "20ms")

	// WHEN it runs
	start := time.Now()
	_, err := runSimulation(context.Background(), opts, &bytes.Buffer{})

	// THEN it stops early with a cancellation error
	require.Error(t, err)
	var cancelled *sim.CancellationError
	assert.True(t, errors.As(err, &cancelled), "got %v", err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", "philosophers: 4\ncapacities: [2]\n", false},
		{"invalid scope", "gate:\n  scope: always\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRunConfig(t, tt.body)
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&bytes.Buffer{})
			rootCmd.SetArgs([]string{"validate", "--config", path})
			defer rootCmd.SetArgs(nil)

			err := rootCmd.Execute()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), path+": ok")
		})
	}
}

func TestValidateCommand_RequiresConfig(t *testing.T) {
	configPath = ""
	err := validateCmd.RunE(validateCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--config")
}
