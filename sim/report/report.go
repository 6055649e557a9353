// Package report serializes pass results into the JSON result file.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/inference-sim/dining-sim/sim"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultPath is the result file written when no output path is configured.
const DefaultPath = "results.json"

// Trial is one concurrent pass at a given gate capacity.
type Trial struct {
	Capacity       int    `json:"capacity"`
	GatePolicy     string `json:"gate_policy"`
	GateScope      string `json:"gate_scope"`
	ParallelTimeMs int64  `json:"parallel_time_ms"`
	PeakAdmitted   int    `json:"peak_admitted"`
	Meals          int    `json:"meals"`
}

// Report is the structured record of a run: the sequential baseline and every
// concurrent trial.
type Report struct {
	RunID            string  `json:"run_id"`
	Philosophers     int     `json:"philosophers"`
	Cycles           int     `json:"cycles"`
	SequentialTimeMs int64   `json:"sequential_time_ms"`
	Trials           []Trial `json:"trials"`
}

// New builds a report from pass results. Sequential results set the baseline
// (the last one wins); concurrent results each become a trial.
func New(gatePolicy string, results []sim.PassResult) *Report {
	if gatePolicy == "" {
		gatePolicy = "semaphore"
	}
	r := &Report{RunID: uuid.NewString(), Trials: make([]Trial, 0, len(results))}
	for _, res := range results {
		r.Philosophers = res.Philosophers
		r.Cycles = res.Cycles
		switch res.Mode {
		case sim.ModeSequential:
			r.SequentialTimeMs = res.Elapsed.Milliseconds()
		case sim.ModeConcurrent:
			r.Trials = append(r.Trials, Trial{
				Capacity:       res.Capacity,
				GatePolicy:     gatePolicy,
				GateScope:      string(res.GateScope),
				ParallelTimeMs: res.Elapsed.Milliseconds(),
				PeakAdmitted:   res.PeakAdmitted,
				Meals:          res.Meals,
			})
		}
	}
	return r
}

// Write encodes the report as indented JSON.
func (r *Report) Write(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// SaveToFile writes the report to path, replacing any existing file.
func (r *Report) SaveToFile(path string) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating report file %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing report file %s: %w", path, closeErr)
		}
	}()
	return r.Write(f)
}

// Load reads a report previously written by SaveToFile.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return &r, nil
}
