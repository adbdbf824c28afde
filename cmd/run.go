package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/alloc-sim/sim"
	"github.com/inference-sim/alloc-sim/sim/policy"
	"github.com/inference-sim/alloc-sim/sim/solver"
	"github.com/inference-sim/alloc-sim/sim/store"
	"github.com/inference-sim/alloc-sim/sim/trace"
)

// runSettings are the episode driver flags after validation.
type runSettings struct {
	Policy             string
	Episodes           int
	ValidationEpisodes int
	CompareExact       bool
	DBPath             string
	TraceLevel         trace.TraceLevel
	SummaryPath        string
}

func runSettingsFromFlags() runSettings {
	return runSettings{
		Policy:             policyName,
		Episodes:           episodes,
		ValidationEpisodes: validationEpisodes,
		CompareExact:       compareExact,
		DBPath:             dbPath,
		TraceLevel:         trace.TraceLevel(traceLevel),
		SummaryPath:        summaryPath,
	}
}

// runReport is printed as JSON at the end of a run.
type runReport struct {
	RunID      string              `json:"run_id,omitempty"`
	Seed       int64               `json:"seed"`
	Policy     string              `json:"policy"`
	Mode       string              `json:"mode"`
	Reward     string              `json:"reward"`
	Summary    *trace.TraceSummary `json:"summary"`
	Validation *trace.TraceSummary `json:"validation,omitempty"`
}

// executeRun plays the configured episodes and writes the report to w.
// cfg must be validated and carry a seed.
func executeRun(cfg *sim.EnvConfig, rs runSettings, w io.Writer) error {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(*cfg.Seed))
	env, val, err := newEnvironments(cfg, rng, rs.ValidationEpisodes > 0)
	if err != nil {
		return err
	}
	opts := env.Options()
	p := policy.NewPolicy(rs.Policy, rng.ForSubsystem(sim.SubsystemPolicy), solver.ObjectiveFor(opts.Reward))
	runOpts := policy.RunOptions{Trace: trace.TraceConfig{Level: rs.TraceLevel}, CompareExact: rs.CompareExact}

	report := runReport{Seed: *cfg.Seed, Policy: rs.Policy, Mode: cfg.Mode, Reward: string(opts.Reward)}

	var ledger *store.Store
	if rs.DBPath != "" {
		ledger, err = store.NewStore(rs.DBPath)
		if err != nil {
			return fmt.Errorf("results ledger: %w", err)
		}
		defer ledger.Close()
		cfgYAML, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		run, err := ledger.CreateRun(rs.Policy, *cfg.Seed, string(cfgYAML))
		if err != nil {
			return err
		}
		report.RunID = run.RunID
		logrus.Infof("Recording run %s to %s", run.RunID, rs.DBPath)
	}

	logrus.Infof("Starting run: policy=%s mode=%s items=%d resources=%d episodes=%d seed=%d",
		rs.Policy, cfg.Mode, cfg.NumItems, cfg.NumResources, rs.Episodes, *cfg.Seed)
	traces, err := playEpisodes(env, p, rs.Episodes, runOpts, ledger, report.RunID)
	if err != nil {
		return err
	}
	report.Summary = trace.Summarize(traces)

	if val != nil {
		vtraces, err := playEpisodes(val, p, rs.ValidationEpisodes, runOpts, nil, "")
		if err != nil {
			return fmt.Errorf("validation: %w", err)
		}
		report.Validation = trace.Summarize(vtraces)
	}
	return writeReport(w, report, rs.SummaryPath)
}

// playEpisodes runs n episodes back to back, recording each into ledger
// when one is given.
func playEpisodes(env *sim.Environment, p policy.Policy, n int, opts policy.RunOptions, ledger *store.Store, runID string) ([]*trace.EpisodeTrace, error) {
	traces := make([]*trace.EpisodeTrace, 0, n)
	for ep := 0; ep < n; ep++ {
		opts.Episode = ep
		et, err := policy.Run(env, p, opts)
		if err != nil {
			return nil, err
		}
		if ledger != nil {
			if err := ledger.RecordEpisode(runID, et); err != nil {
				return nil, err
			}
		}
		traces = append(traces, et)
	}
	return traces, nil
}

func writeReport(w io.Writer, report runReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if _, err := fmt.Fprintf(w, "=== Allocation Summary ===\n%s\n", data); err != nil {
		return err
	}
	if path != "" {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		logrus.Infof("Summary written to %s", path)
	}
	return nil
}
