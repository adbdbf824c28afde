// Package trace records what happened during allocation episodes: one record
// per step and an aggregate summary across episodes.
// This package has no dependencies on sim/, it stores pure data types.
package trace

import "github.com/google/uuid"

// TraceLevel controls the verbosity of episode tracing.
type TraceLevel string

const (
	// TraceLevelNone keeps only episode outcomes, no per-step records.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelSteps additionally captures every step.
	TraceLevelSteps TraceLevel = "steps"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:  true,
	TraceLevelSteps: true,
	"":              true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// EpisodeTrace collects the records of one episode.
type EpisodeTrace struct {
	ID      string // random UUID, unique across runs
	Episode int
	Policy  string
	Config  TraceConfig
	Steps   []StepRecord
	Outcome Outcome

	numSteps int
	ret      float64
}

// NewEpisodeTrace creates an EpisodeTrace ready for recording.
func NewEpisodeTrace(config TraceConfig, episode int, policy string) *EpisodeTrace {
	return &EpisodeTrace{
		ID:      uuid.NewString(),
		Episode: episode,
		Policy:  policy,
		Config:  config,
		Steps:   make([]StepRecord, 0),
	}
}

// RecordStep accounts for one step. The record itself is kept only at
// TraceLevelSteps; step count and return are always tracked.
func (et *EpisodeTrace) RecordStep(record StepRecord) {
	et.numSteps++
	et.ret += record.Reward
	if et.Config.Level == TraceLevelSteps {
		et.Steps = append(et.Steps, record)
	}
}

// Finish stores the final outcome. StepCount and Return are filled from the
// recorded steps.
func (et *EpisodeTrace) Finish(outcome Outcome) {
	outcome.StepCount = et.numSteps
	outcome.Return = et.ret
	et.Outcome = outcome
}

// SetOptimum attaches the exact optimum for the episode's instance.
func (et *EpisodeTrace) SetOptimum(optimum float64) {
	et.Outcome.Optimum = optimum
	et.Outcome.HasOptimum = true
}
