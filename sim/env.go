package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// RewardMode selects the per-step reward.
type RewardMode string

const (
	// RewardValue rewards value[a] / total_value (knapsack variant). The
	// reward is below 1 unless a single item holds all of the value, in
	// which case selecting it earns exactly 1.
	RewardValue RewardMode = "value"
	// RewardUtilization rewards Σ_r demand[a][r] / Σ_r capacity[r]
	// (task-allocation variant).
	RewardUtilization RewardMode = "utilization"
)

// validRewardModes maps accepted reward mode strings; empty defaults to value.
var validRewardModes = map[RewardMode]bool{
	RewardValue:       true,
	RewardUtilization: true,
	"":                true,
}

// IsValidRewardMode returns true if the given string is a recognized reward mode.
func IsValidRewardMode(mode string) bool {
	return validRewardModes[RewardMode(mode)]
}

// DefaultMaxResetAttempts bounds how many instances Reset draws looking for
// one with at least one feasible item.
const DefaultMaxResetAttempts = 16

// EnvOptions groups the state machine settings that are not part of instance generation.
type EnvOptions struct {
	Normalize        bool       // scale observations into [0,1]
	Reward           RewardMode // "" means RewardValue
	MaxResetAttempts int        // <= 0 means DefaultMaxResetAttempts
}

// Info carries diagnostics alongside each transition.
type Info struct {
	Reason             DoneReason
	SelectionOrder     []int
	ValueAllocated     float64
	TotalValue         float64
	ResourcesAllocated []float64 // consumed, per resource
	TotalAllocated     float64   // Σ_r consumed[r]
	Capacity           []float64
	EachResourceDemand []float64 // per resource, summed over unselected items
	ActionMask         ActionMask
}

// StepResult is the outcome of one valid action.
type StepResult struct {
	Observation Observation
	Reward      float64
	Terminated  bool
	// Truncated is always false: episodes have no step limit of their own.
	Truncated bool
	Mask      ActionMask
	Info      Info
}

// Environment is the allocation state machine. A driver calls Reset, then
// Step with legal actions until a StepResult reports Terminated.
//
// Thread-safety: NOT thread-safe. One goroutine owns an Environment; run
// several independent Environments (see Clone) for parallel rollouts.
type Environment struct {
	gen   *InstanceGenerator
	opts  EnvOptions
	state *episodeState
	// episodes counts successful resets, for logging.
	episodes int
}

// NewEnvironment creates an Environment drawing instances from gen.
func NewEnvironment(gen *InstanceGenerator, opts EnvOptions) (*Environment, error) {
	if gen == nil {
		return nil, configErrorf("generator", "must not be nil")
	}
	if !validRewardModes[opts.Reward] {
		return nil, configErrorf("reward", "unknown reward mode %q; valid: value, utilization", opts.Reward)
	}
	if opts.Reward == "" {
		opts.Reward = RewardValue
	}
	if opts.MaxResetAttempts <= 0 {
		opts.MaxResetAttempts = DefaultMaxResetAttempts
	}
	return &Environment{gen: gen, opts: opts}, nil
}

// NumActions returns the size of the action space.
func (e *Environment) NumActions() int { return e.gen.cfg.NumItems }

// NumResources returns the resource dimensionality.
func (e *Environment) NumResources() int { return e.gen.cfg.NumResources }

// ObservationSize returns the length of every Observation this environment emits.
func (e *Environment) ObservationSize() int {
	return ObservationSize(e.NumActions(), e.NumResources())
}

// Options returns the environment options after defaults were applied.
func (e *Environment) Options() EnvOptions { return e.opts }

// Reset starts a new episode on an instance from the generator.
//
// Instances with no feasible item are discarded and regenerated, up to
// MaxResetAttempts times in fresh mode. Static and shared generators always
// return the same instance, so a degenerate one fails on the first attempt.
func (e *Environment) Reset() (Observation, ActionMask, error) {
	e.state = nil
	attempts := 0
	for attempts < e.opts.MaxResetAttempts {
		attempts++
		st := newEpisodeState(e.gen.Generate())
		if !st.mask.AllMasked() {
			st.assertInvariants()
			e.state = st
			e.episodes++
			logrus.Debugf("reset: episode %d, %d items, total value %v, %d feasible",
				e.episodes, st.instance.NumItems(), st.totalValue, len(st.mask.Legal()))
			return e.Observation(), st.mask.Clone(), nil
		}
		logrus.Warnf("reset: degenerate instance (no item fits capacity), attempt %d/%d",
			attempts, e.opts.MaxResetAttempts)
		if e.gen.Mode() != ModeFresh {
			break
		}
	}
	return nil, nil, &DegenerateInstanceError{Attempts: attempts}
}

// Step selects item action. An illegal action returns an *InvalidActionError
// and leaves the state unchanged. Stepping with no active episode (before
// Reset, or after termination) returns ErrEpisodeNotActive.
func (e *Environment) Step(action int) (StepResult, error) {
	st := e.state
	if st == nil || st.terminated() {
		return StepResult{}, fmt.Errorf("step %d: %w", action, ErrEpisodeNotActive)
	}
	n := st.instance.NumItems()
	if action < 0 || action >= n {
		return StepResult{}, &InvalidActionError{Kind: OutOfRange, Action: action, NumItems: n}
	}
	if st.mask[action] {
		return StepResult{}, &InvalidActionError{Kind: Masked, Action: action, NumItems: n}
	}

	reward := e.reward(action)
	st.apply(action)
	st.assertInvariants()

	logrus.Debugf("step: action %d, reward %.4f, value %v/%v, consumed %v, reason %q",
		action, reward, st.valueAllocated, st.totalValue, st.consumed, st.reason)

	return StepResult{
		Observation: e.Observation(),
		Reward:      reward,
		Terminated:  st.terminated(),
		Truncated:   false,
		Mask:        st.mask.Clone(),
		Info:        e.Info(),
	}, nil
}

func (e *Environment) reward(action int) float64 {
	st := e.state
	it := st.instance.Items[action]
	switch e.opts.Reward {
	case RewardUtilization:
		demand, capacity := 0.0, 0.0
		for r := range st.instance.Capacity {
			demand += it.Demand[r]
			capacity += st.instance.Capacity[r]
		}
		return demand / capacity
	default:
		if st.totalValue == 0 {
			return 0
		}
		return it.Value / st.totalValue
	}
}

// Active reports whether an episode is in progress (reset and not terminated).
func (e *Environment) Active() bool {
	return e.state != nil && !e.state.terminated()
}

// Done reports whether the current episode has terminated.
func (e *Environment) Done() bool {
	return e.state != nil && e.state.terminated()
}

// Instance returns a read-only view of the current episode's instance, or nil
// before the first successful Reset.
func (e *Environment) Instance() InstanceView {
	if e.state == nil {
		return nil
	}
	return e.state.instance.View()
}

// ActionMask returns a copy of the current mask, or nil before Reset.
func (e *Environment) ActionMask() ActionMask {
	if e.state == nil {
		return nil
	}
	return e.state.mask.Clone()
}

// ObservationMatrix returns the current observation as a (N+1) x (2+R)
// matrix, normalized when the environment was configured to. Returns nil
// before Reset.
func (e *Environment) ObservationMatrix() *mat.Dense {
	if e.state == nil {
		return nil
	}
	m := encodeObservation(e.state)
	if !e.opts.Normalize {
		return m
	}
	return e.normalizer().Normalize(m)
}

// Observation returns the current flattened observation, or nil before Reset.
func (e *Environment) Observation() Observation {
	m := e.ObservationMatrix()
	if m == nil {
		return nil
	}
	return Flatten(m)
}

func (e *Environment) normalizer() Normalizer {
	return Normalizer{
		Enabled:    e.opts.Normalize,
		MaxValue:   e.gen.cfg.MaxValue(),
		TotalValue: e.state.totalValue,
		Capacity:   e.state.instance.Capacity,
	}
}

// Info returns a snapshot of the episode diagnostics. Zero value before Reset.
func (e *Environment) Info() Info {
	st := e.state
	if st == nil {
		return Info{}
	}
	total := 0.0
	for _, c := range st.consumed {
		total += c
	}
	each := make([]float64, st.instance.NumResources())
	for i, it := range st.instance.Items {
		if st.selected[i] {
			continue
		}
		for r, d := range it.Demand {
			each[r] += d
		}
	}
	return Info{
		Reason:             st.reason,
		SelectionOrder:     append([]int(nil), st.order...),
		ValueAllocated:     st.valueAllocated,
		TotalValue:         st.totalValue,
		ResourcesAllocated: append([]float64(nil), st.consumed...),
		TotalAllocated:     total,
		Capacity:           append([]float64(nil), st.instance.Capacity...),
		EachResourceDemand: each,
		ActionMask:         st.mask.Clone(),
	}
}

// Clone returns a fully independent copy: episode state and generator,
// including a shared-mode cached instance, are deep-copied.
func (e *Environment) Clone() *Environment {
	return &Environment{
		gen:      e.gen.Clone(),
		opts:     e.opts,
		state:    e.state.clone(),
		episodes: e.episodes,
	}
}
