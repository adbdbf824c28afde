package policy

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/alloc-sim/sim"
	"github.com/inference-sim/alloc-sim/sim/internal/testutil"
	"github.com/inference-sim/alloc-sim/sim/solver"
	"github.com/inference-sim/alloc-sim/sim/trace"
)

func staticEnv(t *testing.T, sc testutil.Scenario, reward sim.RewardMode) *sim.Environment {
	t.Helper()
	cfg := &sim.EnvConfig{
		Mode:           string(sim.ModeStatic),
		NumItems:       len(sc.Values),
		NumResources:   len(sc.Capacity),
		Capacity:       sc.Capacity,
		StaticInstance: &sim.StaticInstanceSpec{Values: sc.Values, Demands: sc.Demands},
		Reward:         string(reward),
	}
	env, err := sim.NewEnvironmentFromConfig(cfg, 0)
	require.NoError(t, err)
	return env
}

func freshEnv(t *testing.T, seed int64) *sim.Environment {
	t.Helper()
	cfg := sim.DefaultEnvConfig()
	cfg.NumItems = 12
	env, err := sim.NewEnvironmentFromConfig(cfg, seed)
	require.NoError(t, err)
	return env
}

func TestRandom_OnlyPlaysLegalActions(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		env := freshEnv(t, seed)
		p := NewRandom(rand.New(rand.NewSource(seed)))

		et, err := Run(env, p, RunOptions{Episode: int(seed), Trace: trace.TraceConfig{Level: trace.TraceLevelSteps}})

		require.NoError(t, err, "seed %d", seed)
		assert.True(t, env.Done())
		assert.False(t, et.Outcome.Stopped)
		assert.NotEmpty(t, et.Outcome.Reason)
		assert.Len(t, et.Steps, et.Outcome.StepCount)
		for _, s := range et.Steps {
			assert.Positive(t, s.LegalActions)
		}
	}
}

func TestRandom_SameSeedSameEpisode(t *testing.T) {
	play := func() []int {
		env := freshEnv(t, 9)
		_, err := Run(env, NewRandom(rand.New(rand.NewSource(4))), RunOptions{})
		require.NoError(t, err)
		return env.Info().SelectionOrder
	}
	assert.Equal(t, play(), play())
}

func TestGreedy_MatchesSolverGreedy(t *testing.T) {
	// GIVEN the ten-task scenario
	sc := testutil.ScenarioTaskAllocation()
	for _, reward := range []sim.RewardMode{sim.RewardValue, sim.RewardUtilization} {
		t.Run(string(reward), func(t *testing.T) {
			env := staticEnv(t, sc, reward)
			obj := solver.ObjectiveFor(reward)

			// WHEN the greedy policy plays an episode
			_, err := Run(env, NewGreedy(obj), RunOptions{})
			require.NoError(t, err)

			// THEN it selects the same items as the greedy solver
			want, err := solver.Greedy(env.Instance(), obj)
			require.NoError(t, err)
			got := env.Info().SelectionOrder
			slices.Sort(got)
			assert.Equal(t, want.Selected, got)
		})
	}
}

func TestExact_ReachesOptimum(t *testing.T) {
	// GIVEN the ten-task scenario under the value reward
	env := staticEnv(t, testutil.ScenarioTaskAllocation(), sim.RewardValue)

	// WHEN the exact policy plays with comparison enabled
	et, err := Run(env, NewExact(solver.ObjectiveValue), RunOptions{CompareExact: true})

	// THEN the episode attains the optimum of 99 and terminates on infeasibility
	require.NoError(t, err)
	assert.Equal(t, 99.0, et.Outcome.Value)
	ratio, ok := et.Outcome.Ratio()
	require.True(t, ok)
	testutil.AssertFloat64Equal(t, "ratio", 1, ratio, 1e-9)
	assert.Equal(t, string(sim.ReasonNoFeasibleItemsRemain), et.Outcome.Reason)
	testutil.AssertFloat64Equal(t, "return", 99.0/113.0, et.Outcome.Return, 1e-9)
}

func TestExact_UtilizationReturnEqualsObjective(t *testing.T) {
	env := staticEnv(t, testutil.ScenarioTaskAllocation(), sim.RewardUtilization)

	et, err := Run(env, NewExact(solver.ObjectiveUtilization), RunOptions{CompareExact: true})

	require.NoError(t, err)
	testutil.AssertFloat64Equal(t, "objective", 197.0/200.0, et.Outcome.Objective, 1e-9)
	testutil.AssertFloat64Equal(t, "return", et.Outcome.Objective, et.Outcome.Return, 1e-9)
	testutil.AssertFloat64Equal(t, "optimum", 197.0/200.0, et.Outcome.Optimum, 1e-9)
}

func TestRun_CompareExact_RandomOnScenarioA(t *testing.T) {
	// Any two of the three unit-value items are optimal.
	env := staticEnv(t, testutil.ScenarioA(), sim.RewardValue)
	p := NewRandom(rand.New(rand.NewSource(1)))
	for ep := 0; ep < 5; ep++ {
		et, err := Run(env, p, RunOptions{Episode: ep, CompareExact: true})
		require.NoError(t, err)
		assert.Equal(t, 2.0, et.Outcome.Optimum)
		ratio, _ := et.Outcome.Ratio()
		assert.Equal(t, 1.0, ratio)
	}
}

func TestPlan_MaskedActionSurfacesAsError(t *testing.T) {
	// GIVEN a plan that selects item 0 twice
	env := staticEnv(t, testutil.ScenarioA(), sim.RewardValue)

	// WHEN it is replayed
	_, err := Run(env, NewPlan([]int{0, 0}), RunOptions{})

	// THEN the environment rejects the second action as masked
	require.Error(t, err)
	assert.True(t, errors.Is(err, sim.ErrActionMasked), "got %v", err)
}

func TestPlan_ExhaustedPlanStopsEpisode(t *testing.T) {
	env := staticEnv(t, testutil.ScenarioA(), sim.RewardValue)
	p := NewPlan([]int{2})

	for ep := 0; ep < 2; ep++ {
		et, err := Run(env, p, RunOptions{Episode: ep})

		require.NoError(t, err)
		assert.True(t, et.Outcome.Stopped, "episode %d", ep)
		assert.Equal(t, 1, et.Outcome.StepCount, "plan restarts every episode")
		assert.Empty(t, et.Outcome.Reason)
		assert.False(t, env.Done())
	}
}

func TestNewPolicy(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	for _, name := range []string{"random", "greedy", "exact"} {
		assert.True(t, IsValidPolicy(name))
		assert.Equal(t, name, NewPolicy(name, rng, solver.ObjectiveValue).Name())
	}
	assert.False(t, IsValidPolicy("plan"), "plans are built from code, not by name")
	assert.Panics(t, func() { NewPolicy("oracle", rng, solver.ObjectiveValue) })
}
