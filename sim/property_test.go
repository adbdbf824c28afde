package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkReachableState verifies the externally observable invariants of the
// current state using only the public API.
func checkReachableState(t *testing.T, env *Environment) {
	t.Helper()
	view := env.Instance()
	info := env.Info()
	capacity := view.Capacity()

	selected := make([]bool, view.NumItems())
	value := 0.0
	for _, a := range info.SelectionOrder {
		require.False(t, selected[a], "item %d selected twice", a)
		selected[a] = true
		value += view.Value(a)
	}

	// Capacity invariant
	for r := range capacity {
		assert.LessOrEqual(t, info.ResourcesAllocated[r], capacity[r], "resource %d", r)
	}

	// Mask correctness
	for i := 0; i < view.NumItems(); i++ {
		overflow := false
		demand := view.Demand(i)
		for r := range capacity {
			if info.ResourcesAllocated[r]+demand[r] > capacity[r] {
				overflow = true
			}
		}
		assert.Equal(t, selected[i] || overflow, info.ActionMask[i], "mask[%d]", i)
	}

	// Value conservation
	assert.Equal(t, value, info.ValueAllocated)
	assert.GreaterOrEqual(t, info.ValueAllocated, 0.0)
	assert.LessOrEqual(t, info.ValueAllocated, info.TotalValue)

	// Termination completeness
	assert.Equal(t, info.ActionMask.AllMasked(), env.Done())
}

func TestEnvironment_Properties_RandomRollouts(t *testing.T) {
	for _, mode := range []GeneratorMode{ModeFresh, ModeShared} {
		for seed := int64(0); seed < 40; seed++ {
			cfg := sampledConfig(mode, 12)
			cfg.NumResources = 3
			cfg.DemandLow, cfg.DemandHigh = []int{1, 0, 5}, []int{30, 10, 40}
			cfg.Capacity = []float64{100, 40, 120}
			env := mustEnv(t, cfg, seed, EnvOptions{Normalize: seed%2 == 0})
			driver := rand.New(rand.NewSource(seed * 7919))

			for ep := 0; ep < 3; ep++ {
				_, mask, err := env.Reset()
				require.NoError(t, err)
				checkReachableState(t, env)

				for steps := 0; !env.Done(); steps++ {
					require.LessOrEqual(t, steps, cfg.NumItems, "episode longer than the item count")
					legal := mask.Legal()
					require.NotEmpty(t, legal, "not terminated but no legal action")
					res := mustStep(t, env, legal[driver.Intn(len(legal))])

					// Reward bound
					assert.GreaterOrEqual(t, res.Reward, 0.0)
					assert.Less(t, res.Reward, 1.0)
					assert.False(t, res.Truncated)
					assert.Len(t, res.Observation, env.ObservationSize())

					checkReachableState(t, env)
					mask = res.Mask
				}
			}
		}
	}
}

func TestComputeMask_Idempotent(t *testing.T) {
	gen := mustGenerator(t, sampledConfig(ModeFresh, 15), 77)
	driver := rand.New(rand.NewSource(3))
	for trial := 0; trial < 20; trial++ {
		in := gen.Generate()
		selected := make([]bool, in.NumItems())
		consumed := []float64{driver.Float64() * 100, driver.Float64() * 100}
		for i := range selected {
			selected[i] = driver.Intn(3) == 0
		}

		a := ComputeMask(in, selected, consumed)
		b := ComputeMask(in, selected, consumed)

		assert.Equal(t, a, b)
		for i := range selected {
			if selected[i] {
				assert.True(t, a[i], "selected item %d not masked", i)
			}
		}
	}
}

func TestComputeMask_ExactCapacityFits(t *testing.T) {
	in := &Instance{
		Items:    []Item{{Value: 1, Demand: []float64{6, 0}}, {Value: 1, Demand: []float64{6.5, 0}}},
		Capacity: []float64{10, 1},
	}
	mask := ComputeMask(in, []bool{false, false}, []float64{4, 1})
	assert.Equal(t, ActionMask{false, true}, mask, "reaching capacity exactly is allowed")
}

func TestActionMask_Helpers(t *testing.T) {
	m := ActionMask{true, false, true, false}
	assert.Equal(t, []int{1, 3}, m.Legal())
	assert.False(t, m.AllMasked())
	assert.True(t, ActionMask{true, true}.AllMasked())
	assert.True(t, ActionMask{}.AllMasked())

	c := m.Clone()
	c[1] = true
	assert.False(t, m[1])
}

func TestEpisodeState_CheckInvariants_DetectsCorruption(t *testing.T) {
	gen := mustGenerator(t, sampledConfig(ModeFresh, 5), 1)
	tests := []struct {
		name    string
		corrupt func(st *episodeState)
	}{
		{"consumed over capacity", func(st *episodeState) { st.consumed[0] = 1e9 }},
		{"hand-edited mask", func(st *episodeState) { st.mask[2] = !st.mask[2] }},
		{"value drift", func(st *episodeState) { st.valueAllocated += 1 }},
		{"selection without order", func(st *episodeState) { st.selected[4] = true; st.recomputeMask() }},
		{"terminated while feasible", func(st *episodeState) { st.reason = ReasonAllAllocated }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newEpisodeState(gen.Generate())
			st.apply(0)
			require.NoError(t, st.checkInvariants())

			tt.corrupt(st)

			assert.Error(t, st.checkInvariants())
			assert.Panics(t, st.assertInvariants)
		})
	}
}
