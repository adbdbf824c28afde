package sim

import (
	"testing"

	"github.com/inference-sim/alloc-sim/sim/internal/testutil"
)

// staticConfig builds a static-mode GeneratorConfig from scenario data.
func staticConfig(sc testutil.Scenario) GeneratorConfig {
	in := &Instance{Items: make([]Item, len(sc.Values))}
	for i := range sc.Values {
		in.Items[i] = Item{Value: sc.Values[i], Demand: append([]float64(nil), sc.Demands[i]...)}
	}
	return GeneratorConfig{
		Mode:         ModeStatic,
		NumItems:     len(sc.Values),
		NumResources: len(sc.Capacity),
		Capacity:     append([]float64(nil), sc.Capacity...),
		Static:       in,
	}
}

// sampledConfig returns a sampled-mode config: n items over two resources.
func sampledConfig(mode GeneratorMode, n int) GeneratorConfig {
	return GeneratorConfig{
		Mode:         mode,
		NumItems:     n,
		NumResources: 2,
		DemandLow:    []int{1, 1},
		DemandHigh:   []int{20, 20},
		ValueLow:     1,
		ValueHigh:    20,
		Capacity:     []float64{100, 100},
	}
}

func mustGenerator(t *testing.T, cfg GeneratorConfig, seed int64) *InstanceGenerator {
	t.Helper()
	gen, err := NewInstanceGenerator(cfg, seed)
	if err != nil {
		t.Fatalf("NewInstanceGenerator: %v", err)
	}
	return gen
}

func mustEnv(t *testing.T, cfg GeneratorConfig, seed int64, opts EnvOptions) *Environment {
	t.Helper()
	env, err := NewEnvironment(mustGenerator(t, cfg, seed), opts)
	if err != nil {
		t.Fatalf("NewEnvironment: %v", err)
	}
	return env
}

// mustStep steps and fails the test on error.
func mustStep(t *testing.T, env *Environment, action int) StepResult {
	t.Helper()
	res, err := env.Step(action)
	if err != nil {
		t.Fatalf("Step(%d): %v", action, err)
	}
	return res
}
