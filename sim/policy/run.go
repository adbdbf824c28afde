package policy

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/inference-sim/alloc-sim/sim"
	"github.com/inference-sim/alloc-sim/sim/solver"
	"github.com/inference-sim/alloc-sim/sim/trace"
)

// RunOptions configures one episode driven by Run.
type RunOptions struct {
	Episode      int
	Trace        trace.TraceConfig
	CompareExact bool // attach the exact optimum to the outcome
}

// Run resets env, lets p act until the episode terminates or p stops, and
// returns the episode trace. Any error from Reset, Begin or Step ends the
// episode and is returned.
func Run(env *sim.Environment, p Policy, opts RunOptions) (*trace.EpisodeTrace, error) {
	et := trace.NewEpisodeTrace(opts.Trace, opts.Episode, p.Name())

	_, mask, err := env.Reset()
	if err != nil {
		return nil, fmt.Errorf("episode %d: %w", opts.Episode, err)
	}
	view := env.Instance()
	if err := p.Begin(view); err != nil {
		return nil, fmt.Errorf("episode %d: %w", opts.Episode, err)
	}

	stopped := false
	for step := 0; !env.Done(); step++ {
		action, ok := p.Choose(view, mask)
		if !ok {
			stopped = true
			break
		}
		legal := len(mask.Legal())
		res, err := env.Step(action)
		if err != nil {
			return nil, fmt.Errorf("episode %d: %w", opts.Episode, err)
		}
		et.RecordStep(trace.StepRecord{
			Step:           step,
			Action:         action,
			Reward:         res.Reward,
			ValueAllocated: res.Info.ValueAllocated,
			Consumed:       res.Info.ResourcesAllocated,
			LegalActions:   legal,
		})
		mask = res.Mask
	}

	info := env.Info()
	objective := solver.ObjectiveFor(env.Options().Reward)
	et.Finish(trace.Outcome{
		Reason:     string(info.Reason),
		Value:      info.ValueAllocated,
		TotalValue: info.TotalValue,
		Objective:  achieved(info, objective),
		Stopped:    stopped,
	})

	if opts.CompareExact {
		sol, err := optimum(p, view, objective)
		if err != nil {
			return nil, fmt.Errorf("episode %d: %w", opts.Episode, err)
		}
		et.SetOptimum(sol.Objective)
	}

	logrus.Debugf("[episode %d] policy=%s steps=%d value=%.4f/%.4f reason=%q",
		opts.Episode, p.Name(), et.Outcome.StepCount, info.ValueAllocated, info.TotalValue, info.Reason)
	return et, nil
}

// achieved scores the final allocation in the objective's units.
func achieved(info sim.Info, objective solver.Objective) float64 {
	if objective == solver.ObjectiveUtilization {
		return info.TotalAllocated / floats.Sum(info.Capacity)
	}
	return info.ValueAllocated
}

// optimum reuses the exact policy's solution for this episode when available.
func optimum(p Policy, view sim.InstanceView, objective solver.Objective) (solver.Solution, error) {
	if ex, ok := p.(*Exact); ok && ex.objective == objective {
		return ex.Solution(), nil
	}
	return solver.Solve(view, objective)
}
