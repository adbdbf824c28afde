// Package policy provides the external decision-makers that drive an
// allocation environment: masked uniform-random, greedy value-density, an
// exact planner and fixed-plan replay. Policies only read the instance view
// and the action mask; all state changes go through sim.Environment.Step.
package policy

import (
	"fmt"
	"math/rand"

	"github.com/inference-sim/alloc-sim/sim"
	"github.com/inference-sim/alloc-sim/sim/solver"
)

// Policy picks actions for one episode at a time.
type Policy interface {
	Name() string
	// Begin is called after every Reset with the new episode's instance.
	Begin(view sim.InstanceView) error
	// Choose returns the next action. ok=false means the policy has nothing
	// more to play even though the episode has not terminated.
	Choose(view sim.InstanceView, mask sim.ActionMask) (action int, ok bool)
}

// Random picks uniformly among legal actions.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a Random policy drawing from rng.
func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

func (p *Random) Name() string                   { return "random" }
func (p *Random) Begin(_ sim.InstanceView) error { return nil }

func (p *Random) Choose(_ sim.InstanceView, mask sim.ActionMask) (int, bool) {
	legal := mask.Legal()
	if len(legal) == 0 {
		return 0, false
	}
	return legal[p.rng.Intn(len(legal))], true
}

// Greedy picks the legal item with the highest objective density.
// Ties go to the lowest index.
type Greedy struct {
	objective solver.Objective
}

// NewGreedy creates a Greedy policy ranking items under objective.
func NewGreedy(objective solver.Objective) *Greedy {
	return &Greedy{objective: objective}
}

func (p *Greedy) Name() string                   { return "greedy" }
func (p *Greedy) Begin(_ sim.InstanceView) error { return nil }

func (p *Greedy) Choose(view sim.InstanceView, mask sim.ActionMask) (int, bool) {
	best, bestDensity := -1, 0.0
	for _, i := range mask.Legal() {
		d := solver.Density(view, p.objective, i)
		if best < 0 || d > bestDensity {
			best, bestDensity = i, d
		}
	}
	return best, best >= 0
}

// Plan replays a fixed action sequence, restarting it each episode.
// Planned actions are played as-is, so a stale plan surfaces as a masked
// action error from the environment.
type Plan struct {
	actions []int
	next    int
}

// NewPlan creates a Plan replaying actions.
func NewPlan(actions []int) *Plan {
	return &Plan{actions: append([]int(nil), actions...)}
}

func (p *Plan) Name() string { return "plan" }

func (p *Plan) Begin(_ sim.InstanceView) error {
	p.next = 0
	return nil
}

func (p *Plan) Choose(_ sim.InstanceView, _ sim.ActionMask) (int, bool) {
	if p.next >= len(p.actions) {
		return 0, false
	}
	a := p.actions[p.next]
	p.next++
	return a, true
}

// Exact solves each episode's instance with solver.Solve at Begin and
// replays the optimal selection.
type Exact struct {
	objective solver.Objective
	plan      Plan
	last      solver.Solution
}

// NewExact creates an Exact policy optimizing objective.
func NewExact(objective solver.Objective) *Exact {
	return &Exact{objective: objective}
}

func (p *Exact) Name() string { return "exact" }

func (p *Exact) Begin(view sim.InstanceView) error {
	sol, err := solver.Solve(view, p.objective)
	if err != nil {
		return fmt.Errorf("exact policy: %w", err)
	}
	p.last = sol
	p.plan = Plan{actions: sol.Selected}
	return nil
}

func (p *Exact) Choose(view sim.InstanceView, mask sim.ActionMask) (int, bool) {
	return p.plan.Choose(view, mask)
}

// Solution returns the solution computed for the current episode.
func (p *Exact) Solution() solver.Solution { return p.last }

// validPolicies lists the names accepted by NewPolicy.
var validPolicies = map[string]bool{
	"random": true,
	"greedy": true,
	"exact":  true,
}

// IsValidPolicy returns true if name is accepted by NewPolicy.
func IsValidPolicy(name string) bool {
	return validPolicies[name]
}

// NewPolicy creates a policy by name.
// Valid names: "random", "greedy", "exact". rng is used by random only.
func NewPolicy(name string, rng *rand.Rand, objective solver.Objective) Policy {
	switch name {
	case "random":
		return NewRandom(rng)
	case "greedy":
		return NewGreedy(objective)
	case "exact":
		return NewExact(objective)
	default:
		panic(fmt.Sprintf("unknown policy %q; valid policies: [random, greedy, exact]", name))
	}
}
