// Package solver computes reference allocations for an instance: the exact
// 0/1 multi-dimensional knapsack optimum by depth-first branch and bound, and
// a greedy value-density baseline. Both read the instance only through
// sim.InstanceView and never touch environment state.
package solver

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/inference-sim/alloc-sim/sim"
)

// Objective selects what a solution maximizes.
type Objective string

const (
	// ObjectiveValue maximizes the summed value of selected items.
	ObjectiveValue Objective = "value"
	// ObjectiveUtilization maximizes the share of total capacity consumed:
	// sum of selected demands over sum of capacities.
	ObjectiveUtilization Objective = "utilization"
)

// ErrUnknownObjective is returned for an objective other than value or utilization.
var ErrUnknownObjective = errors.New("solver: unknown objective")

// DefaultNodeLimit caps the search tree of Solve. When the cap is hit the
// best incumbent is returned with Optimal=false.
var DefaultNodeLimit = 5_000_000

// ObjectiveFor maps a reward mode onto the matching objective.
func ObjectiveFor(mode sim.RewardMode) Objective {
	if mode == sim.RewardUtilization {
		return ObjectiveUtilization
	}
	return ObjectiveValue
}

// Solution is a feasible selection and its score.
type Solution struct {
	Selected  []int     // item indices, ascending
	Objective float64   // score under the requested objective
	Value     float64   // summed value of Selected
	Consumed  []float64 // per-resource consumption of Selected
	Nodes     int       // search nodes explored (0 for Greedy)
	Optimal   bool      // proven optimal
}

// Weight is the contribution of item i to the objective.
func Weight(view sim.InstanceView, objective Objective, i int) float64 {
	if objective == ObjectiveUtilization {
		return floats.Sum(view.Demand(i)) / floats.Sum(view.Capacity())
	}
	return view.Value(i)
}

// Density is the weight of item i per unit of normalized demand, summed
// across resources. Items with no demand have infinite density.
func Density(view sim.InstanceView, objective Objective, i int) float64 {
	demand := view.Demand(i)
	floats.Div(demand, view.Capacity())
	size := floats.Sum(demand)
	if size <= 0 {
		return math.Inf(1)
	}
	return Weight(view, objective, i) / size
}

type candidate struct {
	index   int
	weight  float64
	density float64
	demand  []float64
}

func candidates(view sim.InstanceView, objective Objective) ([]candidate, error) {
	if view == nil {
		return nil, errors.New("solver: nil instance")
	}
	if objective != ObjectiveValue && objective != ObjectiveUtilization {
		return nil, fmt.Errorf("%w %q", ErrUnknownObjective, objective)
	}
	capacity := view.Capacity()
	out := make([]candidate, 0, view.NumItems())
	for i := 0; i < view.NumItems(); i++ {
		demand := view.Demand(i)
		if !fitsWithin(demand, nil, capacity) {
			continue
		}
		w := Weight(view, objective, i)
		if w <= 0 {
			continue
		}
		out = append(out, candidate{index: i, weight: w, density: Density(view, objective, i), demand: demand})
	}
	slices.SortStableFunc(out, func(a, b candidate) int {
		switch {
		case a.density > b.density:
			return -1
		case a.density < b.density:
			return 1
		}
		return 0
	})
	return out, nil
}

// fitsWithin reports whether consumed+demand stays within capacity.
// A nil consumed slice means nothing is allocated yet.
func fitsWithin(demand, consumed, capacity []float64) bool {
	for r := range capacity {
		used := demand[r]
		if consumed != nil {
			used += consumed[r]
		}
		if used > capacity[r] {
			return false
		}
	}
	return true
}

// Greedy selects items in decreasing density order, skipping any that no
// longer fit. Ties keep the lower item index first.
func Greedy(view sim.InstanceView, objective Objective) (Solution, error) {
	cands, err := candidates(view, objective)
	if err != nil {
		return Solution{}, err
	}
	capacity := view.Capacity()
	consumed := make([]float64, len(capacity))
	var chosen []int
	for _, c := range cands {
		if fitsWithin(c.demand, consumed, capacity) {
			floats.Add(consumed, c.demand)
			chosen = append(chosen, c.index)
		}
	}
	return newSolution(view, objective, chosen, 0, false), nil
}

// Solve returns an optimal selection for the objective. The search visits
// items in density order, tries inclusion before exclusion, and prunes any
// subtree whose optimistic bound cannot beat the incumbent. The incumbent is
// seeded with the greedy solution.
func Solve(view sim.InstanceView, objective Objective) (Solution, error) {
	cands, err := candidates(view, objective)
	if err != nil {
		return Solution{}, err
	}
	greedy, _ := Greedy(view, objective)

	s := &search{
		items:     cands,
		capacity:  view.Capacity(),
		consumed:  make([]float64, view.NumResources()),
		objective: objective,
		best:      greedy.Objective,
		bestSet:   slices.Clone(greedy.Selected),
		limit:     DefaultNodeLimit,
	}
	s.totalCapacity = floats.Sum(s.capacity)
	s.dfs(0, 0)

	return newSolution(view, objective, s.bestSet, s.nodes, !s.truncated), nil
}

const epsilon = 1e-9

type search struct {
	items         []candidate
	capacity      []float64
	totalCapacity float64
	consumed      []float64
	objective     Objective
	chosen        []int
	best          float64
	bestSet       []int
	nodes         int
	limit         int
	truncated     bool
}

func (s *search) dfs(k int, acc float64) {
	s.nodes++
	if acc > s.best+epsilon {
		s.best = acc
		s.bestSet = slices.Clone(s.chosen)
	}
	if k == len(s.items) {
		return
	}
	if s.nodes >= s.limit {
		s.truncated = true
		return
	}
	if acc+s.bound(k) <= s.best+epsilon {
		return
	}

	it := s.items[k]
	if fitsWithin(it.demand, s.consumed, s.capacity) {
		floats.Add(s.consumed, it.demand)
		s.chosen = append(s.chosen, it.index)
		s.dfs(k+1, acc+it.weight)
		s.chosen = s.chosen[:len(s.chosen)-1]
		floats.Sub(s.consumed, it.demand)
	}
	s.dfs(k+1, acc)
}

// bound is an upper bound on what items[k:] can still add: the summed
// weight of those that fit individually, and for utilization no more than
// the unused share of capacity.
func (s *search) bound(k int) float64 {
	b := 0.0
	for _, it := range s.items[k:] {
		if fitsWithin(it.demand, s.consumed, s.capacity) {
			b += it.weight
		}
	}
	if s.objective == ObjectiveUtilization {
		b = math.Min(b, (s.totalCapacity-floats.Sum(s.consumed))/s.totalCapacity)
	}
	return b
}

func newSolution(view sim.InstanceView, objective Objective, chosen []int, nodes int, optimal bool) Solution {
	sel := slices.Clone(chosen)
	slices.Sort(sel)
	sol := Solution{
		Selected: sel,
		Consumed: make([]float64, view.NumResources()),
		Nodes:    nodes,
		Optimal:  optimal,
	}
	if sol.Selected == nil {
		sol.Selected = []int{}
	}
	for _, i := range sel {
		sol.Value += view.Value(i)
		sol.Objective += Weight(view, objective, i)
		floats.Add(sol.Consumed, view.Demand(i))
	}
	return sol
}
