package sim

import (
	"fmt"
)

// DebugInvariants turns on the internal consistency checks that run after
// every state mutation. A violation panics: it can only mean a defect in this
// package, never a caller error. Tests switch it on; production leaves it off.
var DebugInvariants = false

// DoneReason tells why an episode terminated.
type DoneReason string

const (
	// ReasonNone is the reason of an episode that has not terminated.
	ReasonNone DoneReason = ""
	// ReasonAllAllocated means every item was selected.
	ReasonAllAllocated DoneReason = "all-allocated"
	// ReasonNoFeasibleItemsRemain means unselected items remain but none fits.
	ReasonNoFeasibleItemsRemain DoneReason = "no-feasible-items-remain"
)

// episodeState is the mutable per-episode state. It is owned by exactly one
// Environment and discarded when the episode ends.
type episodeState struct {
	instance       *Instance
	selected       []bool
	consumed       []float64
	valueAllocated float64
	totalValue     float64
	mask           ActionMask
	order          []int
	reason         DoneReason
}

func newEpisodeState(in *Instance) *episodeState {
	st := &episodeState{
		instance:   in,
		selected:   make([]bool, in.NumItems()),
		consumed:   make([]float64, in.NumResources()),
		totalValue: in.TotalValue(),
		order:      make([]int, 0, in.NumItems()),
	}
	st.recomputeMask()
	return st
}

func (st *episodeState) recomputeMask() {
	st.mask = ComputeMask(st.instance, st.selected, st.consumed)
}

// apply selects item a. The caller has already checked that a is legal.
func (st *episodeState) apply(a int) {
	it := st.instance.Items[a]
	st.selected[a] = true
	for r, d := range it.Demand {
		st.consumed[r] += d
	}
	st.valueAllocated += it.Value
	st.order = append(st.order, a)
	st.recomputeMask()
	if st.mask.AllMasked() {
		if len(st.order) == len(st.selected) {
			st.reason = ReasonAllAllocated
		} else {
			st.reason = ReasonNoFeasibleItemsRemain
		}
	}
}

func (st *episodeState) terminated() bool {
	return st.reason != ReasonNone
}

func (st *episodeState) remaining() []float64 {
	out := make([]float64, len(st.consumed))
	for r := range st.consumed {
		out[r] = st.instance.Capacity[r] - st.consumed[r]
	}
	return out
}

func (st *episodeState) clone() *episodeState {
	if st == nil {
		return nil
	}
	return &episodeState{
		instance:       st.instance.Clone(),
		selected:       append([]bool(nil), st.selected...),
		consumed:       append([]float64(nil), st.consumed...),
		valueAllocated: st.valueAllocated,
		totalValue:     st.totalValue,
		mask:           st.mask.Clone(),
		order:          append([]int(nil), st.order...),
		reason:         st.reason,
	}
}

// checkInvariants verifies every numeric invariant of the state against its
// typed fields. Returns the first violation found.
func (st *episodeState) checkInvariants() error {
	in := st.instance
	for r := range st.consumed {
		if st.consumed[r] > in.Capacity[r] {
			return fmt.Errorf("consumed[%d]=%v exceeds capacity %v", r, st.consumed[r], in.Capacity[r])
		}
	}
	want := ComputeMask(in, st.selected, st.consumed)
	for i := range want {
		if st.mask[i] != want[i] {
			return fmt.Errorf("mask[%d]=%v, recomputed %v", i, st.mask[i], want[i])
		}
		if st.selected[i] && !st.mask[i] {
			return fmt.Errorf("item %d selected but not masked", i)
		}
	}
	value := 0.0
	seen := make(map[int]bool, len(st.order))
	for _, a := range st.order {
		if seen[a] {
			return fmt.Errorf("item %d selected twice", a)
		}
		seen[a] = true
		value += in.Items[a].Value
	}
	if len(seen) != countTrue(st.selected) {
		return fmt.Errorf("selection order has %d items, selected flags %d", len(seen), countTrue(st.selected))
	}
	if value != st.valueAllocated {
		return fmt.Errorf("value_allocated=%v, sum of selected values %v", st.valueAllocated, value)
	}
	if st.valueAllocated < 0 || st.valueAllocated > st.totalValue {
		return fmt.Errorf("value_allocated=%v outside [0, %v]", st.valueAllocated, st.totalValue)
	}
	if st.terminated() != st.mask.AllMasked() {
		return fmt.Errorf("terminated=%v but all-masked=%v", st.terminated(), st.mask.AllMasked())
	}
	return nil
}

func (st *episodeState) assertInvariants() {
	if !DebugInvariants {
		return
	}
	if err := st.checkInvariants(); err != nil {
		panic(fmt.Sprintf("allocation state invariant violated: %v", err))
	}
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
