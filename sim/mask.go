package sim

// ActionMask marks currently illegal actions: true means the item cannot be selected.
type ActionMask []bool

// AllMasked reports whether no action is legal.
func (m ActionMask) AllMasked() bool {
	for _, masked := range m {
		if !masked {
			return false
		}
	}
	return true
}

// Legal returns the indices of the actions that may be taken, in ascending order.
func (m ActionMask) Legal() []int {
	legal := make([]int, 0, len(m))
	for i, masked := range m {
		if !masked {
			legal = append(legal, i)
		}
	}
	return legal
}

// Clone returns a copy of the mask.
func (m ActionMask) Clone() ActionMask {
	return append(ActionMask(nil), m...)
}

// ComputeMask derives the action mask from scratch. An item is masked when it
// is already selected, or when adding its demand would push any resource above
// capacity. Pure: it reads its arguments and nothing else.
func ComputeMask(in *Instance, selected []bool, consumed []float64) ActionMask {
	mask := make(ActionMask, len(in.Items))
	for i, it := range in.Items {
		mask[i] = selected[i] || !fits(it.Demand, consumed, in.Capacity)
	}
	return mask
}

// fits reports whether demand can be added to consumed without exceeding capacity.
func fits(demand, consumed, capacity []float64) bool {
	for r := range capacity {
		if consumed[r]+demand[r] > capacity[r] {
			return false
		}
	}
	return true
}
