package sim

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Observation is the flattened, row-major observation matrix.
//
// Layout, (N+1) rows of (2+R) columns:
//   - row i < N: (selected, value, demand[0..R]); value and demand are zeroed
//     once the item is selected
//   - row N:     (0, value_allocated, remaining_capacity[0..R])
type Observation []float64

// ObservationCols returns the number of columns of the observation matrix.
func ObservationCols(numResources int) int { return 2 + numResources }

// ObservationSize returns the length of a flattened observation.
func ObservationSize(numItems, numResources int) int {
	return (numItems + 1) * ObservationCols(numResources)
}

// Normalizer scales an observation matrix column by column. The zero value
// disables normalization.
type Normalizer struct {
	Enabled    bool
	MaxValue   float64   // divisor of the item value column
	TotalValue float64   // divisor of the aggregate value cell
	Capacity   []float64 // divisor of each resource column
}

// encodeObservation builds the observation matrix for the given state.
func encodeObservation(st *episodeState) *mat.Dense {
	in := st.instance
	n, cols := in.NumItems(), ObservationCols(in.NumResources())
	m := mat.NewDense(n+1, cols, nil)
	for i, it := range in.Items {
		if st.selected[i] {
			m.Set(i, 0, 1)
			continue
		}
		m.Set(i, 1, it.Value)
		for r, d := range it.Demand {
			m.Set(i, 2+r, d)
		}
	}
	m.Set(n, 1, st.valueAllocated)
	for r, rem := range st.remaining() {
		m.Set(n, 2+r, rem)
	}
	return m
}

// Normalize returns a scaled copy of obs; obs itself is not modified.
// Divisors that are not positive leave their column untouched. Item demands
// above capacity are clamped to 1: such items can never fit.
func (nz Normalizer) Normalize(obs *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.CloneFrom(obs)
	if !nz.Enabled {
		return &out
	}
	rows, cols := out.Dims()
	agg := rows - 1
	for i := 0; i < rows; i++ {
		div := nz.MaxValue
		if i == agg {
			div = nz.TotalValue
		}
		if div > 0 {
			out.Set(i, 1, out.At(i, 1)/div)
		}
		for c := 2; c < cols; c++ {
			if capR := nz.Capacity[c-2]; capR > 0 {
				out.Set(i, c, math.Min(out.At(i, c)/capR, 1))
			}
		}
	}
	return &out
}

// Flatten copies the matrix into a row-major Observation.
func Flatten(m *mat.Dense) Observation {
	rows, cols := m.Dims()
	out := make(Observation, 0, rows*cols)
	for i := 0; i < rows; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}
