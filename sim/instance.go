package sim

// Item is one selectable task: a value and a demand per resource dimension.
// Items are identified by their index in Instance.Items.
type Item struct {
	Value  float64
	Demand []float64
}

// Instance is the static data of one episode: the items and the total
// capacity of every resource. Immutable once produced by the generator.
type Instance struct {
	Items    []Item
	Capacity []float64
}

// NumItems returns the number of items (the size of the action space).
func (in *Instance) NumItems() int { return len(in.Items) }

// NumResources returns the resource dimensionality R.
func (in *Instance) NumResources() int { return len(in.Capacity) }

// TotalValue returns the sum of all item values.
func (in *Instance) TotalValue() float64 {
	total := 0.0
	for _, it := range in.Items {
		total += it.Value
	}
	return total
}

// MaxValue returns the largest single item value, or 0 for an empty instance.
func (in *Instance) MaxValue() float64 {
	maxVal := 0.0
	for _, it := range in.Items {
		if it.Value > maxVal {
			maxVal = it.Value
		}
	}
	return maxVal
}

// Clone returns a deep copy.
func (in *Instance) Clone() *Instance {
	if in == nil {
		return nil
	}
	out := &Instance{
		Items:    make([]Item, len(in.Items)),
		Capacity: append([]float64(nil), in.Capacity...),
	}
	for i, it := range in.Items {
		out.Items[i] = Item{Value: it.Value, Demand: append([]float64(nil), it.Demand...)}
	}
	return out
}

// Equal reports whether two instances hold bit-identical data.
func (in *Instance) Equal(other *Instance) bool {
	if in == nil || other == nil {
		return in == other
	}
	if len(in.Items) != len(other.Items) || !floatsEqual(in.Capacity, other.Capacity) {
		return false
	}
	for i := range in.Items {
		if in.Items[i].Value != other.Items[i].Value || !floatsEqual(in.Items[i].Demand, other.Items[i].Demand) {
			return false
		}
	}
	return true
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// InstanceView is the read-only accessor handed to consumers that only need
// the instance data, such as an exact solver. Every accessor returns copies.
type InstanceView interface {
	NumItems() int
	NumResources() int
	Value(i int) float64
	Demand(i int) []float64
	Capacity() []float64
	Values() []float64
}

type instanceView struct {
	in *Instance
}

// View wraps the instance in a read-only InstanceView.
func (in *Instance) View() InstanceView {
	return instanceView{in: in}
}

func (v instanceView) NumItems() int       { return v.in.NumItems() }
func (v instanceView) NumResources() int   { return v.in.NumResources() }
func (v instanceView) Value(i int) float64 { return v.in.Items[i].Value }

func (v instanceView) Demand(i int) []float64 {
	return append([]float64(nil), v.in.Items[i].Demand...)
}

func (v instanceView) Capacity() []float64 {
	return append([]float64(nil), v.in.Capacity...)
}

func (v instanceView) Values() []float64 {
	out := make([]float64, len(v.in.Items))
	for i, it := range v.in.Items {
		out[i] = it.Value
	}
	return out
}
