package trace

// StepRecord captures a single action taken by a policy.
type StepRecord struct {
	Step           int
	Action         int
	Reward         float64
	ValueAllocated float64   // after the step
	Consumed       []float64 // per resource, after the step
	LegalActions   int       // legal actions before the step
}

// Outcome is the result of a finished (or stopped) episode.
type Outcome struct {
	Reason     string
	StepCount  int
	Return     float64 // sum of step rewards
	Value      float64 // value allocated
	TotalValue float64
	Objective  float64 // achieved score in the objective's units
	Optimum    float64 // exact optimum in the same units; valid when HasOptimum
	HasOptimum bool
	Stopped    bool // policy gave up while legal actions remained
}

// Ratio returns Objective/Optimum. An optimum of zero counts as fully
// achieved. ok is false when no optimum was attached.
func (o Outcome) Ratio() (ratio float64, ok bool) {
	if !o.HasOptimum {
		return 0, false
	}
	if o.Optimum <= 0 {
		return 1, true
	}
	return o.Objective / o.Optimum, true
}
