package trace

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TraceSummary aggregates statistics over a set of EpisodeTraces.
type TraceSummary struct {
	Episodes     int            `json:"episodes"`
	TotalSteps   int            `json:"total_steps"`
	MeanReturn   float64        `json:"mean_return"`
	StdReturn    float64        `json:"std_return"`
	MeanValue    float64        `json:"mean_value"`
	Compared     int            `json:"compared"` // episodes with an attached optimum
	MeanRatio    float64        `json:"mean_ratio"`
	StdRatio     float64        `json:"std_ratio"`
	MinRatio     float64        `json:"min_ratio"`
	OptimalCount int            `json:"optimal_count"` // compared episodes that reached the optimum
	Reasons      map[string]int `json:"reasons"`       // done reason → count of episodes
	StoppedCount int            `json:"stopped_count"`
}

// Summarize computes aggregate statistics from episode traces.
// Safe for nil or empty input (returns zero-value fields).
func Summarize(traces []*EpisodeTrace) *TraceSummary {
	summary := &TraceSummary{
		Reasons: make(map[string]int),
	}
	var returns, values, ratios []float64
	for _, et := range traces {
		if et == nil {
			continue
		}
		o := et.Outcome
		summary.Episodes++
		summary.TotalSteps += o.StepCount
		summary.Reasons[o.Reason]++
		if o.Stopped {
			summary.StoppedCount++
		}
		returns = append(returns, o.Return)
		values = append(values, o.Value)
		if r, ok := o.Ratio(); ok {
			ratios = append(ratios, r)
			if r >= 1-1e-9 {
				summary.OptimalCount++
			}
		}
	}
	if len(returns) > 0 {
		summary.MeanReturn, summary.StdReturn = meanStd(returns)
		summary.MeanValue = stat.Mean(values, nil)
	}
	summary.Compared = len(ratios)
	if len(ratios) > 0 {
		summary.MeanRatio, summary.StdRatio = meanStd(ratios)
		summary.MinRatio = floats.Min(ratios)
	}
	return summary
}

// meanStd is stat.MeanStdDev with a zero deviation for a single sample.
func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 1 {
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}
