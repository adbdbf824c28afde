package trace

import (
	"math"
	"testing"
)

func finished(episode int, reason string, ret, value float64) *EpisodeTrace {
	et := NewEpisodeTrace(TraceConfig{Level: TraceLevelNone}, episode, "test")
	et.RecordStep(StepRecord{Reward: ret})
	et.Finish(Outcome{Reason: reason, Value: value, Objective: value})
	return et
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN no traces
	// WHEN summarized
	summary := Summarize(nil)

	// THEN all counts are zero
	if summary.Episodes != 0 || summary.TotalSteps != 0 {
		t.Errorf("expected zero counts, got %+v", summary)
	}
	if summary.MeanReturn != 0 || summary.StdReturn != 0 || summary.MeanRatio != 0 {
		t.Error("expected zero statistics")
	}
	if len(summary.Reasons) != 0 {
		t.Error("expected empty reason distribution")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN traces with mixed termination reasons
	traces := []*EpisodeTrace{
		finished(0, "all-allocated", 1, 10),
		finished(1, "no-feasible-items-remain", 0.5, 5),
		finished(2, "no-feasible-items-remain", 0.6, 6),
		nil,
	}

	// WHEN summarized
	summary := Summarize(traces)

	// THEN counts match and nil entries are skipped
	if summary.Episodes != 3 {
		t.Errorf("expected 3 episodes, got %d", summary.Episodes)
	}
	if summary.TotalSteps != 3 {
		t.Errorf("expected 3 steps, got %d", summary.TotalSteps)
	}
	if summary.Reasons["no-feasible-items-remain"] != 2 || summary.Reasons["all-allocated"] != 1 {
		t.Errorf("unexpected reasons %v", summary.Reasons)
	}
	if summary.MeanValue != 7 {
		t.Errorf("expected mean value 7, got %v", summary.MeanValue)
	}
	if summary.Compared != 0 {
		t.Errorf("expected no compared episodes, got %d", summary.Compared)
	}
}

func TestSummarize_RatioStatistics_CorrectMeanStdMin(t *testing.T) {
	// GIVEN episodes with known optimality ratios 1.0, 0.5, 0.75
	traces := []*EpisodeTrace{
		finished(0, "all-allocated", 1, 10),
		finished(1, "no-feasible-items-remain", 0.5, 5),
		finished(2, "no-feasible-items-remain", 0.6, 6),
	}
	traces[0].SetOptimum(10)
	traces[1].SetOptimum(10)
	traces[2].SetOptimum(8)

	// WHEN summarized
	summary := Summarize(traces)

	// THEN mean = 0.75, sample std = 0.25, min = 0.5
	if summary.Compared != 3 {
		t.Fatalf("expected 3 compared, got %d", summary.Compared)
	}
	if math.Abs(summary.MeanRatio-0.75) > 1e-9 {
		t.Errorf("expected mean ratio 0.75, got %v", summary.MeanRatio)
	}
	if math.Abs(summary.StdRatio-0.25) > 1e-9 {
		t.Errorf("expected std ratio 0.25, got %v", summary.StdRatio)
	}
	if summary.MinRatio != 0.5 {
		t.Errorf("expected min ratio 0.5, got %v", summary.MinRatio)
	}
	if summary.OptimalCount != 1 {
		t.Errorf("expected 1 optimal episode, got %d", summary.OptimalCount)
	}
}

func TestSummarize_SingleEpisode_ZeroStd(t *testing.T) {
	summary := Summarize([]*EpisodeTrace{finished(0, "all-allocated", 0.8, 8)})
	if summary.StdReturn != 0 {
		t.Errorf("expected zero std for one episode, got %v", summary.StdReturn)
	}
	if math.Abs(summary.MeanReturn-0.8) > 1e-12 {
		t.Errorf("expected mean return 0.8, got %v", summary.MeanReturn)
	}
}

func TestSummarize_CountsStoppedEpisodes(t *testing.T) {
	et := NewEpisodeTrace(TraceConfig{}, 0, "plan")
	et.Finish(Outcome{Stopped: true})
	summary := Summarize([]*EpisodeTrace{et})
	if summary.StoppedCount != 1 {
		t.Errorf("expected 1 stopped episode, got %d", summary.StoppedCount)
	}
	if summary.Reasons[""] != 1 {
		t.Errorf("expected stopped episode under empty reason, got %v", summary.Reasons)
	}
}
