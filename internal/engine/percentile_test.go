package engine

import (
	"math"
	"testing"
	"time"
)

func seedUniformHistory(e *RankEstimator, symbol string, n int, low, high float64) {
	base := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		iv := low + (high-low)*float64(i)/float64(n-1)
		e.Observe(symbol, iv, base.Add(time.Duration(i)*24*time.Hour))
	}
}

func TestMetricsNoHistory(t *testing.T) {
	e := NewRankEstimator()
	m := e.Metrics("SLV", 0.30)
	if m.IVRank != 50 || m.IVPercentile != 50 {
		t.Fatalf("want neutral 50/50, got %+v", m)
	}
	if m.SampleSize != 0 {
		t.Errorf("sample size = %d, want 0", m.SampleSize)
	}
}

func TestMetricsInsufficientHistory(t *testing.T) {
	e := NewRankEstimator()
	seedUniformHistory(e, "SLV", 30, 0.10, 0.50)

	m := e.Metrics("SLV", 0.30)
	if m.IVRank != 50 || m.IVPercentile != 50 {
		t.Fatalf("want neutral 50/50 below the calibration minimum, got %+v", m)
	}
	if m.SampleSize != 30 {
		t.Errorf("sample size = %d, want the true count 30", m.SampleSize)
	}
}

func TestMetricsTunableMinSamples(t *testing.T) {
	e := NewRankEstimator(WithMinSamples(10))
	seedUniformHistory(e, "SLV", 30, 0.10, 0.50)

	m := e.Metrics("SLV", 0.50)
	if m.IVPercentile != 100 {
		t.Fatalf("estimator should be calibrated at 30 observations, got %+v", m)
	}
}

func TestMetricsUniformHistorySymmetry(t *testing.T) {
	// 252 observations uniformly covering [0.10, 0.50]; the midpoint must
	// land near rank 50 / percentile 50.
	e := NewRankEstimator()
	seedUniformHistory(e, "SLV", 252, 0.10, 0.50)

	m := e.Metrics("SLV", 0.30)
	if math.Abs(m.IVRank-50) > 1 {
		t.Errorf("iv rank = %v, want ~50", m.IVRank)
	}
	if math.Abs(m.IVPercentile-50) > 1 {
		t.Errorf("iv percentile = %v, want ~50", m.IVPercentile)
	}
	if m.SampleSize != 252 {
		t.Errorf("sample size = %d, want 252", m.SampleSize)
	}
}

func TestMetricsBoundsAndMonotonicity(t *testing.T) {
	e := NewRankEstimator()
	seedUniformHistory(e, "CL", 200, 0.20, 0.80)

	prev := -1.0
	for _, cur := range []float64{0.01, 0.20, 0.35, 0.50, 0.65, 0.80, 1.50} {
		m := e.Metrics("CL", cur)
		if m.IVPercentile < 0 || m.IVPercentile > 100 {
			t.Fatalf("percentile out of [0,100]: %v", m.IVPercentile)
		}
		if m.IVRank < 0 || m.IVRank > 100 {
			t.Fatalf("rank out of [0,100]: %v", m.IVRank)
		}
		if m.IVPercentile < prev {
			t.Fatalf("percentile not monotone: %v after %v", m.IVPercentile, prev)
		}
		prev = m.IVPercentile
	}
}

func TestMetricsFlatHistory(t *testing.T) {
	e := NewRankEstimator()
	base := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		e.Observe("GC", 0.25, base.Add(time.Duration(i)*24*time.Hour))
	}

	m := e.Metrics("GC", 0.25)
	if m.IVRank != 50 {
		t.Errorf("flat window rank = %v, want 50", m.IVRank)
	}
	if m.IVPercentile != 100 {
		t.Errorf("percentile = %v, want 100 (all values <= current)", m.IVPercentile)
	}
}

func TestObserveEvictsBeyondThreeLookbacks(t *testing.T) {
	e := NewRankEstimator(WithLookback(10))
	seedUniformHistory(e, "RB", 100, 0.10, 0.50)

	if n := e.SampleSize("RB"); n != 30 {
		t.Fatalf("buffer holds %d, want 30 (3x lookback)", n)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	e := NewRankEstimator()
	seedUniformHistory(e, "SLV", 60, 0.10, 0.50)
	seedUniformHistory(e, "CL", 80, 0.30, 0.90)

	snap := e.Snapshot()

	restored := NewRankEstimator()
	restored.Restore(snap)

	for _, sym := range []string{"SLV", "CL"} {
		if restored.SampleSize(sym) != e.SampleSize(sym) {
			t.Fatalf("%s: restored %d observations, want %d", sym, restored.SampleSize(sym), e.SampleSize(sym))
		}
		a, b := e.Metrics(sym, 0.42), restored.Metrics(sym, 0.42)
		if a != b {
			t.Errorf("%s: metrics diverge after restore: %+v vs %+v", sym, a, b)
		}
	}

	// The snapshot is a copy: mutating it must not touch the estimator.
	snap["SLV"][0].IV = 99
	if m := e.Metrics("SLV", 0.42); m.WindowHigh == 99 {
		t.Fatal("snapshot aliases internal history")
	}
}
