package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"VolPulse/internal/domain/models"
	"VolPulse/internal/engine"
	applogger "VolPulse/pkg/logger"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]models.HistoryPoint
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]models.HistoryPoint)}
}

func (m *memStore) Save(_ context.Context, h map[string][]models.HistoryPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]models.HistoryPoint, len(h))
	for k, v := range h {
		cp := make([]models.HistoryPoint, len(v))
		copy(cp, v)
		m.data[k] = cp
	}
	return nil
}

func (m *memStore) Load(_ context.Context) (map[string][]models.HistoryPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]models.HistoryPoint, len(m.data))
	for k, v := range m.data {
		cp := make([]models.HistoryPoint, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out, nil
}

func (m *memStore) Health(context.Context) error { return nil }
func (m *memStore) Close() error                 { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordSolve(string, int, bool) {}
func (nopMetrics) RecordIndex(string, float64)   {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordLatency(string, float64) {}

type capturingPublisher struct {
	mu     sync.Mutex
	alerts []models.Signal
}

func (p *capturingPublisher) PublishAlert(_ context.Context, _ models.IndexResult, s models.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, s)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func testClock() (func() time.Time, time.Time) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return now }, now
}

func newTestService(t *testing.T, store *memStore, opts ...ServiceOption) (*VolatilityService, *engine.RankEstimator, time.Time) {
	t.Helper()
	clock, now := testClock()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	estimator := engine.NewRankEstimator()
	svc := NewVolatilityService(
		engine.DefaultCommodities(),
		engine.NewSolver(engine.WithClock(clock)),
		engine.NewLiquidityFilter(),
		engine.NewRateProvider(nil),
		estimator,
		engine.NewAggregator(engine.WithAggregatorClock(clock)),
		store,
		nopMetrics{},
		l,
		append([]ServiceOption{WithServiceClock(clock)}, opts...)...,
	)
	return svc, estimator, now
}

func syntheticChain(t *testing.T, now time.Time, forwardPrice float64, iv float64) ([]models.Quote, models.Forward) {
	t.Helper()
	expiry := now.Add(30 * 24 * time.Hour)
	T := expiry.Sub(now).Seconds() / (365.25 * 24 * 3600)
	forward := models.Forward{Symbol: "AG2406", Price: forwardPrice, Currency: models.CurrencyCNY}

	var chain []models.Quote
	for i := 0; i < 5; i++ {
		ks := forwardPrice + 50 + float64(i)*50
		price := engine.Black76Call(forwardPrice, ks, T, 0.02, iv)
		q, err := models.NewQuote(fmt.Sprintf("AG2406-C-%.0f", ks), models.Call, ks, price, 0, 0, 1000, 5000, expiry)
		if err != nil {
			t.Fatalf("call quote: %v", err)
		}
		chain = append(chain, q)

		kp := forwardPrice - 50 - float64(i)*50
		price = engine.Black76Put(forwardPrice, kp, T, 0.02, iv)
		q, err = models.NewQuote(fmt.Sprintf("AG2406-P-%.0f", kp), models.Put, kp, price, 0, 0, 1000, 5000, expiry)
		if err != nil {
			t.Fatalf("put quote: %v", err)
		}
		chain = append(chain, q)
	}
	return chain, forward
}

func TestSolveIVAppendsConvergedToHistory(t *testing.T) {
	svc, estimator, now := newTestService(t, newMemStore())

	expiry := now.Add(30 * 24 * time.Hour)
	q, err := models.NewQuote("AG2406-C-5000", models.Call, 5000, 150, 145, 155, 1000, 5000, expiry)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	forward := models.Forward{Symbol: "AG2406", Price: 4900, Currency: models.CurrencyCNY}

	res, err := svc.SolveIV(context.Background(), "SLV", q, forward)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence: %+v", res)
	}
	if n := estimator.SampleSize("SLV"); n != 1 {
		t.Errorf("history size = %d, want 1", n)
	}
}

func TestSolveIVStrictFilterRejects(t *testing.T) {
	svc, estimator, now := newTestService(t, newMemStore(), WithStrictFilter(true))

	expiry := now.Add(30 * 24 * time.Hour)
	q, err := models.NewQuote("AG2406-C-5000", models.Call, 5000, 150, 145, 155, 10, 5000, expiry)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	forward := models.Forward{Symbol: "AG2406", Price: 4900, Currency: models.CurrencyCNY}

	if _, err := svc.SolveIV(context.Background(), "SLV", q, forward); !errors.Is(err, ErrIlliquidQuote) {
		t.Fatalf("want ErrIlliquidQuote, got %v", err)
	}
	if n := estimator.SampleSize("SLV"); n != 0 {
		t.Errorf("rejected quote must not enter history, size = %d", n)
	}
}

func TestComputeIndexEmptyChain(t *testing.T) {
	svc, _, _ := newTestService(t, newMemStore())
	forward := models.Forward{Symbol: "AG2406", Price: 4900, Currency: models.CurrencyCNY}

	if _, _, err := svc.ComputeIndex(context.Background(), "SLV", nil, forward); !errors.Is(err, engine.ErrEmptyChain) {
		t.Fatalf("want ErrEmptyChain, got %v", err)
	}
}

func TestComputeIndexUncalibratedUsesAbsoluteBasis(t *testing.T) {
	svc, _, now := newTestService(t, newMemStore())
	chain, forward := syntheticChain(t, now, 4900, 0.30)

	index, signal, err := svc.ComputeIndex(context.Background(), "SLV", chain, forward)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if index.IVRank != nil || index.IVPercentile != nil {
		t.Errorf("rank/percentile must be absent without history: %+v", index)
	}
	if signal.Basis != models.BasisAbsolute {
		t.Errorf("basis = %q, want absolute fallback", signal.Basis)
	}
	if signal.ShouldAlert {
		t.Error("absolute fallback must never alert")
	}
	if index.TotalOptions == 0 || index.VIX <= 0 {
		t.Errorf("implausible index: %+v", index)
	}
}

func TestComputeIndexCalibratedAttachesPercentile(t *testing.T) {
	svc, estimator, now := newTestService(t, newMemStore())

	// Calibrate with a year of mid-range history, then push an extreme value.
	for i := 0; i < 252; i++ {
		estimator.Observe("SLV", 0.10+0.0005*float64(i), now.Add(time.Duration(i-252)*24*time.Hour))
	}

	chain, forward := syntheticChain(t, now, 4900, 0.60)

	index, signal, err := svc.ComputeIndex(context.Background(), "SLV", chain, forward)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if index.IVPercentile == nil || index.IVRank == nil {
		t.Fatalf("expected calibrated rank/percentile: %+v", index)
	}
	if *index.IVPercentile < 95 {
		t.Errorf("percentile = %v, extreme value should rank at the top", *index.IVPercentile)
	}
	if signal.Basis != models.BasisPercentile {
		t.Errorf("basis = %q, want percentile", signal.Basis)
	}
	if !signal.ShouldAlert {
		t.Error("extreme percentile must alert")
	}
	if signal.Level != "extreme" {
		t.Errorf("level = %q, want extreme", signal.Level)
	}
}

func TestComputeIndexPublishesAlert(t *testing.T) {
	pub := &capturingPublisher{}
	svc, estimator, now := newTestService(t, newMemStore(), WithAlertPublisher(pub))

	for i := 0; i < 252; i++ {
		estimator.Observe("SLV", 0.10+0.0005*float64(i), now.Add(time.Duration(i-252)*24*time.Hour))
	}
	chain, forward := syntheticChain(t, now, 4900, 0.60)

	if _, _, err := svc.ComputeIndex(context.Background(), "SLV", chain, forward); err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(pub.alerts) != 1 {
		t.Fatalf("published %d alerts, want 1", len(pub.alerts))
	}
	if pub.alerts[0].Level != "extreme" {
		t.Errorf("alert level = %q", pub.alerts[0].Level)
	}
}

func TestHistorySaveLoadRoundTrip(t *testing.T) {
	store := newMemStore()
	svc, estimator, now := newTestService(t, store)

	for i := 0; i < 60; i++ {
		estimator.Observe("CL", 0.40+0.001*float64(i), now.Add(time.Duration(i)*time.Hour))
	}
	if err := svc.SaveHistory(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}

	svc2, estimator2, _ := newTestService(t, store)
	if err := svc2.LoadHistory(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, want := estimator2.SampleSize("CL"), estimator.SampleSize("CL"); got != want {
		t.Fatalf("restored %d observations, want %d", got, want)
	}
	if a, b := estimator.Metrics("CL", 0.45), estimator2.Metrics("CL", 0.45); a != b {
		t.Errorf("metrics diverge after round trip: %+v vs %+v", a, b)
	}
}
