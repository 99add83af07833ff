package queue

import (
	"fmt"
	"testing"
	"time"

	"github.com/parcelops/dispatchd/core/model"
	"github.com/parcelops/dispatchd/core/scoring"
	infralogger "github.com/parcelops/dispatchd/infra/logger"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(scoring.NewScorer(), infralogger.NopLogger{}, nil, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	m.SetClock(func() time.Time { return fixedNow })
	return m
}

func sampleOrders() []model.Order {
	return []model.Order{
		{OrderNumber: "ORD-1", OrderDate: fixedNow.Add(-48 * time.Hour), ExpectedDispatch: fixedNow.Add(1 * time.Hour), OrderTotal: 120},
		{OrderNumber: "ORD-2", OrderDate: fixedNow.Add(-24 * time.Hour), ExpectedDispatch: fixedNow.Add(30 * time.Hour), OrderTotal: 80},
		{OrderNumber: "ORD-3", OrderDate: fixedNow.Add(-2 * time.Hour), ExpectedDispatch: fixedNow.Add(72 * time.Hour), OrderTotal: 40},
	}
}

func TestNewManager_InvalidWeights(t *testing.T) {
	bad := scoring.Scorer{DispatchWeight: 1, DeliveryWeight: 1}
	if _, err := NewManager(bad, infralogger.NopLogger{}, nil, nil); err == nil {
		t.Fatal("expected weight validation error")
	}
}

func TestRecompute_OrdersByScore(t *testing.T) {
	m := newTestManager(t)
	m.LoadOrders(sampleOrders())
	ranking := m.Recompute()
	if len(ranking) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(ranking))
	}
	for i := 1; i < len(ranking); i++ {
		if ranking[i].DPSScore > ranking[i-1].DPSScore {
			t.Fatalf("ranking not descending at %d: %v > %v", i, ranking[i].DPSScore, ranking[i-1].DPSScore)
		}
	}
	if ranking[0].OrderNumber != "ORD-1" {
		t.Fatalf("most urgent order should rank first, got %s", ranking[0].OrderNumber)
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	m := newTestManager(t)
	m.LoadOrders(sampleOrders())
	m.Recompute()
	n := m.ScoreComputations()
	if n != 3 {
		t.Fatalf("expected 3 computations, got %d", n)
	}
	gen := m.Generation()

	m.Recompute()
	m.Recompute()
	if got := m.ScoreComputations(); got != n {
		t.Fatalf("clean recompute performed scoring work: %d -> %d", n, got)
	}
	if m.Generation() != gen {
		t.Fatalf("clean recompute bumped generation: %d -> %d", gen, m.Generation())
	}
}

func TestRecompute_OnlyDirtyOrdersRescored(t *testing.T) {
	m := newTestManager(t)
	m.LoadOrders(sampleOrders())
	m.Recompute()
	n := m.ScoreComputations()

	if err := m.MarkDirty("ORD-2"); err != nil {
		t.Fatalf("MarkDirty: %v", err)
	}
	m.Recompute()
	if got := m.ScoreComputations(); got != n+1 {
		t.Fatalf("expected exactly one rescore, got %d", got-n)
	}
}

func TestMarkDirty_UnknownOrder(t *testing.T) {
	m := newTestManager(t)
	m.LoadOrders(sampleOrders())
	if err := m.MarkDirty("ORD-404"); err == nil {
		t.Fatal("expected error for unknown order")
	}
}

func TestUpdate_PreservesDerivedFields(t *testing.T) {
	m := newTestManager(t)
	m.LoadOrders(sampleOrders())
	m.Recompute()
	before, _ := m.Get("ORD-2")

	updated := before
	updated.OrderTotal = 999
	updated.DPSScore = 1 // must be ignored
	if err := m.Update(updated); err != nil {
		t.Fatalf("Update: %v", err)
	}
	cur, _ := m.Get("ORD-2")
	if cur.DPSScore != before.DPSScore {
		t.Fatalf("derived score overwritten: %v -> %v", before.DPSScore, cur.DPSScore)
	}
	if cur.OrderTotal != 999 {
		t.Fatalf("source field not updated: %v", cur.OrderTotal)
	}

	m.Recompute()
	after, _ := m.Get("ORD-2")
	if after.DPSScore <= before.DPSScore {
		t.Fatalf("raising the total should raise the score: %v -> %v", before.DPSScore, after.DPSScore)
	}
}

func TestRecompute_InvalidOrderScoresZero(t *testing.T) {
	m := newTestManager(t)
	orders := sampleOrders()
	orders = append(orders, model.Order{OrderNumber: "ORD-BAD", OrderTotal: 500})
	m.LoadOrders(orders)
	ranking := m.Recompute()
	last := ranking[len(ranking)-1]
	if last.OrderNumber != "ORD-BAD" || last.DPSScore != 0 {
		t.Fatalf("invalid order should sink to the bottom with score 0: %#v", last)
	}
}

func TestTopN(t *testing.T) {
	m := newTestManager(t)

	// Before any recompute there is no ranking to serve.
	if got := m.TopN(5); got != nil {
		t.Fatalf("expected nil before recompute, got %v", got)
	}

	var orders []model.Order
	for i := 0; i < 50; i++ {
		orders = append(orders, model.Order{
			OrderNumber:      fmt.Sprintf("ORD-%03d", i),
			OrderDate:        fixedNow.Add(-time.Duration(i) * time.Hour),
			ExpectedDispatch: fixedNow.Add(time.Duration(i+1) * time.Hour),
			OrderTotal:       float64(10 * (i + 1)),
		})
	}
	m.LoadOrders(orders)
	m.Recompute()

	top := m.TopN(10)
	if len(top) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(top))
	}
	for i, r := range top {
		if r.PriorityRank != i+1 {
			t.Fatalf("rank %d at position %d", r.PriorityRank, i)
		}
		if i > 0 && r.DPSScore > top[i-1].DPSScore {
			t.Fatalf("topN not descending at %d", i)
		}
		if r.Countdown == "" {
			t.Fatalf("missing countdown for %s", r.OrderNumber)
		}
	}

	if got := m.TopN(500); len(got) != 50 {
		t.Fatalf("oversized n should clamp to set size, got %d", len(got))
	}
}

func TestSortTieBreaks(t *testing.T) {
	m := newTestManager(t)
	base := model.Order{OrderDate: fixedNow.Add(-3 * time.Hour), ExpectedDispatch: fixedNow.Add(1 * time.Hour)}

	a := base
	a.OrderNumber = "ORD-A"
	a.OrderTotal = 30
	b := base
	b.OrderNumber = "ORD-B"
	b.OrderTotal = 30
	c := base
	c.OrderNumber = "ORD-C"
	c.OrderTotal = 30
	c.OrderDate = fixedNow.Add(-4 * time.Hour)

	m.LoadOrders([]model.Order{b, a, c})
	ranking := m.Recompute()
	// Identical scores and totals: older date first, then order number.
	want := []string{"ORD-C", "ORD-A", "ORD-B"}
	for i, w := range want {
		if ranking[i].OrderNumber != w {
			t.Fatalf("position %d: got %s want %s", i, ranking[i].OrderNumber, w)
		}
	}
}

func TestScoreCache_ServesRepeatedLoads(t *testing.T) {
	m := newTestManager(t)
	m.LoadOrders(sampleOrders())
	m.Recompute()
	n := m.ScoreComputations()

	// Re-uploading the same orders within the hour bucket hits the cache; no
	// scoring work happens.
	m.LoadOrders(sampleOrders())
	m.Recompute()
	if got := m.ScoreComputations(); got != n {
		t.Fatalf("cached scores should be reused, got %d extra computations", got-n)
	}
	if hits, _ := m.CacheStats(); hits != 3 {
		t.Fatalf("expected 3 cache hits, got %d", hits)
	}

	// Explicit invalidation forces a rescore.
	m.MarkAllDirty()
	m.Recompute()
	if got := m.ScoreComputations(); got != n+3 {
		t.Fatalf("invalidated entries must be rescored, got %d extra", got-n)
	}
}

func TestFormatCountdown(t *testing.T) {
	cases := []struct {
		until      time.Duration
		noDeadline bool
		want       string
	}{
		{90 * time.Minute, false, "1h 30m"},
		{5 * time.Minute, false, "0h 05m"},
		{-150 * time.Minute, false, "overdue 2h 30m"},
		{0, true, "no deadline"},
	}
	for _, c := range cases {
		if got := formatCountdown(c.until, c.noDeadline); got != c.want {
			t.Fatalf("formatCountdown(%v) = %q, want %q", c.until, got, c.want)
		}
	}
}
