package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"resto-be/internal/utils"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Histogram keeps count, sum and max of observed durations.
type Histogram struct {
	mu    sync.Mutex
	count uint64
	sum   time.Duration
	max   time.Duration
}

func (h *Histogram) Observe(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.count++
	h.sum += d
	if d > h.max {
		h.max = d
	}
}

type HistogramSnapshot struct {
	Count  uint64  `json:"count"`
	MeanMS float64 `json:"mean_ms"`
	MaxMS  float64 `json:"max_ms"`
}

func (h *Histogram) Snapshot() HistogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := HistogramSnapshot{Count: h.count, MaxMS: ms(h.max)}
	if h.count > 0 {
		s.MeanMS = ms(h.sum) / float64(h.count)
	}
	return s
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Orders are the counters of the order pipeline.
type Orders struct {
	Created           Counter
	Duplicates        Counter
	PriceMismatches   Counter
	CatalogViolations Counter
	Approvals         Counter
	PublishFailures   Counter
	PersistenceErrors Counter
	CommitDuration    Histogram
}

type Snapshot struct {
	OrdersCreated     uint64            `json:"orders_created"`
	Duplicates        uint64            `json:"duplicates_rejected"`
	PriceMismatches   uint64            `json:"price_mismatches"`
	CatalogViolations uint64            `json:"catalog_violations"`
	Approvals         uint64            `json:"approvals"`
	PublishFailures   uint64            `json:"publish_failures"`
	PersistenceErrors uint64            `json:"persistence_errors"`
	CommitDuration    HistogramSnapshot `json:"commit_duration"`
}

func (o *Orders) Snapshot() Snapshot {
	return Snapshot{
		OrdersCreated:     o.Created.Load(),
		Duplicates:        o.Duplicates.Load(),
		PriceMismatches:   o.PriceMismatches.Load(),
		CatalogViolations: o.CatalogViolations.Load(),
		Approvals:         o.Approvals.Load(),
		PublishFailures:   o.PublishFailures.Load(),
		PersistenceErrors: o.PersistenceErrors.Load(),
		CommitDuration:    o.CommitDuration.Snapshot(),
	}
}

// Handler serves GET /metrics.
func Handler(o *Orders) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, o.Snapshot())
	}
}
