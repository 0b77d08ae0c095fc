package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter_Concurrent(t *testing.T) {
	var c Counter
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()
	c.Add(5)

	assert.Equal(t, uint64(55), c.Load())
}

func TestHistogram(t *testing.T) {
	var h Histogram
	assert.Equal(t, HistogramSnapshot{}, h.Snapshot())

	h.Observe(10 * time.Millisecond)
	h.Observe(30 * time.Millisecond)

	s := h.Snapshot()
	assert.Equal(t, uint64(2), s.Count)
	assert.InDelta(t, 20.0, s.MeanMS, 0.001)
	assert.InDelta(t, 30.0, s.MaxMS, 0.001)
}

func TestHandler(t *testing.T) {
	var o Orders
	o.Created.Inc()
	o.Duplicates.Add(2)
	o.CommitDuration.Observe(4 * time.Millisecond)

	rr := httptest.NewRecorder()
	Handler(&o).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var got Snapshot
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, uint64(1), got.OrdersCreated)
	assert.Equal(t, uint64(2), got.Duplicates)
	assert.Equal(t, uint64(1), got.CommitDuration.Count)
}
