package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// TestMetrics_Record verifies counters move and the handler exposes them.
func TestMetrics_Record(t *testing.T) {
	t.Parallel()

	m := New()

	m.ObserveResolution("update_available", time.Now())
	m.ObserveResolution(OutcomeAmbiguous, time.Now())
	m.ObserveResolution(OutcomeAmbiguous, time.Now())
	m.AddSkipped(3)
	m.AddSkipped(0)
	m.IncrementRequest(http.MethodGet, "/", http.StatusFound)

	require.InDelta(t, 1, testutil.ToFloat64(m.Resolutions.WithLabelValues("update_available")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(m.Resolutions.WithLabelValues(OutcomeAmbiguous)), 0)
	require.InDelta(t, 3, testutil.ToFloat64(m.SkippedEntries), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/", "302")), 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "swupdate_resolutions_total")
	require.Contains(t, rec.Body.String(), "swupdate_catalog_skipped_entries_total 3")
}

// TestNew_Independent makes sure two instances do not share collectors.
func TestNew_Independent(t *testing.T) {
	t.Parallel()

	a, b := New(), New()
	a.AddSkipped(1)

	require.InDelta(t, 0, testutil.ToFloat64(b.SkippedEntries), 0)
	require.NotSame(t, a.Registry(), b.Registry())
}
