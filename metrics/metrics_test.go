package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandlerExposesRegisteredCollectors(t *testing.T) {
	t.Parallel()

	m := New()
	m.ActiveRecords.Set(3)
	m.SinkErrors.WithLabelValues("ola").Inc()
	m.CueDispatches.WithLabelValues("strike").Add(2)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "photonics_active_records 3")
	require.Contains(t, body, `photonics_sink_errors_total{sink="ola"} 1`)
	require.Contains(t, body, `photonics_cue_dispatches_total{kind="strike"}`)
}

func TestNewReturnsIndependentRegistries(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()
	a.ActiveRecords.Set(1)
	b.ActiveRecords.Set(9)

	require.NotEqual(t, a, b)
}
