package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ObserveStep(t *testing.T) {
	t.Parallel()

	c := NewCollector("")

	c.ObserveStep("convert", "load_triples", 10*time.Millisecond, nil)
	c.ObserveStep("convert", "load_triples", 10*time.Millisecond, errors.New("boom"))
	c.ObserveStep("convert", "load_triples", 10*time.Millisecond, nil)

	assert.InDelta(t, 2, testutil.ToFloat64(c.StepExecutions.WithLabelValues("convert", "load_triples", StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.StepExecutions.WithLabelValues("convert", "load_triples", StatusFailure)), 0)
}

func TestCollector_Counters(t *testing.T) {
	t.Parallel()

	c := NewCollector("test")

	c.RecordRunResult("demo", "completed")
	c.RecordConvertPassFailure("trim_literals")
	c.RecordPurged(3)
	c.RecordPurged(0)
	c.RecordEvent("step.failed")
	c.RecordHTTPRequest("POST", "/pipelines/:id/run", 200, time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(c.RunResults.WithLabelValues("demo", "completed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.ConvertPassFailures.WithLabelValues("trim_literals")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.EventsConsumed.WithLabelValues("step.failed")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(c.StatesPurged), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.HTTPRequestsTotal.WithLabelValues("POST", "/pipelines/:id/run", "200")), 0)
}

func TestCollector_NilIsSafe(t *testing.T) {
	t.Parallel()

	var c *Collector

	assert.NotPanics(t, func() {
		c.ObserveStep("p", "s", time.Second, nil)
		c.RecordRunResult("p", "completed")
		c.RecordConvertPassFailure("x")
		c.RecordPurged(1)
		c.RecordHTTPRequest("GET", "/", 200, time.Second)
	})
	assert.Nil(t, c.Registry())
}

func TestCollector_Handler(t *testing.T) {
	t.Parallel()

	c := NewCollector("")
	c.RecordRunResult("demo", "awaiting_input")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pipeflow_run_results_total{pipeline="demo",status="awaiting_input"} 1`)
}
