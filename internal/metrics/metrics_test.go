package metrics

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterAndGauge(t *testing.T) {
	r := NewRegistry("test")

	c := r.Counter("keys_total", "keys")
	c.Inc()
	c.Add(2)
	assert.Equal(t, uint64(3), c.Value())
	assert.Same(t, c, r.Counter("keys_total", "ignored"))

	g := r.Gauge("windows", "windows")
	g.Inc()
	g.Inc()
	g.Dec()
	assert.Equal(t, int64(1), g.Value())
	g.Set(7)
	assert.Equal(t, int64(7), g.Value())
}

func TestHistogramBuckets(t *testing.T) {
	r := NewRegistry("")
	h := r.Histogram("latency", "latency", []float64{1, 0.1})

	h.Observe(0.05)
	h.Observe(0.1)
	h.Observe(0.5)
	h.Observe(3)

	assert.Equal(t, uint64(4), h.Count())
	assert.Equal(t, []uint64{2, 3, 4}, h.cumulative())
}

func TestWritePrometheus(t *testing.T) {
	r := NewRegistry("hanim")
	r.Counter("b_total", "second").Add(5)
	r.Counter("a_total", "first").Inc()
	r.Gauge("live", "live things").Set(-2)
	r.Histogram("lat", "latency", []float64{1}).Observe(0.5)

	var buf bytes.Buffer
	require.NoError(t, r.WritePrometheus(&buf))
	out := buf.String()

	assert.Contains(t, out, "# TYPE hanim_a_total counter\nhanim_a_total 1\n")
	assert.Contains(t, out, "hanim_b_total 5\n")
	assert.Contains(t, out, "hanim_live -2\n")
	assert.Contains(t, out, "hanim_lat_bucket{le=\"1\"} 1\n")
	assert.Contains(t, out, "hanim_lat_bucket{le=\"+Inf\"} 1\n")
	assert.Contains(t, out, "hanim_lat_count 1\n")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("hanim_a_total")), bytes.Index(buf.Bytes(), []byte("hanim_b_total")))
}

func TestServerMetricsHTTP(t *testing.T) {
	m := NewServerMetrics(nil)
	m.KeysTotal.Inc()
	m.PreeditWindows.Inc()

	h := m.Registry().HTTPHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hanim_keys_total 1")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var snap map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.EqualValues(t, 1, snap["hanim_preedit_windows"])
	assert.EqualValues(t, 0, snap["hanim_key_latency_seconds_count"])
}
