package prometheus

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ObservePrediction(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObservePrediction("http", "success", 1, 2*time.Millisecond)
	c.ObservePrediction("http", "success", 1, time.Millisecond)
	c.ObservePrediction("http_batch", "INVALID_PAYLOAD", 3, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.predictions.WithLabelValues("http", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.predictions.WithLabelValues("http_batch", "INVALID_PAYLOAD")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.predictionRows))
	assert.Equal(t, 2, testutil.CollectAndCount(c.predictionDuration))
}

func TestCollector_Gauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.SetDependencyUp("redis", true)
	c.SetDependencyUp("model", false)
	c.SetModelInfo("toy", "1.0.0")
	c.SetModelInfo("toy", "1.0.1")
	c.IncCacheRequests("hit")
	c.IncEventsPublished("error")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.dependencyUp.WithLabelValues("redis")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.dependencyUp.WithLabelValues("model")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.modelInfo))

	expected := `
# HELP predictd_model_info Loaded model artifact, always 1
# TYPE predictd_model_info gauge
predictd_model_info{name="toy",version="1.0.1"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "predictd_model_info"))
}

func TestNewCollector_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector(prometheus.NewRegistry())
		NewCollector(prometheus.NewRegistry())
	})
}
