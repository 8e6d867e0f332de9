package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	metrics "github.com/aescanero/predictd/pkg/adapters/metrics/prometheus"
)

func ok(context.Context) error { return nil }

func fail(context.Context) error { return errors.New("connection refused") }

func TestMonitor_CheckNow(t *testing.T) {
	tests := []struct {
		name   string
		checks []Check
		want   string
	}{
		{
			name:   "all healthy",
			checks: []Check{{Name: "model", Critical: true, Func: ok}, {Name: "redis", Func: ok}},
			want:   StatusHealthy,
		},
		{
			name:   "optional dependency down",
			checks: []Check{{Name: "model", Critical: true, Func: ok}, {Name: "redis", Func: fail}},
			want:   StatusDegraded,
		},
		{
			name:   "critical dependency down",
			checks: []Check{{Name: "model", Critical: true, Func: fail}, {Name: "redis", Func: fail}},
			want:   StatusUnhealthy,
		},
		{
			name: "no checks",
			want: StatusHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(tt.checks, time.Minute, metrics.NewCollector(prometheus.NewRegistry()), zap.NewNop())

			status := m.CheckNow(context.Background())
			assert.Equal(t, tt.want, status.Status)
			assert.Len(t, status.Checks, len(tt.checks))
			assert.Equal(t, status.Status, m.GetStatus().Status)
			assert.Equal(t, tt.want != StatusUnhealthy, m.IsHealthy())
		})
	}
}

func TestMonitor_RecordsFailureDetail(t *testing.T) {
	m := NewMonitor([]Check{{Name: "redis", Func: fail}}, time.Minute, nil, zap.NewNop())

	status := m.CheckNow(context.Background())

	assert.Equal(t, StatusUnhealthy, status.Checks["redis"].Status)
	assert.Equal(t, "connection refused", status.Checks["redis"].Error)
}

func TestMonitor_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	check := Check{Name: "counter", Func: func(context.Context) error {
		calls.Add(1)
		return nil
	}}

	m := NewMonitor([]Check{check}, 10*time.Millisecond, nil, zap.NewNop())
	m.Start()
	m.Start()

	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	m.Stop()
	m.Stop()

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestMonitor_GetStatusReturnsCopy(t *testing.T) {
	m := NewMonitor([]Check{{Name: "model", Func: ok}}, time.Minute, nil, zap.NewNop())
	m.CheckNow(context.Background())

	status := m.GetStatus()
	delete(status.Checks, "model")

	assert.Contains(t, m.GetStatus().Checks, "model")
}
