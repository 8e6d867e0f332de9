package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aescanero/predictd/pkg/ports"
)

// CheckFunc reports whether a dependency is usable
type CheckFunc func(ctx context.Context) error

// Check is a named dependency check.
// A failing critical check makes the service unhealthy; others only degrade it.
type Check struct {
	Name     string
	Critical bool
	Func     CheckFunc
}

// Status values
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckResult is the outcome of one check
type CheckResult struct {
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Status represents the health of the service
type Status struct {
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
}

// Healthy reports whether the service can serve predictions
func (s Status) Healthy() bool {
	return s.Status != StatusUnhealthy
}

// Monitor runs dependency checks periodically
type Monitor struct {
	checks   []Check
	interval time.Duration
	timeout  time.Duration
	metrics  ports.MetricsCollector
	logger   *zap.Logger

	mu      sync.RWMutex
	status  Status
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewMonitor creates a new health monitor
func NewMonitor(checks []Check, interval time.Duration, metrics ports.MetricsCollector, logger *zap.Logger) *Monitor {
	timeout := interval / 2
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}

	return &Monitor{
		checks:   checks,
		interval: interval,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
		status: Status{
			Status: StatusHealthy,
			Checks: map[string]CheckResult{},
		},
	}
}

// Start runs the checks once, then keeps running them in the background
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	m.CheckNow(context.Background())

	go m.run()
}

// Stop stops the background checks and waits for the loop to exit
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	done := m.doneCh
	m.mu.Unlock()

	<-done
}

// run is the main health monitoring loop
func (m *Monitor) run() {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.CheckNow(context.Background())
		}
	}
}

// CheckNow runs every check and stores the result
func (m *Monitor) CheckNow(ctx context.Context) Status {
	status := Status{
		Status:    StatusHealthy,
		Checks:    make(map[string]CheckResult, len(m.checks)),
		Timestamp: time.Now().UTC(),
	}

	for _, check := range m.checks {
		checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := check.Func(checkCtx)
		cancel()

		result := CheckResult{Status: StatusHealthy, CheckedAt: time.Now().UTC()}
		if err != nil {
			result.Status = StatusUnhealthy
			result.Error = err.Error()

			if check.Critical {
				status.Status = StatusUnhealthy
			} else if status.Status == StatusHealthy {
				status.Status = StatusDegraded
			}

			m.logger.Warn("dependency check failed",
				zap.String("dependency", check.Name),
				zap.Bool("critical", check.Critical),
				zap.Error(err))
		}
		status.Checks[check.Name] = result

		if m.metrics != nil {
			m.metrics.SetDependencyUp(check.Name, err == nil)
		}
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()

	m.logger.Debug("health check completed", zap.String("status", status.Status))

	return status
}

// GetStatus returns the last recorded status
func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	checks := make(map[string]CheckResult, len(m.status.Checks))
	for k, v := range m.status.Checks {
		checks[k] = v
	}
	status := m.status
	status.Checks = checks
	return status
}

// IsHealthy returns true if the service can serve predictions
func (m *Monitor) IsHealthy() bool {
	return m.GetStatus().Healthy()
}
