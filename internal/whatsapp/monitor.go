package whatsapp

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

const defaultFailureThreshold = 3

// Prober is the connectivity check the monitor drives. Satisfied by *Client.
type Prober interface {
	TestConnection(ctx context.Context) error
}

// HealthSnapshot is the monitor state exposed to dashboards.
type HealthSnapshot struct {
	Healthy             bool      `json:"healthy"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	ErrorRate           float64   `json:"error_rate"`
	WindowSize          int       `json:"window_size"`
	LastCheckedAt       time.Time `json:"last_checked_at"`
}

// Monitor probes the provider on a fixed interval (plus jitter) and tracks
// health. Three consecutive failures flip Healthy to false even if single
// probes fluctuate; one success resets the counter. The error rate is
// computed over a bounded rolling window of recent probes rather than
// since process start, so long sessions don't show a frozen average.
type Monitor struct {
	prober    Prober
	interval  time.Duration
	jitter    time.Duration
	threshold int

	onResult func(ctx context.Context, snap HealthSnapshot)

	running atomic.Bool

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	healthy  bool
	failures int
	window   []bool // true = probe failed
	windowN  int
	lastAt   time.Time
}

func NewMonitor(prober Prober, interval, jitter time.Duration, windowSize int, onResult func(ctx context.Context, snap HealthSnapshot)) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if windowSize <= 0 {
		windowSize = 50
	}
	return &Monitor{
		prober:    prober,
		interval:  interval,
		jitter:    jitter,
		threshold: defaultFailureThreshold,
		onResult:  onResult,
		healthy:   true,
		windowN:   windowSize,
		done:      make(chan struct{}),
	}
}

func (m *Monitor) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running.Store(true)

	go func() {
		defer close(m.done)

		slog.Info("health monitor started", "interval", m.interval.String(), "jitter", m.jitter.String())

		m.probe(ctx)

		for {
			timer := time.NewTimer(m.nextDelay())
			select {
			case <-ctx.Done():
				timer.Stop()
				slog.Info("health monitor stopping")
				return
			case <-timer.C:
				m.probe(ctx)
			}
		}
	}()

	return true
}

func (m *Monitor) Stop() bool {
	m.mu.Lock()
	if !m.running.Load() {
		m.mu.Unlock()
		return false
	}
	cancel := m.cancel
	done := m.done
	m.running.Store(false)
	m.mu.Unlock()

	// Wait outside the lock: an in-flight probe still needs m.mu to record
	// its outcome before the worker exits.
	cancel()
	<-done

	slog.Info("health monitor stopped")
	return true
}

func (m *Monitor) IsRunning() bool {
	return m.running.Load()
}

// Rebind points the monitor at a new prober. Needed when credentials change
// and the underlying client is rebuilt; the health window carries over.
func (m *Monitor) Rebind(p Prober) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prober = p
}

func (m *Monitor) nextDelay() time.Duration {
	d := m.interval
	if m.jitter > 0 {
		d += time.Duration(rand.Int63n(int64(m.jitter)))
	}
	return d
}

func (m *Monitor) probe(ctx context.Context) {
	m.mu.Lock()
	prober := m.prober
	m.mu.Unlock()

	probeCtx, cancel := context.WithTimeout(ctx, m.interval)
	err := prober.TestConnection(probeCtx)
	cancel()

	snap := m.record(err != nil)

	if err != nil {
		slog.Warn("health probe failed", "error", err, "consecutive_failures", snap.ConsecutiveFailures, "healthy", snap.Healthy)
	} else {
		slog.Debug("health probe ok", "error_rate", snap.ErrorRate)
	}

	if m.onResult != nil {
		m.onResult(ctx, snap)
	}
}

// RecordResult feeds one probe outcome into the health state. Exposed so a
// manual connection test from the UI counts toward the same window.
func (m *Monitor) RecordResult(failed bool) HealthSnapshot {
	return m.record(failed)
}

func (m *Monitor) record(failed bool) HealthSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastAt = time.Now().UTC()

	if failed {
		m.failures++
		if m.failures >= m.threshold {
			m.healthy = false
		}
	} else {
		m.failures = 0
		m.healthy = true
	}

	m.window = append(m.window, failed)
	if len(m.window) > m.windowN {
		m.window = m.window[len(m.window)-m.windowN:]
	}

	return m.snapshotLocked()
}

func (m *Monitor) Snapshot() HealthSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Monitor) snapshotLocked() HealthSnapshot {
	var failed int
	for _, f := range m.window {
		if f {
			failed++
		}
	}

	rate := 0.0
	if len(m.window) > 0 {
		rate = float64(failed) / float64(len(m.window))
	}

	return HealthSnapshot{
		Healthy:             m.healthy,
		ConsecutiveFailures: m.failures,
		ErrorRate:           rate,
		WindowSize:          len(m.window),
		LastCheckedAt:       m.lastAt,
	}
}
