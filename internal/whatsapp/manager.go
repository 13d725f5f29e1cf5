package whatsapp

import (
	"context"
	"sync"
	"time"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

// SinkFactory builds the audit-log sink for one operator account.
type SinkFactory func(operatorID int64) EventSink

// Manager owns one Client per operator account. Credentials updates replace
// the cached client so stale tokens are never reused. It is the explicit
// replacement for the ambient per-session singletons of the previous
// incarnation of this system: constructed once at startup, injected where
// needed.
type Manager struct {
	cfg      Config
	newSink  SinkFactory
	mu       sync.Mutex
	clients  map[int64]*Client
	monitors map[int64]*Monitor
}

func NewManager(cfg Config, newSink SinkFactory) *Manager {
	return &Manager{
		cfg:      cfg,
		newSink:  newSink,
		clients:  make(map[int64]*Client),
		monitors: make(map[int64]*Monitor),
	}
}

// ClientFor returns the cached client for the operator, creating it from
// the stored credentials when absent.
func (m *Manager) ClientFor(operatorID int64, conn *domain.Connection) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.clients[operatorID]; ok && c.creds.AccessToken == conn.AccessToken &&
		c.creds.PhoneNumberID == conn.PhoneNumberID &&
		c.creds.BusinessAccountID == conn.BusinessAccountID {
		return c
	}

	var sink EventSink
	if m.newSink != nil {
		sink = m.newSink(operatorID)
	}

	c := NewClient(m.cfg, Credentials{
		AccessToken:       conn.AccessToken,
		PhoneNumberID:     conn.PhoneNumberID,
		BusinessAccountID: conn.BusinessAccountID,
	}, sink)
	m.clients[operatorID] = c
	return c
}

// MonitorFor returns the operator's health monitor, creating one bound to
// the given client if needed. A cached monitor is rebound to the client so
// a credentials update never leaves it probing through a stale token, and
// restarted so a disconnect/connect cycle resumes probing.
func (m *Manager) MonitorFor(operatorID int64, client *Client, interval, jitter time.Duration, windowSize int, onResult func(ctx context.Context, snap HealthSnapshot)) *Monitor {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mon, ok := m.monitors[operatorID]; ok {
		mon.Rebind(client)
		mon.Start()
		return mon
	}
	mon := NewMonitor(client, interval, jitter, windowSize, onResult)
	m.monitors[operatorID] = mon
	mon.Start()
	return mon
}

// Monitor returns the operator's monitor if one is running.
func (m *Manager) Monitor(operatorID int64) (*Monitor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mon, ok := m.monitors[operatorID]
	return mon, ok
}

// Shutdown stops all monitors; in-flight probes are not cancelled, only
// ignored on return.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	monitors := make([]*Monitor, 0, len(m.monitors))
	for _, mon := range m.monitors {
		monitors = append(monitors, mon)
	}
	m.mu.Unlock()

	for _, mon := range monitors {
		mon.Stop()
	}
}
