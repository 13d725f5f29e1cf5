package whatsapp

import (
	"testing"
	"time"
)

func TestManager_MonitorForRestartsAfterStop(t *testing.T) {
	client, _ := newTestClient(t, graphOK())
	mgr := NewManager(Config{}, nil)

	mon := mgr.MonitorFor(1, client, time.Hour, 0, 10, nil)
	if !mon.IsRunning() {
		t.Fatal("monitor must run after first MonitorFor")
	}

	// Disconnect stops the monitor; a later connect must resume probing.
	mon.Stop()
	if mon.IsRunning() {
		t.Fatal("monitor must stop on disconnect")
	}

	again := mgr.MonitorFor(1, client, time.Hour, 0, 10, nil)
	if again != mon {
		t.Fatal("expected the cached monitor to be reused")
	}
	if !again.IsRunning() {
		t.Fatal("monitor must be running again after reconnect")
	}
	again.Stop()
}

func TestManager_MonitorForRebindsRebuiltClient(t *testing.T) {
	first, _ := newTestClient(t, graphOK())
	second, _ := newTestClient(t, graphOK())
	mgr := NewManager(Config{}, nil)

	mon := mgr.MonitorFor(1, first, time.Hour, 0, 10, nil)
	defer mon.Stop()

	mgr.MonitorFor(1, second, time.Hour, 0, 10, nil)

	mon.mu.Lock()
	bound := mon.prober
	mon.mu.Unlock()
	if bound != second {
		t.Fatal("monitor must probe through the rebuilt client after a credentials update")
	}
}
