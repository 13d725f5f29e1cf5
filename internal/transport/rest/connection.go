package rest

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/repository"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/whatsapp"
)

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func (h *Handler) connectionClient(w http.ResponseWriter, r *http.Request, operatorID int64) (*whatsapp.Client, bool) {
	conn, err := h.deps.Connections.Get(r.Context(), operatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorBadRequest(w, "whatsapp connection not configured")
			return nil, false
		}
		ErrorInternal(w, "failed to load connection")
		return nil, false
	}
	if !conn.HasCredentials() {
		ErrorBadRequest(w, "whatsapp connection not configured")
		return nil, false
	}
	return h.deps.Manager.ClientFor(operatorID, conn), true
}

// startMonitor launches the background health monitor for the operator.
// Each probe outcome is persisted and pushed to the dashboard.
func (h *Handler) startMonitor(operatorID int64, client *whatsapp.Client) {
	cfg := h.deps.WhatsApp
	h.deps.Manager.MonitorFor(operatorID, client, cfg.HealthInterval, cfg.HealthJitter, cfg.HealthWindow,
		func(ctx context.Context, snap whatsapp.HealthSnapshot) {
			health := domain.HealthHealthy
			if !snap.Healthy {
				health = domain.HealthUnhealthy
			}
			if err := h.deps.Connections.UpdateHealth(ctx, operatorID, health, snap.LastCheckedAt); err != nil {
				log.Printf("[HTTP] failed to persist health for operator=%d: %v", operatorID, err)
			}
			if h.deps.HealthNotify != nil {
				h.deps.HealthNotify.NotifyHealthChange(ctx, operatorID, snap.Healthy, snap.ErrorRate)
			}
		})
}

func (h *Handler) GetConnection(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	conn, err := h.deps.Connections.Get(r.Context(), operatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			Success(w, "", map[string]interface{}{"configured": false})
			return
		}
		ErrorInternal(w, "failed to load connection")
		return
	}

	data := map[string]interface{}{
		"configured":          conn.HasCredentials(),
		"access_token":        maskToken(conn.AccessToken),
		"phone_number_id":     conn.PhoneNumberID,
		"business_account_id": conn.BusinessAccountID,
		"health":              conn.Health,
		"last_checked_at":     conn.LastCheckedAt,
	}
	if mon, ok := h.deps.Manager.Monitor(operatorID); ok {
		data["monitor"] = mon.Snapshot()
	}

	Success(w, "", data)
}

func (h *Handler) SaveConnection(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	req, err := ValidateConnectionRequest(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	conn := &domain.Connection{
		OperatorID:        operatorID,
		AccessToken:       req.AccessToken,
		PhoneNumberID:     req.PhoneNumberID,
		BusinessAccountID: req.BusinessAccountID,
	}
	if err := h.deps.Connections.Upsert(r.Context(), conn); err != nil {
		ErrorInternal(w, "failed to save connection")
		return
	}

	// Rebuild the cached client so the next send uses the new credentials.
	h.deps.Manager.ClientFor(operatorID, conn)

	Success(w, "connection saved", map[string]interface{}{
		"access_token":        maskToken(conn.AccessToken),
		"phone_number_id":     conn.PhoneNumberID,
		"business_account_id": conn.BusinessAccountID,
		"health":              domain.HealthUnknown,
	})
}

// TestConnection runs a one-off connectivity probe without changing the
// session state. The outcome feeds the same rolling window the background
// monitor maintains.
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	client, ok := h.connectionClient(w, r, operatorID)
	if !ok {
		return
	}

	probeErr := client.TestConnection(r.Context())

	var snap *whatsapp.HealthSnapshot
	if mon, running := h.deps.Manager.Monitor(operatorID); running {
		s := mon.RecordResult(probeErr != nil)
		snap = &s

		health := domain.HealthHealthy
		if !s.Healthy {
			health = domain.HealthUnhealthy
		}
		if err := h.deps.Connections.UpdateHealth(r.Context(), operatorID, health, s.LastCheckedAt); err != nil {
			log.Printf("[HTTP] failed to persist health for operator=%d: %v", operatorID, err)
		}
	}

	if probeErr != nil {
		Error(w, "connection test failed: "+probeErr.Error(), nil, http.StatusBadGateway)
		return
	}

	data := map[string]interface{}{"reachable": true}
	if snap != nil {
		data["monitor"] = *snap
	}
	Success(w, "connection test passed", data)
}

// Connect establishes the provider session and starts the background
// health monitor for this operator.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	client, ok := h.connectionClient(w, r, operatorID)
	if !ok {
		return
	}

	if err := client.Connect(r.Context()); err != nil {
		if errors.Is(err, whatsapp.ErrInvalidCredentials) {
			ErrorBadRequest(w, err.Error())
			return
		}
		Error(w, "failed to connect: "+err.Error(), nil, http.StatusBadGateway)
		return
	}

	h.startMonitor(operatorID, client)

	Success(w, "connected", map[string]interface{}{"state": client.State()})
}

func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	client, ok := h.connectionClient(w, r, operatorID)
	if !ok {
		return
	}

	client.Disconnect(r.Context())
	if mon, running := h.deps.Manager.Monitor(operatorID); running {
		mon.Stop()
	}

	Success(w, "disconnected", map[string]interface{}{"state": client.State()})
}

func (h *Handler) ConnectionHealth(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	conn, err := h.deps.Connections.Get(r.Context(), operatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorNotFound(w, "whatsapp connection not configured")
			return
		}
		ErrorInternal(w, "failed to load connection")
		return
	}

	data := map[string]interface{}{
		"health":          conn.Health,
		"last_checked_at": conn.LastCheckedAt,
	}
	if mon, running := h.deps.Manager.Monitor(operatorID); running {
		data["monitor"] = mon.Snapshot()
	}

	Success(w, "", data)
}

// ProviderTemplates lists the pre-approved templates registered on the
// operator's business account with the provider.
func (h *Handler) ProviderTemplates(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	client, ok := h.connectionClient(w, r, operatorID)
	if !ok {
		return
	}

	templates, err := client.ListTemplates(r.Context())
	if err != nil {
		if errors.Is(err, whatsapp.ErrInvalidCredentials) {
			ErrorBadRequest(w, err.Error())
			return
		}
		Error(w, "failed to list provider templates: "+err.Error(), nil, http.StatusBadGateway)
		return
	}
	if templates == nil {
		templates = []whatsapp.Template{}
	}

	Success(w, "", templates)
}
