package rest

import (
	"net/http"
	"strconv"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

// ListEventLogs exposes the messaging-integration audit trail.
func (h *Handler) ListEventLogs(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	var typ *domain.EventType
	if s := r.URL.Query().Get("type"); s != "" {
		t := domain.EventType(s)
		switch t {
		case domain.EventConnection, domain.EventMessage, domain.EventError, domain.EventSystem, domain.EventWebhook:
		default:
			ErrorBadRequest(w, "unknown event type")
			return
		}
		typ = &t
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			ErrorBadRequest(w, "limit must be an integer")
			return
		}
		limit = n
	}

	logs, err := h.deps.EventLogs.List(r.Context(), operatorID, typ, limit)
	if err != nil {
		ErrorInternal(w, "failed to list logs")
		return
	}
	Success(w, "", eventLogsJSON(logs))
}
