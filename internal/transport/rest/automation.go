package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/service"
)

// RunAutomation triggers one collection pass for the authenticated
// operator. This is the endpoint the external cron hits on its schedule;
// the response carries the per-debtor outcomes so the caller can log them.
func (h *Handler) RunAutomation(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	result, err := h.deps.Automation.Run(r.Context(), operatorID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, service.ErrNotConfigured) {
			ErrorBadRequest(w, "whatsapp connection not configured")
			return
		}
		ErrorInternal(w, "automation run failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}
