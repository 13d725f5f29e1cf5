package rest

import (
	"errors"
	"net/http"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/service"
)

// NotifySingle delivers a one-off collection message to a single contact.
// Validation failures return 400 with every violation listed; delivery
// failures return 500 so the caller can retry.
func (h *Handler) NotifySingle(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := operatorFrom(w, r)
	if !ok {
		return
	}

	req, details := ValidateNotifyRequest(r)
	if details != nil {
		Error(w, "validation failed", details, http.StatusBadRequest)
		return
	}

	outcome, err := h.deps.Notify.Send(r.Context(), operatorID, service.NotifyRequest{
		Phone:        req.Phone,
		Name:         req.Name,
		Flow:         req.Flow,
		CustomFields: req.CustomFields,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotConfigured) {
			ErrorBadRequest(w, "whatsapp connection not configured")
			return
		}
		ErrorInternal(w, "failed to send message: "+err.Error())
		return
	}

	Success(w, "message sent", outcome)
}
