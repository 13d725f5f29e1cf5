package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/repository"
)

// OperatorResolver maps a provider phone number id to the operator that
// owns it, for unauthenticated webhook deliveries.
type OperatorResolver interface {
	FindOperatorByPhoneNumberID(ctx context.Context, phoneNumberID string) (int64, error)
}

// VerifyWebhook answers the provider's subscription handshake: echo the
// challenge when the verify token matches, 403 otherwise.
func (h *Handler) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.deps.WhatsApp.WebhookVerifyToken {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}

	log.Printf("[WEBHOOK] verification rejected: mode=%q", mode)
	w.WriteHeader(http.StatusForbidden)
}

type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Statuses []struct {
					ID     string `json:"id"`
					Status string `json:"status"`
				} `json:"statuses"`
				Messages []struct {
					From string `json:"from"`
					ID   string `json:"id"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ReceiveWebhook processes provider callbacks. Delivery receipts promote
// the matching attempt from sent to delivered; inbound messages are only
// logged. The provider retries on non-2xx, so the response is 200 even
// when individual items fail.
func (h *Handler) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Printf("[WEBHOOK] undecodable payload: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := r.Context()
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			value := change.Value

			for _, st := range value.Statuses {
				if st.Status != "delivered" {
					continue
				}
				if err := h.deps.Receipts.MarkDelivered(ctx, st.ID); err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						// Receipt for an attempt we never recorded, or one
						// already promoted. Nothing to do.
						continue
					}
					log.Printf("[WEBHOOK] failed to mark %s delivered: %v", st.ID, err)
				}
			}

			if len(value.Messages) == 0 {
				continue
			}

			operatorID, err := h.deps.Operators.FindOperatorByPhoneNumberID(ctx, value.Metadata.PhoneNumberID)
			if err != nil {
				log.Printf("[WEBHOOK] inbound message for unknown phone_number_id=%s", value.Metadata.PhoneNumberID)
				continue
			}
			for _, msg := range value.Messages {
				detail := fmt.Sprintf("inbound message from %s id=%s", msg.From, msg.ID)
				if err := h.deps.EventLogs.Append(ctx, operatorID, domain.EventWebhook, detail); err != nil {
					log.Printf("[WEBHOOK] failed to log inbound message: %v", err)
				}
			}
		}
	}

	w.WriteHeader(http.StatusOK)
}
