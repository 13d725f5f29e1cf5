package rest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/config"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/repository"
)

type fakeReceipts struct {
	delivered []string
	err       error
}

func (f *fakeReceipts) MarkDelivered(ctx context.Context, providerMessageID string) error {
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, providerMessageID)
	return nil
}

type fakeOperators struct {
	byPhoneID map[string]int64
}

func (f *fakeOperators) FindOperatorByPhoneNumberID(ctx context.Context, phoneNumberID string) (int64, error) {
	id, ok := f.byPhoneID[phoneNumberID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

type fakeEventLogs struct {
	appended []string
}

func (f *fakeEventLogs) Append(ctx context.Context, operatorID int64, typ domain.EventType, detail string) error {
	f.appended = append(f.appended, string(typ)+": "+detail)
	return nil
}

func (f *fakeEventLogs) List(ctx context.Context, operatorID int64, typ *domain.EventType, limit int) ([]domain.EventLog, error) {
	return nil, nil
}

func webhookHandler(receipts *fakeReceipts, events *fakeEventLogs) *Handler {
	return NewHandler(Deps{
		Receipts:  receipts,
		EventLogs: events,
		Operators: &fakeOperators{byPhoneID: map[string]int64{"10987654321": 1}},
		WhatsApp:  config.WhatsAppConfig{WebhookVerifyToken: "secret-verify"},
	})
}

func TestVerifyWebhook_EchoesChallenge(t *testing.T) {
	t.Parallel()

	h := webhookHandler(&fakeReceipts{}, &fakeEventLogs{})

	r := httptest.NewRequest("GET", "/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=secret-verify&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	h.VerifyWebhook(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "12345" {
		t.Fatalf("body = %q, want challenge echoed back", rec.Body.String())
	}
}

func TestVerifyWebhook_RejectsWrongToken(t *testing.T) {
	t.Parallel()

	h := webhookHandler(&fakeReceipts{}, &fakeEventLogs{})

	r := httptest.NewRequest("GET", "/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	h.VerifyWebhook(rec, r)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

const deliveryReceipt = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "changes": [{
      "value": {
        "metadata": {"phone_number_id": "10987654321"},
        "statuses": [
          {"id": "wamid.DELIVERED1", "status": "delivered"},
          {"id": "wamid.READ1", "status": "read"}
        ]
      }
    }]
  }]
}`

func TestReceiveWebhook_MarksDelivered(t *testing.T) {
	t.Parallel()

	receipts := &fakeReceipts{}
	h := webhookHandler(receipts, &fakeEventLogs{})

	r := httptest.NewRequest("POST", "/webhook/whatsapp", bytes.NewBufferString(deliveryReceipt))
	rec := httptest.NewRecorder()
	h.ReceiveWebhook(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(receipts.delivered) != 1 || receipts.delivered[0] != "wamid.DELIVERED1" {
		t.Fatalf("only delivered statuses promote attempts, got %v", receipts.delivered)
	}
}

func TestReceiveWebhook_UnknownReceiptIgnored(t *testing.T) {
	t.Parallel()

	receipts := &fakeReceipts{err: repository.ErrNotFound}
	h := webhookHandler(receipts, &fakeEventLogs{})

	r := httptest.NewRequest("POST", "/webhook/whatsapp", bytes.NewBufferString(deliveryReceipt))
	rec := httptest.NewRecorder()
	h.ReceiveWebhook(rec, r)

	// Provider retries on non-2xx; unknown receipts must not cause that.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestReceiveWebhook_InboundMessageLogged(t *testing.T) {
	t.Parallel()

	events := &fakeEventLogs{}
	h := webhookHandler(&fakeReceipts{}, events)

	payload := `{
      "object": "whatsapp_business_account",
      "entry": [{
        "changes": [{
          "value": {
            "metadata": {"phone_number_id": "10987654321"},
            "messages": [{"from": "5511999990001", "id": "wamid.IN1", "text": {"body": "ja paguei"}}]
          }
        }]
      }]
    }`
	r := httptest.NewRequest("POST", "/webhook/whatsapp", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	h.ReceiveWebhook(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(events.appended) != 1 {
		t.Fatalf("expected 1 webhook event logged, got %v", events.appended)
	}
}

func TestReceiveWebhook_GarbagePayload(t *testing.T) {
	t.Parallel()

	h := webhookHandler(&fakeReceipts{}, &fakeEventLogs{})

	r := httptest.NewRequest("POST", "/webhook/whatsapp", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	h.ReceiveWebhook(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
