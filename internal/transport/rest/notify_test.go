package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/service"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/transport/auth"
)

type fakeNotify struct {
	got     *service.NotifyRequest
	outcome *service.NotifyOutcome
	err     error
}

func (f *fakeNotify) Send(ctx context.Context, operatorID int64, req service.NotifyRequest) (*service.NotifyOutcome, error) {
	f.got = &req
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

type fakeRunner struct {
	result *service.RunResult
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, operatorID int64, now time.Time) (*service.RunResult, error) {
	return f.result, f.err
}

func authedRequest(method, target string, body []byte) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	return r.WithContext(auth.WithOperatorID(r.Context(), 1))
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body=%s)", err, rec.Body.String())
	}
}

func TestNotifySingle_Success(t *testing.T) {
	t.Parallel()

	notify := &fakeNotify{outcome: &service.NotifyOutcome{
		ProviderMessageID: "wamid.ABC",
		Rendered:          "oi Maria",
		Flow:              "cobranca",
	}}
	h := NewHandler(Deps{Notify: notify})

	body := []byte(`{"phone":"+5511999990001","name":"Maria","flow":"cobranca","customFields":{"valor_divida":"150.50"}}`)
	rec := httptest.NewRecorder()
	h.NotifySingle(rec, authedRequest("POST", "/api/notify", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", rec.Code, rec.Body.String())
	}

	var resp APIResponse
	decodeJSON(t, rec, &resp)
	if !resp.Success || resp.Message != "message sent" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	if notify.got == nil || notify.got.Phone != "+5511999990001" {
		t.Fatalf("service did not receive request: %+v", notify.got)
	}
}

func TestNotifySingle_ValidationFailure(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{Notify: &fakeNotify{}})

	body := []byte(`{"phone":"12345","name":"","flow":"x"}`)
	rec := httptest.NewRecorder()
	h.NotifySingle(rec, authedRequest("POST", "/api/notify", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp APIError
	decodeJSON(t, rec, &resp)
	if resp.Error != "validation failed" || len(resp.Details) != 2 {
		t.Fatalf("unexpected error payload: %+v", resp)
	}
}

func TestNotifySingle_NotConfigured(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{Notify: &fakeNotify{err: service.ErrNotConfigured}})

	body := []byte(`{"phone":"+5511999990001","name":"Maria","flow":"cobranca"}`)
	rec := httptest.NewRecorder()
	h.NotifySingle(rec, authedRequest("POST", "/api/notify", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestNotifySingle_DeliveryFailure(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{Notify: &fakeNotify{err: errors.New("provider rejected")}})

	body := []byte(`{"phone":"+5511999990001","name":"Maria","flow":"cobranca"}`)
	rec := httptest.NewRecorder()
	h.NotifySingle(rec, authedRequest("POST", "/api/notify", body))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestNotifySingle_Unauthenticated(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{Notify: &fakeNotify{}})

	rec := httptest.NewRecorder()
	h.NotifySingle(rec, httptest.NewRequest("POST", "/api/notify", bytes.NewBufferString(`{}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRunAutomation_ReturnsResults(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{result: &service.RunResult{
		Success:   true,
		Processed: 2,
		Results: []service.RunEntry{
			{Cliente: "Maria", Tipo: "due_today", Success: true},
			{Cliente: "João", Tipo: "overdue_7d", Success: false, Error: "provider rejected"},
		},
	}}
	h := NewHandler(Deps{Automation: runner})

	rec := httptest.NewRecorder()
	h.RunAutomation(rec, authedRequest("POST", "/api/automation/run", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result service.RunResult
	decodeJSON(t, rec, &result)
	if !result.Success || result.Processed != 2 || len(result.Results) != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Results[1].Error != "provider rejected" {
		t.Fatalf("per-debtor error lost: %+v", result.Results[1])
	}
}

func TestRunAutomation_NotConfigured(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{Automation: &fakeRunner{err: service.ErrNotConfigured}})

	rec := httptest.NewRecorder()
	h.RunAutomation(rec, authedRequest("POST", "/api/automation/run", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp APIError
	decodeJSON(t, rec, &resp)
	if resp.Error != "whatsapp connection not configured" {
		t.Fatalf("unexpected error: %+v", resp)
	}
}
