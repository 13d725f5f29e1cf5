package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

type fakeTemplateLister struct {
	templates []domain.MessageTemplate
}

func (f *fakeTemplateLister) List(ctx context.Context, operatorID int64) ([]domain.MessageTemplate, error) {
	return f.templates, nil
}

func notifyFixture() (*NotifyService, *fakeAttempts, *fakeSender) {
	templates := &fakeTemplateLister{templates: []domain.MessageTemplate{
		{ID: "t1", Name: "cobranca", Bucket: domain.BucketDueToday, Body: "Olá {{nome}}, valor {{valor}} vence {{data_vencimento}}", Active: true},
		{ID: "t2", Name: "inativo", Bucket: domain.BucketOverdue1d, Body: "x", Active: false},
	}}
	attempts := &fakeAttempts{existing: map[string]bool{}}
	sender := &fakeSender{}
	svc := NewNotifyService(templates, attempts, &fakeProvider{sender: sender})
	return svc, attempts, sender
}

func TestNotifySend_RendersCustomFields(t *testing.T) {
	svc, attempts, sender := notifyFixture()

	outcome, err := svc.Send(context.Background(), 1, NotifyRequest{
		Phone: "+5511999990001",
		Name:  "Maria",
		Flow:  "cobranca",
		CustomFields: map[string]any{
			"valor_divida":    150.5,
			"data_vencimento": "2026-09-05",
		},
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if !strings.Contains(outcome.Rendered, "Maria") ||
		!strings.Contains(outcome.Rendered, "150.50") ||
		!strings.Contains(outcome.Rendered, "05/09/2026") {
		t.Fatalf("rendered message missing substitutions: %s", outcome.Rendered)
	}
	if outcome.ProviderMessageID == "" {
		t.Fatal("expected provider message id")
	}

	if len(sender.sent) != 1 || sender.sent[0] != "+5511999990001" {
		t.Fatalf("unexpected sends: %v", sender.sent)
	}
	if len(attempts.created) != 1 {
		t.Fatalf("expected recorded attempt, got %d", len(attempts.created))
	}
	if attempts.created[0].ClientID != "+5511999990001" {
		t.Fatalf("ad-hoc attempts are keyed by phone, got %s", attempts.created[0].ClientID)
	}
}

func TestNotifySend_UnknownFlow(t *testing.T) {
	svc, attempts, _ := notifyFixture()

	_, err := svc.Send(context.Background(), 1, NotifyRequest{
		Phone: "+5511999990001",
		Name:  "Maria",
		Flow:  "does-not-exist",
	})
	if err == nil {
		t.Fatal("expected error for unknown flow")
	}
	if len(attempts.created) != 0 {
		t.Fatal("no attempt should be recorded when the flow does not resolve")
	}
}

func TestNotifySend_InactiveFlowNotMatched(t *testing.T) {
	svc, _, _ := notifyFixture()

	_, err := svc.Send(context.Background(), 1, NotifyRequest{
		Phone: "+5511999990001",
		Name:  "Maria",
		Flow:  "inativo",
	})
	if err == nil {
		t.Fatal("inactive templates must not be selectable as flows")
	}
}

func TestNotifySend_DeliveryFailureStillAudited(t *testing.T) {
	templates := &fakeTemplateLister{templates: []domain.MessageTemplate{
		{ID: "t1", Name: "cobranca", Bucket: domain.BucketDueToday, Body: "oi", Active: true},
	}}
	attempts := &fakeAttempts{existing: map[string]bool{}}
	sender := &fakeSender{errOn: map[string]error{
		"+5511999990001": errors.New("provider rejected"),
	}}
	svc := NewNotifyService(templates, attempts, &fakeProvider{sender: sender})

	_, err := svc.Send(context.Background(), 1, NotifyRequest{
		Phone: "+5511999990001",
		Name:  "Maria",
		Flow:  "cobranca",
	})
	if err == nil {
		t.Fatal("expected send error to propagate")
	}
	if len(attempts.created) != 1 || attempts.created[0].Status != domain.SendStatusError {
		t.Fatalf("failed delivery must be recorded as error attempt, got %+v", attempts.created)
	}
}

func TestNotifySend_NotConfigured(t *testing.T) {
	svc := NewNotifyService(&fakeTemplateLister{}, &fakeAttempts{}, &fakeProvider{err: ErrNotConfigured})

	_, err := svc.Send(context.Background(), 1, NotifyRequest{Phone: "+5511999990001", Name: "x", Flow: "y"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
