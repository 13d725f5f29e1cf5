package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

type TemplateLister interface {
	List(ctx context.Context, operatorID int64) ([]domain.MessageTemplate, error)
}

// NotifyService delivers a one-off collection message to a single contact,
// outside the scheduled automation pass. The flow name selects an active
// template by name; custom fields feed the placeholder substitution.
type NotifyService struct {
	templates TemplateLister
	attempts  AttemptRecorder
	sender    SenderProvider
}

func NewNotifyService(templates TemplateLister, attempts AttemptRecorder, sender SenderProvider) *NotifyService {
	return &NotifyService{templates: templates, attempts: attempts, sender: sender}
}

type NotifyRequest struct {
	Phone        string
	Name         string
	Flow         string
	CustomFields map[string]any
}

type NotifyOutcome struct {
	ProviderMessageID string `json:"provider_message_id"`
	Rendered          string `json:"rendered"`
	Flow              string `json:"flow"`
}

// Send resolves the flow to a template, composes and delivers the message,
// and records a send attempt for the audit trail.
func (s *NotifyService) Send(ctx context.Context, operatorID int64, req NotifyRequest) (*NotifyOutcome, error) {
	sender, err := s.sender.SenderFor(ctx, operatorID)
	if err != nil {
		return nil, err
	}

	tpl, err := s.findFlowTemplate(ctx, operatorID, req.Flow)
	if err != nil {
		return nil, err
	}

	rendered := RenderTemplate(tpl.Body, ComposeData{
		Name:    req.Name,
		Amount:  floatField(req.CustomFields, "valor_divida"),
		DueDate: dateField(req.CustomFields, "data_vencimento", time.Now()),
	})

	attempt := &domain.SendAttempt{
		OperatorID: operatorID,
		ClientID:   req.Phone, // no client row for ad-hoc notifies; keyed by phone
		Bucket:     tpl.Bucket,
		TemplateID: &tpl.ID,
		Rendered:   rendered,
	}

	providerID, sendErr := sender.SendText(ctx, req.Phone, rendered)
	if sendErr != nil {
		detail := sendErr.Error()
		attempt.Status = domain.SendStatusError
		attempt.ErrorDetail = &detail
	} else {
		attempt.Status = domain.SendStatusSent
		attempt.ProviderMessageID = &providerID
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		log.Printf("[NOTIFY] failed to record attempt for phone=%s: %v", req.Phone, err)
	}

	if sendErr != nil {
		return nil, sendErr
	}

	return &NotifyOutcome{
		ProviderMessageID: providerID,
		Rendered:          rendered,
		Flow:              req.Flow,
	}, nil
}

func (s *NotifyService) findFlowTemplate(ctx context.Context, operatorID int64, flow string) (*domain.MessageTemplate, error) {
	templates, err := s.templates.List(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	for i := range templates {
		if templates[i].Active && templates[i].Name == flow {
			return &templates[i], nil
		}
	}
	return nil, fmt.Errorf("no active template for flow %q", flow)
}

func floatField(fields map[string]any, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

func dateField(fields map[string]any, key string, def time.Time) time.Time {
	if s, ok := fields[key].(string); ok {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t
		}
	}
	return def
}
