package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
	"github.com/samu-svg/debt-wise-flow-sub001/internal/repository"
)

// ErrNotConfigured blocks the whole automation run for an operator whose
// messaging credentials are missing or unusable.
var ErrNotConfigured = errors.New("whatsapp connection not configured")

type ClientSelector interface {
	ListDueOn(ctx context.Context, operatorID int64, dates []time.Time) ([]domain.Client, error)
}

type TemplateFinder interface {
	FindActiveByBucket(ctx context.Context, operatorID int64, bucket domain.Bucket) (*domain.MessageTemplate, error)
}

type AttemptRecorder interface {
	Create(ctx context.Context, a *domain.SendAttempt) error
	ExistsForDay(ctx context.Context, operatorID int64, clientID string, bucket domain.Bucket, day time.Time) (bool, error)
}

type TextSender interface {
	SendText(ctx context.Context, phone, text string) (string, error)
}

// SenderProvider resolves a ready-to-use sender for an operator. It returns
// ErrNotConfigured (wrapped) when credentials are missing and a connection
// error when the provider session cannot be established.
type SenderProvider interface {
	SenderFor(ctx context.Context, operatorID int64) (TextSender, error)
}

// RunNotifier receives the end-of-run summary for operator dashboards.
type RunNotifier interface {
	NotifyAutomationSummary(ctx context.Context, operatorID int64, processed, sent, failed int)
}

// RunEntry is the per-debtor outcome returned to the cron caller.
type RunEntry struct {
	Cliente string `json:"cliente"`
	Tipo    string `json:"tipo"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type RunResult struct {
	Success   bool       `json:"success"`
	Processed int        `json:"processed"`
	Results   []RunEntry `json:"results"`
}

// CollectionService runs the cron-triggered collection pass: select due
// debtors, pick a template per escalation bucket, dedupe same-day sends,
// deliver and record every outcome.
type CollectionService struct {
	clients   ClientSelector
	templates TemplateFinder
	attempts  AttemptRecorder
	sender    SenderProvider
	notifier  RunNotifier

	sendDelay time.Duration
}

func NewCollectionService(
	clients ClientSelector,
	templates TemplateFinder,
	attempts AttemptRecorder,
	sender SenderProvider,
	notifier RunNotifier,
	sendDelay time.Duration,
) *CollectionService {
	return &CollectionService{
		clients:   clients,
		templates: templates,
		attempts:  attempts,
		sender:    sender,
		notifier:  notifier,
		sendDelay: sendDelay,
	}
}

// TargetDates returns the due dates the job selects for at the given day:
// one per escalation bucket. Debtors whose lateness falls between buckets
// are not contacted by this job.
func TargetDates(now time.Time) []time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, 0, len(domain.AllBuckets))
	for _, b := range domain.AllBuckets {
		dates = append(dates, today.AddDate(0, 0, -b.Offset()))
	}
	return dates
}

// BucketFor maps a client's due date to its escalation bucket at the given
// day, or false when it matches none of the fixed offsets.
func BucketFor(c domain.Client, now time.Time) (domain.Bucket, bool) {
	daysLate := c.DaysLate(now)
	for _, b := range domain.AllBuckets {
		if b.Offset() == daysLate {
			return b, true
		}
	}
	return "", false
}

// Run executes one automation pass for the operator. Debtors are processed
// sequentially with a fixed delay between sends to respect provider rate
// limits; every failure is scoped to a single debtor, except configuration
// errors which abort the run before any send.
func (s *CollectionService) Run(ctx context.Context, operatorID int64, now time.Time) (*RunResult, error) {
	sender, err := s.sender.SenderFor(ctx, operatorID)
	if err != nil {
		log.Printf("[AUTOMATION] run blocked for operator=%d: %v", operatorID, err)
		return nil, err
	}

	due, err := s.clients.ListDueOn(ctx, operatorID, TargetDates(now))
	if err != nil {
		return nil, fmt.Errorf("select due clients: %w", err)
	}

	result := &RunResult{Success: true, Results: []RunEntry{}}
	sent, failed := 0, 0

	for i, c := range due {
		if i > 0 && s.sendDelay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(s.sendDelay):
			}
		}

		entry := s.processClient(ctx, operatorID, c, now, sender)
		if entry == nil {
			continue // deduped, no-op for this pair today
		}

		result.Processed++
		result.Results = append(result.Results, *entry)
		if entry.Success {
			sent++
		} else {
			failed++
		}
	}

	log.Printf("[AUTOMATION] run finished for operator=%d: processed=%d sent=%d failed=%d",
		operatorID, result.Processed, sent, failed)

	if s.notifier != nil {
		s.notifier.NotifyAutomationSummary(ctx, operatorID, result.Processed, sent, failed)
	}

	return result, nil
}

func (s *CollectionService) processClient(ctx context.Context, operatorID int64, c domain.Client, now time.Time, sender TextSender) *RunEntry {
	bucket, ok := BucketFor(c, now)
	if !ok {
		// Should not happen: the selector only returns matching dates.
		log.Printf("[AUTOMATION] client=%s due date matches no bucket, skipping", c.ID)
		return nil
	}

	exists, err := s.attempts.ExistsForDay(ctx, operatorID, c.ID, bucket, now)
	if err != nil {
		return &RunEntry{Cliente: c.Name, Tipo: string(bucket), Success: false, Error: err.Error()}
	}
	if exists {
		log.Printf("[AUTOMATION] client=%s bucket=%s already contacted today, skipping", c.ID, bucket)
		return nil
	}

	tpl, err := s.templates.FindActiveByBucket(ctx, operatorID, bucket)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("[AUTOMATION] no active template for operator=%d bucket=%s, skipping client=%s", operatorID, bucket, c.ID)
			return &RunEntry{Cliente: c.Name, Tipo: string(bucket), Success: false, Error: "no active template for bucket"}
		}
		return &RunEntry{Cliente: c.Name, Tipo: string(bucket), Success: false, Error: err.Error()}
	}

	rendered := ComposeFor(tpl, c, now)

	attempt := &domain.SendAttempt{
		OperatorID: operatorID,
		ClientID:   c.ID,
		Bucket:     bucket,
		TemplateID: &tpl.ID,
		Rendered:   rendered,
	}

	providerID, sendErr := sender.SendText(ctx, c.Phone, rendered)
	if sendErr != nil {
		detail := sendErr.Error()
		attempt.Status = domain.SendStatusError
		attempt.ErrorDetail = &detail
	} else {
		attempt.Status = domain.SendStatusSent
		attempt.ProviderMessageID = &providerID
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		log.Printf("[AUTOMATION] failed to record attempt for client=%s: %v", c.ID, err)
		return &RunEntry{Cliente: c.Name, Tipo: string(bucket), Success: false, Error: err.Error()}
	}

	if sendErr != nil {
		return &RunEntry{Cliente: c.Name, Tipo: string(bucket), Success: false, Error: sendErr.Error()}
	}
	return &RunEntry{Cliente: c.Name, Tipo: string(bucket), Success: true}
}
