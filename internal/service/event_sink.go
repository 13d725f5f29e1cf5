package service

import (
	"context"
	"log"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

type EventLogStore interface {
	Append(ctx context.Context, operatorID int64, typ domain.EventType, detail string) error
}

// EventLogSink persists messaging-integration events for one operator.
// Implements whatsapp.EventSink; audit writes are best-effort and never
// fail the operation that produced them.
type EventLogSink struct {
	store      EventLogStore
	operatorID int64
}

func NewEventLogSink(store EventLogStore, operatorID int64) *EventLogSink {
	return &EventLogSink{store: store, operatorID: operatorID}
}

func (s *EventLogSink) LogEvent(ctx context.Context, typ domain.EventType, detail string) {
	if err := s.store.Append(ctx, s.operatorID, typ, detail); err != nil {
		log.Printf("[WHATSAPP] event log write failed (operator=%d type=%s): %v", s.operatorID, typ, err)
	}
}
