package domain

import "time"

type EventType string

const (
	EventConnection EventType = "connection"
	EventMessage    EventType = "message"
	EventError      EventType = "error"
	EventSystem     EventType = "system"
	EventWebhook    EventType = "webhook"
)

// EventLog is one entry of the messaging integration audit trail. Every
// connection attempt, message send and webhook callback is recorded here
// regardless of outcome.
type EventLog struct {
	ID         int64
	OperatorID int64
	Type       EventType
	Detail     string
	CreatedAt  time.Time
}
