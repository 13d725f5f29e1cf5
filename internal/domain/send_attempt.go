package domain

import "time"

type SendStatus string

const (
	SendStatusSent      SendStatus = "sent"
	SendStatusDelivered SendStatus = "delivered"
	SendStatusError     SendStatus = "error"
)

// SendAttempt is one logged outcome of trying to deliver a collection
// message to a client. Rows are append-only; the only mutation after the
// terminal status is written is the sent -> delivered transition driven by
// provider delivery receipts.
type SendAttempt struct {
	ID         string
	OperatorID int64
	ClientID   string

	Bucket     Bucket
	TemplateID *string
	Rendered   string

	Status            SendStatus
	ProviderMessageID *string
	ErrorDetail       *string

	CreatedAt time.Time

	// Joined for reporting.
	ClientName  *string
	ClientPhone *string
}
