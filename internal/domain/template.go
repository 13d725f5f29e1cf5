package domain

import "time"

// MessageTemplate holds the placeholder text sent for one escalation bucket.
// Placeholders ({{nome}}, {{valor}}, {{data_vencimento}}, {{dias_atraso}})
// are replaced by literal substring substitution, so template authors must
// avoid conflicting substrings.
type MessageTemplate struct {
	ID         string
	OperatorID int64

	Bucket Bucket
	Name   string
	Body   string
	Active bool

	CreatedAt *time.Time
	UpdatedAt *time.Time
}
