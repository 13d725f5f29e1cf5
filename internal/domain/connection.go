package domain

import "time"

type HealthStatus string

const (
	HealthUnknown   HealthStatus = "unknown"
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// Connection holds the WhatsApp Cloud API credentials of one operator
// account. One row per operator; health fields reflect the most recent
// probe, not an aggregate.
type Connection struct {
	OperatorID int64

	AccessToken       string
	PhoneNumberID     string
	BusinessAccountID string

	Health        HealthStatus
	LastCheckedAt *time.Time

	CreatedAt *time.Time
	UpdatedAt *time.Time
}

func (c Connection) HasCredentials() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}
