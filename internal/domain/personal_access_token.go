package domain

import "time"

// PersonalAccessToken authenticates one operator API client. Tokens are
// stored hashed; the plain token is only seen at issue time.
type PersonalAccessToken struct {
	ID         int64
	TokenHash  string
	OperatorID int64
	Abilities  string
	ExpiresAt  *time.Time
}
