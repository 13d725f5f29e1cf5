package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

type ConnectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

func (r *ConnectionRepository) Get(ctx context.Context, operatorID int64) (*domain.Connection, error) {
	var c domain.Connection
	err := r.db.QueryRowContext(ctx, `
		SELECT operator_id, access_token, phone_number_id, business_account_id,
		       health, last_checked_at, created_at, updated_at
		FROM whatsapp_connections
		WHERE operator_id = $1
	`, operatorID).Scan(
		&c.OperatorID,
		&c.AccessToken,
		&c.PhoneNumberID,
		&c.BusinessAccountID,
		&c.Health,
		&c.LastCheckedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Upsert stores credentials for the operator. One row per operator; saving
// new credentials resets health to unknown until the next probe.
func (r *ConnectionRepository) Upsert(ctx context.Context, c *domain.Connection) error {
	if c.Health == "" {
		c.Health = domain.HealthUnknown
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO whatsapp_connections
			(operator_id, access_token, phone_number_id, business_account_id, health, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (operator_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			phone_number_id = EXCLUDED.phone_number_id,
			business_account_id = EXCLUDED.business_account_id,
			health = EXCLUDED.health,
			updated_at = now()
	`, c.OperatorID, c.AccessToken, c.PhoneNumberID, c.BusinessAccountID, domain.HealthUnknown)
	if err != nil {
		return fmt.Errorf("upsert connection: %w", err)
	}
	return nil
}

// FindOperatorByPhoneNumberID resolves which operator owns the provider
// phone number. Webhook deliveries carry no auth token, only the phone
// number id of the account they concern.
func (r *ConnectionRepository) FindOperatorByPhoneNumberID(ctx context.Context, phoneNumberID string) (int64, error) {
	var operatorID int64
	err := r.db.QueryRowContext(ctx, `
		SELECT operator_id FROM whatsapp_connections WHERE phone_number_id = $1
	`, phoneNumberID).Scan(&operatorID)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return operatorID, nil
}

// UpdateHealth records the outcome of the most recent connectivity probe.
func (r *ConnectionRepository) UpdateHealth(ctx context.Context, operatorID int64, health domain.HealthStatus, checkedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE whatsapp_connections
		SET health = $2, last_checked_at = $3, updated_at = now()
		WHERE operator_id = $1
	`, operatorID, health, checkedAt)
	if err != nil {
		return fmt.Errorf("update connection health: %w", err)
	}
	return requireRowAffected(res)
}
