package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

type SendAttemptsFilter struct {
	Bucket *domain.Bucket
	Status *domain.SendStatus
	From   *time.Time
	To     *time.Time
}

type SendAttemptRepository struct {
	db *sql.DB
}

func NewSendAttemptRepository(db *sql.DB) *SendAttemptRepository {
	return &SendAttemptRepository{db: db}
}

func (r *SendAttemptRepository) Create(ctx context.Context, a *domain.SendAttempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO send_attempts
			(id, operator_id, client_id, bucket, template_id, rendered, status, provider_message_id, error_detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, a.ID, a.OperatorID, a.ClientID, a.Bucket, a.TemplateID, a.Rendered, a.Status, a.ProviderMessageID, a.ErrorDetail, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert send attempt: %w", err)
	}
	return nil
}

// ExistsForDay reports whether an attempt for (client, bucket) was already
// recorded within the calendar day containing the given time. This is the
// dedup guard: read-then-write with no transactional guarantee, which is
// acceptable while the automation job runs at most once per schedule tick.
func (r *SendAttemptRepository) ExistsForDay(ctx context.Context, operatorID int64, clientID string, bucket domain.Bucket, day time.Time) (bool, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM send_attempts
			WHERE operator_id = $1
			  AND client_id = $2
			  AND bucket = $3
			  AND created_at >= $4
			  AND created_at < $5
		)
	`, operatorID, clientID, bucket, start, end).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return exists, nil
}

// MarkDelivered transitions a sent attempt to delivered based on the
// provider message id carried by a webhook delivery receipt. Attempts in
// any other state are left untouched.
func (r *SendAttemptRepository) MarkDelivered(ctx context.Context, providerMessageID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE send_attempts
		SET status = $2
		WHERE provider_message_id = $1 AND status = $3
	`, providerMessageID, domain.SendStatusDelivered, domain.SendStatusSent)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SendAttemptRepository) List(ctx context.Context, operatorID int64, f SendAttemptsFilter) ([]domain.SendAttempt, error) {
	where := []string{"sa.operator_id = $1"}
	args := []any{operatorID}
	i := 2

	if f.Bucket != nil {
		where = append(where, fmt.Sprintf("sa.bucket = $%d", i))
		args = append(args, *f.Bucket)
		i++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("sa.status = $%d", i))
		args = append(args, *f.Status)
		i++
	}
	if f.From != nil {
		where = append(where, fmt.Sprintf("sa.created_at >= $%d", i))
		args = append(args, *f.From)
		i++
	}
	if f.To != nil {
		where = append(where, fmt.Sprintf("sa.created_at < $%d", i))
		args = append(args, *f.To)
		i++
	}

	query := `
		SELECT
			sa.id,
			sa.operator_id,
			sa.client_id,
			sa.bucket,
			sa.template_id,
			sa.rendered,
			sa.status,
			sa.provider_message_id,
			sa.error_detail,
			sa.created_at,
			c.name  AS client_name,
			c.phone AS client_phone
		FROM send_attempts sa
		LEFT JOIN clients c ON c.id = sa.client_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY sa.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SendAttempt
	for rows.Next() {
		var a domain.SendAttempt
		if err := rows.Scan(
			&a.ID,
			&a.OperatorID,
			&a.ClientID,
			&a.Bucket,
			&a.TemplateID,
			&a.Rendered,
			&a.Status,
			&a.ProviderMessageID,
			&a.ErrorDetail,
			&a.CreatedAt,
			&a.ClientName,
			&a.ClientPhone,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

type SendSummary struct {
	Total     int64
	Sent      int64
	Delivered int64
	Errors    int64
	ByBucket  map[domain.Bucket]int64
}

// Summarize aggregates attempt counts for the dashboard within [from, to).
func (r *SendAttemptRepository) Summarize(ctx context.Context, operatorID int64, from, to time.Time) (*SendSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT bucket, status, count(*)
		FROM send_attempts
		WHERE operator_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY bucket, status
	`, operatorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &SendSummary{ByBucket: make(map[domain.Bucket]int64)}
	for rows.Next() {
		var (
			bucket domain.Bucket
			status domain.SendStatus
			count  int64
		)
		if err := rows.Scan(&bucket, &status, &count); err != nil {
			return nil, err
		}

		summary.Total += count
		summary.ByBucket[bucket] += count
		switch status {
		case domain.SendStatusSent:
			summary.Sent += count
		case domain.SendStatusDelivered:
			summary.Delivered += count
		case domain.SendStatusError:
			summary.Errors += count
		}
	}
	return summary, rows.Err()
}
