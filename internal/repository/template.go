package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

type TemplateRepository struct {
	db *sql.DB
}

func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateColumns = `id, operator_id, bucket, name, body, active, created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (domain.MessageTemplate, error) {
	var t domain.MessageTemplate
	err := row.Scan(
		&t.ID,
		&t.OperatorID,
		&t.Bucket,
		&t.Name,
		&t.Body,
		&t.Active,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func (r *TemplateRepository) Create(ctx context.Context, t *domain.MessageTemplate) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO message_templates (id, operator_id, bucket, name, body, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
	`, t.ID, t.OperatorID, t.Bucket, t.Name, t.Body, t.Active)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

func (r *TemplateRepository) List(ctx context.Context, operatorID int64) ([]domain.MessageTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+templateColumns+`
		FROM message_templates
		WHERE operator_id = $1
		ORDER BY bucket, name
	`, operatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MessageTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// FindActiveByBucket returns the active template for one escalation stage.
// When the operator keeps several active templates in the same bucket the
// most recently updated one wins.
func (r *TemplateRepository) FindActiveByBucket(ctx context.Context, operatorID int64, bucket domain.Bucket) (*domain.MessageTemplate, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+templateColumns+`
		FROM message_templates
		WHERE operator_id = $1 AND bucket = $2 AND active = true
		ORDER BY updated_at DESC
		LIMIT 1
	`, operatorID, bucket)

	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) Update(ctx context.Context, t *domain.MessageTemplate) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE message_templates
		SET bucket = $3, name = $4, body = $5, active = $6, updated_at = now()
		WHERE id = $1 AND operator_id = $2
	`, t.ID, t.OperatorID, t.Bucket, t.Name, t.Body, t.Active)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return requireRowAffected(res)
}

func (r *TemplateRepository) Delete(ctx context.Context, operatorID int64, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM message_templates WHERE id = $1 AND operator_id = $2
	`, id, operatorID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return requireRowAffected(res)
}
