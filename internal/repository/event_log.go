package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

type EventLogRepository struct {
	db *sql.DB
}

func NewEventLogRepository(db *sql.DB) *EventLogRepository {
	return &EventLogRepository{db: db}
}

func (r *EventLogRepository) Append(ctx context.Context, operatorID int64, typ domain.EventType, detail string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO whatsapp_logs (operator_id, type, detail, created_at)
		VALUES ($1, $2, $3, now())
	`, operatorID, typ, detail)
	if err != nil {
		return fmt.Errorf("append event log: %w", err)
	}
	return nil
}

func (r *EventLogRepository) List(ctx context.Context, operatorID int64, typ *domain.EventType, limit int) ([]domain.EventLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	where := []string{"operator_id = $1"}
	args := []any{operatorID}
	if typ != nil {
		where = append(where, "type = $2")
		args = append(args, *typ)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT id, operator_id, type, detail, created_at
		FROM whatsapp_logs
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d`, strings.Join(where, " AND "), len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EventLog
	for rows.Next() {
		var e domain.EventLog
		if err := rows.Scan(&e.ID, &e.OperatorID, &e.Type, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
