package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samu-svg/debt-wise-flow-sub001/internal/domain"
)

var ErrNotFound = errors.New("not found")

type ClientsFilter struct {
	Status *domain.ClientStatus
	Search *string
}

type ClientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientColumns = `id, operator_id, name, phone, debt_amount, due_date, status, created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }) (domain.Client, error) {
	var c domain.Client
	err := row.Scan(
		&c.ID,
		&c.OperatorID,
		&c.Name,
		&c.Phone,
		&c.DebtAmount,
		&c.DueDate,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func (r *ClientRepository) Create(ctx context.Context, c *domain.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = domain.ClientStatusPending
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, operator_id, name, phone, debt_amount, due_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
	`, c.ID, c.OperatorID, c.Name, c.Phone, c.DebtAmount, c.DueDate, c.Status)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *ClientRepository) GetByID(ctx context.Context, operatorID int64, id string) (*domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE id = $1 AND operator_id = $2
	`, id, operatorID)

	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) List(ctx context.Context, operatorID int64, f ClientsFilter) ([]domain.Client, error) {
	where := []string{"operator_id = $1"}
	args := []any{operatorID}
	i := 2

	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", i))
		args = append(args, *f.Status)
		i++
	}
	if f.Search != nil && *f.Search != "" {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR phone LIKE $%d)", i, i))
		args = append(args, "%"+*f.Search+"%")
		i++
	}

	query := `SELECT ` + clientColumns + ` FROM clients WHERE ` + strings.Join(where, " AND ") + ` ORDER BY due_date ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// ListDueOn returns pending clients whose due date falls on one of the
// target calendar dates. The whole batch is loaded at once; collection
// runs are small enough that pagination is not worth it here.
func (r *ClientRepository) ListDueOn(ctx context.Context, operatorID int64, dates []time.Time) ([]domain.Client, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	placeholders := make([]string, 0, len(dates))
	args := []any{operatorID, domain.ClientStatusPending}
	for i, d := range dates {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+3))
		args = append(args, d.Format("2006-01-02"))
	}

	query := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE operator_id = $1
		  AND status = $2
		  AND due_date IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY due_date ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *ClientRepository) Update(ctx context.Context, c *domain.Client) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clients
		SET name = $3, phone = $4, debt_amount = $5, due_date = $6, status = $7, updated_at = now()
		WHERE id = $1 AND operator_id = $2
	`, c.ID, c.OperatorID, c.Name, c.Phone, c.DebtAmount, c.DueDate, c.Status)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return requireRowAffected(res)
}

// MarkPaid records payment for a client; paid clients are never selected
// by the automation job again.
func (r *ClientRepository) MarkPaid(ctx context.Context, operatorID int64, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clients
		SET status = $3, updated_at = now()
		WHERE id = $1 AND operator_id = $2
	`, id, operatorID, domain.ClientStatusPaid)
	if err != nil {
		return fmt.Errorf("mark client paid: %w", err)
	}
	return requireRowAffected(res)
}

func (r *ClientRepository) Delete(ctx context.Context, operatorID int64, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM clients WHERE id = $1 AND operator_id = $2
	`, id, operatorID)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return requireRowAffected(res)
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
