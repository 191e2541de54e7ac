package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/upikart/upikart/internal/models"
)

type ReturnStore struct {
	pool *pgxpool.Pool
}

func NewReturnStore(pool *pgxpool.Pool) *ReturnStore {
	return &ReturnStore{pool: pool}
}

const returnColumns = `
	id, order_id, customer_id, reason, refund_paise,
	return_status, refund_status, created_at, updated_at`

func (s *ReturnStore) Create(ctx context.Context, ret *models.Return) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO returns (id, order_id, customer_id, reason, refund_paise, return_status, refund_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		ret.ID, ret.OrderID, ret.CustomerID, ret.Reason, ret.RefundPaise,
		models.ReturnRequested, models.RefundPending,
	)
	if err != nil {
		return fmt.Errorf("failed to insert return: %w", err)
	}
	ret.Status = models.ReturnRequested
	ret.RefundStatus = models.RefundPending
	return nil
}

func (s *ReturnStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+returnColumns+` FROM returns WHERE id = $1`, id)
	return scanReturn(row)
}

func (s *ReturnStore) List(ctx context.Context, status models.ReturnStatus) ([]*models.Return, error) {
	query := `SELECT` + returnColumns + ` FROM returns`
	args := []any{}
	if status != "" {
		query += ` WHERE return_status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list returns: %w", err)
	}
	defer rows.Close()

	var returns []*models.Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		returns = append(returns, ret)
	}
	return returns, rows.Err()
}

// UpdateStatus moves a return between statuses with a guarded update and
// keeps the refund status in lockstep.
func (s *ReturnStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ReturnStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE returns SET return_status = $1, refund_status = $2, updated_at = NOW()
		WHERE id = $3 AND return_status = $4
	`, to, models.RefundStatusFor(to), id, from)
	if err != nil {
		return fmt.Errorf("failed to update return status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM returns WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check return: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: return %s", models.ErrNotFound, id)
		}
		return fmt.Errorf("%w: expected %s", models.ErrInvalidStateTransition, from)
	}
	return nil
}

// ForceStatus sets the status unconditionally. Permissive-mode fallback only.
func (s *ReturnStore) ForceStatus(ctx context.Context, id uuid.UUID, to models.ReturnStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE returns SET return_status = $1, refund_status = $2, updated_at = NOW()
		WHERE id = $3
	`, to, models.RefundStatusFor(to), id)
	if err != nil {
		return fmt.Errorf("failed to set return status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: return %s", models.ErrNotFound, id)
	}
	return nil
}

func (s *ReturnStore) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM returns WHERE return_status NOT IN ($1, $2)
	`, models.ReturnRejected, models.ReturnCompleted).Scan(&count)
	return count, err
}

func scanReturn(row pgx.Row) (*models.Return, error) {
	var ret models.Return
	err := row.Scan(
		&ret.ID, &ret.OrderID, &ret.CustomerID, &ret.Reason, &ret.RefundPaise,
		&ret.Status, &ret.RefundStatus, &ret.CreatedAt, &ret.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: return", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan return: %w", err)
	}
	return &ret, nil
}
