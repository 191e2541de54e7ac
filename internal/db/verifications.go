package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/upikart/upikart/internal/models"
)

// VerificationStore owns payment verification records and the cascade onto
// the parent order's payment status. The verify/reject mutations are single
// transactions with a compare-and-set on verification_status: of two
// concurrent decisions on the same record exactly one commits, the other
// observes ErrInvalidStateTransition.
type VerificationStore struct {
	pool *pgxpool.Pool
}

func NewVerificationStore(pool *pgxpool.Pool) *VerificationStore {
	return &VerificationStore{pool: pool}
}

const verificationColumns = `
	id, order_id, transaction_id, payment_method, amount_paise,
	customer_name, customer_email, customer_phone, screenshot,
	verification_status, admin_notes, rejection_reason,
	submitted_at, verified_at, verified_by`

const uniqueViolation = "23505"

// Create inserts a pending verification after validating the parent order
// inside the same transaction: the order must exist and must be awaiting
// payment (pending_verification, or failed for a resubmission, which is
// flipped back to pending_verification here). The partial unique index on
// pending records turns a duplicate submission race into
// ErrInvalidStateTransition.
func (s *VerificationStore) Create(ctx context.Context, v *models.PaymentVerification) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var paymentStatus models.PaymentStatus
	err = tx.QueryRow(ctx,
		`SELECT payment_status FROM orders WHERE id = $1 FOR UPDATE`, v.OrderID,
	).Scan(&paymentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: order %s", models.ErrNotFound, v.OrderID)
	}
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}

	switch paymentStatus {
	case models.PaymentPendingVerification:
		// first submission
	case models.PaymentFailed:
		// resubmission after a rejection re-opens the payment
		if _, err := tx.Exec(ctx, `
			UPDATE orders SET payment_status = $1, updated_at = NOW() WHERE id = $2
		`, models.PaymentPendingVerification, v.OrderID); err != nil {
			return fmt.Errorf("failed to reopen order payment: %w", err)
		}
	default:
		return fmt.Errorf("%w: order payment is %s", models.ErrInvalidStateTransition, paymentStatus)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payment_verifications (
			id, order_id, transaction_id, payment_method, amount_paise,
			customer_name, customer_email, customer_phone, screenshot,
			verification_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		v.ID, v.OrderID, v.TransactionID, v.PaymentMethod, v.AmountPaise,
		v.CustomerName, v.CustomerEmail, v.CustomerPhone, v.Screenshot,
		models.VerificationPending,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: a pending verification already exists for this order", models.ErrInvalidStateTransition)
		}
		return fmt.Errorf("failed to insert verification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit verification: %w", err)
	}
	v.Status = models.VerificationPending
	return nil
}

func (s *VerificationStore) GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentVerification, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+verificationColumns+` FROM payment_verifications WHERE id = $1`, id)
	return scanVerification(row)
}

func (s *VerificationStore) ListByStatus(ctx context.Context, status models.VerificationStatus) ([]*models.PaymentVerification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT`+verificationColumns+`
		FROM payment_verifications
		WHERE verification_status = $1
		ORDER BY submitted_at ASC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list verifications: %w", err)
	}
	defer rows.Close()

	var records []*models.PaymentVerification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, v)
	}
	return records, rows.Err()
}

// MarkVerified commits pending -> verified and cascades the parent order to
// paid, in one transaction. The order's order_status is untouched.
func (s *VerificationStore) MarkVerified(ctx context.Context, id uuid.UUID, adminID, notes string) (*models.PaymentVerification, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE payment_verifications
		SET verification_status = $1, admin_notes = $2, verified_at = NOW(), verified_by = $3
		WHERE id = $4 AND verification_status = $5
		RETURNING`+verificationColumns+`
	`, models.VerificationVerified, notes, adminID, id, models.VerificationPending)

	v, err := scanVerification(row)
	if errors.Is(err, models.ErrNotFound) {
		return nil, s.classifyMiss(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET payment_status = $1, updated_at = NOW()
		WHERE id = $2 AND payment_status = $3
	`, models.PaymentPaid, v.OrderID, models.PaymentPendingVerification)
	if err != nil {
		return nil, fmt.Errorf("failed to cascade payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: order payment is not pending verification", models.ErrInvalidStateTransition)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit verification decision: %w", err)
	}
	return v, nil
}

// MarkRejected commits pending -> rejected with the reason and cascades the
// parent order to failed, in one transaction.
func (s *VerificationStore) MarkRejected(ctx context.Context, id uuid.UUID, adminID, reason string) (*models.PaymentVerification, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE payment_verifications
		SET verification_status = $1, rejection_reason = $2, verified_at = NOW(), verified_by = $3
		WHERE id = $4 AND verification_status = $5
		RETURNING`+verificationColumns+`
	`, models.VerificationRejected, reason, adminID, id, models.VerificationPending)

	v, err := scanVerification(row)
	if errors.Is(err, models.ErrNotFound) {
		return nil, s.classifyMiss(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET payment_status = $1, updated_at = NOW()
		WHERE id = $2 AND payment_status = $3
	`, models.PaymentFailed, v.OrderID, models.PaymentPendingVerification)
	if err != nil {
		return nil, fmt.Errorf("failed to cascade payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: order payment is not pending verification", models.ErrInvalidStateTransition)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit verification decision: %w", err)
	}
	return v, nil
}

func (s *VerificationStore) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM payment_verifications WHERE verification_status = $1`,
		models.VerificationPending).Scan(&count)
	return count, err
}

func (s *VerificationStore) classifyMiss(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payment_verifications WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check verification: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: verification %s", models.ErrNotFound, id)
	}
	return fmt.Errorf("%w: verification is not pending", models.ErrInvalidStateTransition)
}

func scanVerification(row pgx.Row) (*models.PaymentVerification, error) {
	var (
		v          models.PaymentVerification
		verifiedAt *time.Time
	)
	err := row.Scan(
		&v.ID, &v.OrderID, &v.TransactionID, &v.PaymentMethod, &v.AmountPaise,
		&v.CustomerName, &v.CustomerEmail, &v.CustomerPhone, &v.Screenshot,
		&v.Status, &v.AdminNotes, &v.RejectionReason,
		&v.SubmittedAt, &verifiedAt, &v.VerifiedBy,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: verification", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan verification: %w", err)
	}
	if verifiedAt != nil {
		v.VerifiedAt = *verifiedAt
	}
	return &v, nil
}
