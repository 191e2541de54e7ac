package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/upikart/upikart/internal/models"
)

type CouponStore struct {
	pool *pgxpool.Pool
}

func NewCouponStore(pool *pgxpool.Pool) *CouponStore {
	return &CouponStore{pool: pool}
}

const couponColumns = `
	id, code, type, value, min_order_paise, max_discount_paise,
	active, valid_from, valid_until, created_at`

func (s *CouponStore) Create(ctx context.Context, c *models.Coupon) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO coupons (id, code, type, value, min_order_paise, max_discount_paise, active, valid_from, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		c.ID, strings.ToUpper(c.Code), c.Type, c.Value, c.MinOrderPaise,
		c.MaxDiscountPaise, c.Active, nullableTime(c.ValidFrom), nullableTime(c.ValidUntil),
	)
	if err != nil {
		return fmt.Errorf("failed to insert coupon: %w", err)
	}
	return nil
}

func (s *CouponStore) Update(ctx context.Context, c *models.Coupon) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE coupons
		SET code = $1, type = $2, value = $3, min_order_paise = $4,
		    max_discount_paise = $5, active = $6, valid_from = $7, valid_until = $8
		WHERE id = $9
	`,
		strings.ToUpper(c.Code), c.Type, c.Value, c.MinOrderPaise,
		c.MaxDiscountPaise, c.Active, nullableTime(c.ValidFrom), nullableTime(c.ValidUntil), c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: coupon %s", models.ErrNotFound, c.ID)
	}
	return nil
}

func (s *CouponStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: coupon %s", models.ErrNotFound, id)
	}
	return nil
}

func (s *CouponStore) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+couponColumns+` FROM coupons WHERE code = $1`, strings.ToUpper(code))
	return scanCoupon(row)
}

func (s *CouponStore) List(ctx context.Context) ([]*models.Coupon, error) {
	rows, err := s.pool.Query(ctx, `SELECT`+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []*models.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func scanCoupon(row pgx.Row) (*models.Coupon, error) {
	var (
		c                     models.Coupon
		validFrom, validUntil *time.Time
	)
	err := row.Scan(
		&c.ID, &c.Code, &c.Type, &c.Value, &c.MinOrderPaise, &c.MaxDiscountPaise,
		&c.Active, &validFrom, &validUntil, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: coupon", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan coupon: %w", err)
	}
	if validFrom != nil {
		c.ValidFrom = *validFrom
	}
	if validUntil != nil {
		c.ValidUntil = *validUntil
	}
	return &c, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
