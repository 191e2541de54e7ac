package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/upikart/upikart/internal/models"
)

type OfferStore struct {
	pool *pgxpool.Pool
}

func NewOfferStore(pool *pgxpool.Pool) *OfferStore {
	return &OfferStore{pool: pool}
}

const offerColumns = `
	id, title, description, discount_percent, product_id, active, starts_at, ends_at, created_at`

func (s *OfferStore) Create(ctx context.Context, o *models.Offer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO offers (id, title, description, discount_percent, product_id, active, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		o.ID, o.Title, o.Description, o.DiscountPercent, o.ProductID, o.Active,
		nullableTime(o.StartsAt), nullableTime(o.EndsAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert offer: %w", err)
	}
	return nil
}

func (s *OfferStore) Update(ctx context.Context, o *models.Offer) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE offers
		SET title = $1, description = $2, discount_percent = $3, product_id = $4,
		    active = $5, starts_at = $6, ends_at = $7
		WHERE id = $8
	`,
		o.Title, o.Description, o.DiscountPercent, o.ProductID, o.Active,
		nullableTime(o.StartsAt), nullableTime(o.EndsAt), o.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: offer %s", models.ErrNotFound, o.ID)
	}
	return nil
}

func (s *OfferStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: offer %s", models.ErrNotFound, id)
	}
	return nil
}

func (s *OfferStore) List(ctx context.Context, activeOnly bool) ([]*models.Offer, error) {
	query := `SELECT` + offerColumns + ` FROM offers`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	var offers []*models.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func scanOffer(row pgx.Row) (*models.Offer, error) {
	var (
		o                models.Offer
		startsAt, endsAt *time.Time
	)
	err := row.Scan(
		&o.ID, &o.Title, &o.Description, &o.DiscountPercent, &o.ProductID,
		&o.Active, &startsAt, &endsAt, &o.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: offer", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan offer: %w", err)
	}
	if startsAt != nil {
		o.StartsAt = *startsAt
	}
	if endsAt != nil {
		o.EndsAt = *endsAt
	}
	return &o, nil
}
