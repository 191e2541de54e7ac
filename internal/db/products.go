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

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const productColumns = `
	id, name, slug, description, price_paise, category_id, active, created_at, updated_at`

// Create inserts a product with its variants, images, and bulk tiers in one
// transaction.
func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO products (id, name, slug, description, price_paise, category_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.Name, p.Slug, p.Description, p.PricePaise, p.CategoryID, p.Active)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	if err := insertProductChildren(ctx, tx, p); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit product: %w", err)
	}
	return nil
}

// Update replaces the product row and its child rows.
func (s *ProductStore) Update(ctx context.Context, p *models.Product) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET name = $1, slug = $2, description = $3, price_paise = $4,
		    category_id = $5, active = $6, updated_at = NOW()
		WHERE id = $7
	`, p.Name, p.Slug, p.Description, p.PricePaise, p.CategoryID, p.Active, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s", models.ErrNotFound, p.ID)
	}

	for _, table := range []string{"product_variants", "product_images", "product_bulk_prices"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE product_id = $1`, p.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := insertProductChildren(ctx, tx, p); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit product update: %w", err)
	}
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s", models.ErrNotFound, id)
	}
	return nil
}

func (s *ProductStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadChildren(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductStore) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+productColumns+` FROM products WHERE slug = $1`, slug)
	p, err := scanProduct(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadChildren(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductStore) List(ctx context.Context, activeOnly bool) ([]*models.Product, error) {
	query := `SELECT` + productColumns + ` FROM products`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY name ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range products {
		if err := s.loadChildren(ctx, p); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (s *ProductStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	return count, err
}

func insertProductChildren(ctx context.Context, tx pgx.Tx, p *models.Product) error {
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		v.ProductID = p.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_variants (id, product_id, label, price_paise, stock)
			VALUES ($1, $2, $3, $4, $5)
		`, v.ID, v.ProductID, v.Label, v.PricePaise, v.Stock); err != nil {
			return fmt.Errorf("failed to insert variant: %w", err)
		}
	}
	for i := range p.Images {
		img := &p.Images[i]
		if img.ID == uuid.Nil {
			img.ID = uuid.New()
		}
		img.ProductID = p.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_images (id, product_id, url, position)
			VALUES ($1, $2, $3, $4)
		`, img.ID, img.ProductID, img.URL, img.Position); err != nil {
			return fmt.Errorf("failed to insert image: %w", err)
		}
	}
	for i := range p.BulkPrices {
		bp := &p.BulkPrices[i]
		if bp.ID == uuid.Nil {
			bp.ID = uuid.New()
		}
		bp.ProductID = p.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_bulk_prices (id, product_id, min_qty, unit_price_paise)
			VALUES ($1, $2, $3, $4)
		`, bp.ID, bp.ProductID, bp.MinQty, bp.UnitPricePaise); err != nil {
			return fmt.Errorf("failed to insert bulk price: %w", err)
		}
	}
	return nil
}

func (s *ProductStore) loadChildren(ctx context.Context, p *models.Product) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, label, price_paise, stock
		FROM product_variants WHERE product_id = $1 ORDER BY label
	`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load variants: %w", err)
	}
	for rows.Next() {
		var v models.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Label, &v.PricePaise, &v.Stock); err != nil {
			rows.Close()
			return err
		}
		p.Variants = append(p.Variants, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT id, product_id, url, position
		FROM product_images WHERE product_id = $1 ORDER BY position
	`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load images: %w", err)
	}
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Position); err != nil {
			rows.Close()
			return err
		}
		p.Images = append(p.Images, img)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT id, product_id, min_qty, unit_price_paise
		FROM product_bulk_prices WHERE product_id = $1 ORDER BY min_qty
	`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load bulk prices: %w", err)
	}
	for rows.Next() {
		var bp models.BulkPrice
		if err := rows.Scan(&bp.ID, &bp.ProductID, &bp.MinQty, &bp.UnitPricePaise); err != nil {
			rows.Close()
			return err
		}
		p.BulkPrices = append(p.BulkPrices, bp)
	}
	rows.Close()
	return rows.Err()
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.PricePaise,
		&p.CategoryID, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: product", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return &p, nil
}
