package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/upikart/upikart/internal/models"
)

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `
	id, order_number, customer_id, customer_name, customer_email, customer_phone,
	order_status, payment_status, payment_method,
	subtotal_paise, discount_paise, tax_paise, shipping_paise, total_paise,
	coupon_code, shipping_address, billing_address,
	created_at, updated_at, delivered_at, cancelled_at`

// Create persists the order and its item snapshots in one transaction.
func (s *OrderStore) Create(ctx context.Context, order *models.Order) error {
	shippingJSON, err := json.Marshal(order.ShippingAddr)
	if err != nil {
		return fmt.Errorf("failed to encode shipping address: %w", err)
	}
	billingJSON, err := json.Marshal(order.BillingAddr)
	if err != nil {
		return fmt.Errorf("failed to encode billing address: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, customer_id, customer_name, customer_email, customer_phone,
			order_status, payment_status, payment_method,
			subtotal_paise, discount_paise, tax_paise, shipping_paise, total_paise,
			coupon_code, shipping_address, billing_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		order.ID, order.OrderNumber, order.CustomerID, order.CustomerName,
		order.CustomerEmail, order.CustomerPhone,
		order.Status, order.PaymentStatus, order.PaymentMethod,
		order.SubtotalPaise, order.DiscountPaise, order.TaxPaise, order.ShippingPaise,
		order.TotalPaise, order.CouponCode, shippingJSON, billingJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (
				id, order_id, product_id, variant_id, product_name, variant_label,
				quantity, unit_price_paise, subtotal_paise
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			item.ID, item.OrderID, item.ProductID, item.VariantID,
			item.ProductName, item.VariantLabel,
			item.Quantity, item.UnitPricePaise, item.SubtotalPaise,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

func (s *OrderStore) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE id = $1`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderStore) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

type OrderFilter struct {
	Status        models.OrderStatus
	PaymentStatus models.PaymentStatus
	CustomerID    uuid.UUID
	Limit         int
}

func (s *OrderStore) List(ctx context.Context, filter OrderFilter) ([]*models.Order, error) {
	query := `SELECT` + orderColumns + ` FROM orders WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND order_status = $%d", len(args))
	}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		query += fmt.Sprintf(" AND payment_status = $%d", len(args))
	}
	if filter.CustomerID != uuid.Nil {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// UpdateStatus moves an order from one status to another with a guarded
// update. The losing side of a race observes ErrInvalidStateTransition.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to models.OrderStatus) error {
	query := `UPDATE orders SET order_status = $1, updated_at = NOW()`
	switch to {
	case models.OrderDelivered:
		query += `, delivered_at = NOW()`
	case models.OrderCancelled:
		query += `, cancelled_at = NOW()`
	}
	query += ` WHERE id = $2 AND order_status = $3`

	tag, err := s.pool.Exec(ctx, query, to, orderID, from)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.classifyMiss(ctx, orderID, string(from))
	}
	return nil
}

// ForceStatus sets the status unconditionally. Permissive-mode fallback only.
func (s *OrderStore) ForceStatus(ctx context.Context, orderID uuid.UUID, to models.OrderStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE orders SET order_status = $1, updated_at = NOW() WHERE id = $2`, to, orderID)
	if err != nil {
		return fmt.Errorf("failed to set order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %s", models.ErrNotFound, orderID)
	}
	return nil
}

// SetPaymentStatus is a compare-and-set on payment_status.
func (s *OrderStore) SetPaymentStatus(ctx context.Context, orderID uuid.UUID, from, to models.PaymentStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders SET payment_status = $1, updated_at = NOW()
		WHERE id = $2 AND payment_status = $3
	`, to, orderID, from)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.classifyMiss(ctx, orderID, string(from))
	}
	return nil
}

// classifyMiss distinguishes a missing order from a status guard failure.
func (s *OrderStore) classifyMiss(ctx context.Context, orderID uuid.UUID, expected string) error {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: order %s", models.ErrNotFound, orderID)
	}
	return fmt.Errorf("%w: expected %s", models.ErrInvalidStateTransition, expected)
}

func (s *OrderStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count)
	return count, err
}

func (s *OrderStore) CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT order_status, COUNT(*) FROM orders GROUP BY order_status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.OrderStatus]int64)
	for rows.Next() {
		var status models.OrderStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// RevenuePaise sums the totals of paid orders.
func (s *OrderStore) RevenuePaise(ctx context.Context) (int64, error) {
	var revenue int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_paise), 0) FROM orders WHERE payment_status = $1`,
		models.PaymentPaid).Scan(&revenue)
	return revenue, err
}

func (s *OrderStore) loadItems(ctx context.Context, order *models.Order) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, product_id, variant_id, product_name, variant_label,
		       quantity, unit_price_paise, subtotal_paise
		FROM order_items WHERE order_id = $1
	`, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.VariantID,
			&item.ProductName, &item.VariantLabel,
			&item.Quantity, &item.UnitPricePaise, &item.SubtotalPaise,
		); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order                    models.Order
		shippingJSON, billingJSON []byte
		deliveredAt, cancelledAt *time.Time
	)
	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.CustomerID, &order.CustomerName,
		&order.CustomerEmail, &order.CustomerPhone,
		&order.Status, &order.PaymentStatus, &order.PaymentMethod,
		&order.SubtotalPaise, &order.DiscountPaise, &order.TaxPaise,
		&order.ShippingPaise, &order.TotalPaise,
		&order.CouponCode, &shippingJSON, &billingJSON,
		&order.CreatedAt, &order.UpdatedAt, &deliveredAt, &cancelledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: order", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	if err := json.Unmarshal(shippingJSON, &order.ShippingAddr); err != nil {
		return nil, fmt.Errorf("failed to decode shipping address: %w", err)
	}
	if err := json.Unmarshal(billingJSON, &order.BillingAddr); err != nil {
		return nil, fmt.Errorf("failed to decode billing address: %w", err)
	}
	if deliveredAt != nil {
		order.DeliveredAt = *deliveredAt
	}
	if cancelledAt != nil {
		order.CancelledAt = *cancelledAt
	}
	return &order, nil
}
