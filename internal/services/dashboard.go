package services

import (
	"context"

	"github.com/upikart/upikart/internal/models"
)

type orderCounter interface {
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error)
	RevenuePaise(ctx context.Context) (int64, error)
}

type pendingCounter interface {
	CountPending(ctx context.Context) (int64, error)
}

type openReturnCounter interface {
	CountOpen(ctx context.Context) (int64, error)
}

type customerCounter interface {
	Count(ctx context.Context) (int64, error)
}

type productCounter interface {
	Count(ctx context.Context) (int64, error)
}

// DashboardService aggregates the admin overview numbers.
type DashboardService struct {
	orders        orderCounter
	verifications pendingCounter
	returns       openReturnCounter
	customers     customerCounter
	products      productCounter
}

func NewDashboardService(
	orders orderCounter,
	verifications pendingCounter,
	returns openReturnCounter,
	customers customerCounter,
	products productCounter,
) *DashboardService {
	return &DashboardService{
		orders:        orders,
		verifications: verifications,
		returns:       returns,
		customers:     customers,
		products:      products,
	}
}

type DashboardStats struct {
	Orders               int64                        `json:"orders"`
	OrdersByStatus       map[models.OrderStatus]int64 `json:"orders_by_status"`
	RevenuePaise         int64                        `json:"revenue_paise"`
	PendingVerifications int64                        `json:"pending_verifications"`
	OpenReturns          int64                        `json:"open_returns"`
	Customers            int64                        `json:"customers"`
	Products             int64                        `json:"products"`
}

func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	var err error
	if stats.Orders, err = s.orders.Count(ctx); err != nil {
		return nil, err
	}
	if stats.OrdersByStatus, err = s.orders.CountByStatus(ctx); err != nil {
		return nil, err
	}
	if stats.RevenuePaise, err = s.orders.RevenuePaise(ctx); err != nil {
		return nil, err
	}
	if stats.PendingVerifications, err = s.verifications.CountPending(ctx); err != nil {
		return nil, err
	}
	if stats.OpenReturns, err = s.returns.CountOpen(ctx); err != nil {
		return nil, err
	}
	if stats.Customers, err = s.customers.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Products, err = s.products.Count(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}
