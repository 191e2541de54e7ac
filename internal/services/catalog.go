package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/upikart/upikart/internal/catalog"
	"github.com/upikart/upikart/internal/logging"
	"github.com/upikart/upikart/internal/models"
)

type productStore interface {
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Product, error)
}

type categoryStore interface {
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
}

type offerStore interface {
	Create(ctx context.Context, o *models.Offer) error
	Update(ctx context.Context, o *models.Offer) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool) ([]*models.Offer, error)
}

// CatalogService backs the storefront catalog reads, the admin catalog CRUD,
// and YAML seed imports.
type CatalogService struct {
	products   productStore
	categories categoryStore
	offers     offerStore
	coupons    couponStore
	parser     *catalog.Parser
	validator  *catalog.Validator
	logger     *slog.Logger
}

func NewCatalogService(
	products productStore,
	categories categoryStore,
	offers offerStore,
	coupons couponStore,
	parser *catalog.Parser,
	validator *catalog.Validator,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		products:   products,
		categories: categories,
		offers:     offers,
		coupons:    coupons,
		parser:     parser,
		validator:  validator,
		logger:     logger,
	}
}

func (s *CatalogService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

func (s *CatalogService) Products(ctx context.Context, activeOnly bool) ([]*models.Product, error) {
	return s.products.List(ctx, activeOnly)
}

func (s *CatalogService) ProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *CatalogService) ProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.products.GetBySlug(ctx, strings.TrimSpace(slug))
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return s.products.Create(ctx, p)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	return s.products.Update(ctx, p)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.products.Delete(ctx, id)
}

func (s *CatalogService) Categories(ctx context.Context) ([]*models.Category, error) {
	return s.categories.List(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, c *models.Category) error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Slug) == "" {
		return models.Validationf("category name and slug are required")
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return s.categories.Create(ctx, c)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, c *models.Category) error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Slug) == "" {
		return models.Validationf("category name and slug are required")
	}
	return s.categories.Update(ctx, c)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categories.Delete(ctx, id)
}

func (s *CatalogService) Offers(ctx context.Context, activeOnly bool) ([]*models.Offer, error) {
	return s.offers.List(ctx, activeOnly)
}

func (s *CatalogService) CreateOffer(ctx context.Context, o *models.Offer) error {
	if err := validateOffer(o); err != nil {
		return err
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return s.offers.Create(ctx, o)
}

func (s *CatalogService) UpdateOffer(ctx context.Context, o *models.Offer) error {
	if err := validateOffer(o); err != nil {
		return err
	}
	return s.offers.Update(ctx, o)
}

func (s *CatalogService) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	return s.offers.Delete(ctx, id)
}

// ImportStats counts the records written by a seed import.
type ImportStats struct {
	Categories int `json:"categories"`
	Products   int `json:"products"`
	Coupons    int `json:"coupons"`
	Offers     int `json:"offers"`
}

// ImportSeed parses, validates, and applies a YAML catalog seed. Categories
// and products are matched by slug and coupons by code, so re-importing the
// same file is an update, not a duplicate.
func (s *CatalogService) ImportSeed(ctx context.Context, content []byte) (*ImportStats, error) {
	seed, err := s.parser.Parse(content)
	if err != nil {
		return nil, models.Validationf("%v", err)
	}
	if err := s.validator.Validate(seed); err != nil {
		return nil, models.Validationf("%v", err)
	}

	stats := &ImportStats{}

	categoryIDs := make(map[string]uuid.UUID, len(seed.Categories))
	for _, cs := range seed.Categories {
		existing, err := s.categories.GetBySlug(ctx, cs.Slug)
		switch {
		case err == nil:
			existing.Name = cs.Name
			existing.Active = cs.Active
			if err := s.categories.Update(ctx, existing); err != nil {
				return nil, err
			}
			categoryIDs[cs.Slug] = existing.ID
		case errors.Is(err, models.ErrNotFound):
			c := &models.Category{ID: uuid.New(), Name: cs.Name, Slug: cs.Slug, Active: cs.Active}
			if err := s.categories.Create(ctx, c); err != nil {
				return nil, err
			}
			categoryIDs[cs.Slug] = c.ID
		default:
			return nil, err
		}
		stats.Categories++
	}

	productIDs := make(map[string]uuid.UUID, len(seed.Products))
	for _, ps := range seed.Products {
		p := seedProduct(ps, categoryIDs)

		existing, err := s.products.GetBySlug(ctx, ps.Slug)
		switch {
		case err == nil:
			p.ID = existing.ID
			if err := s.products.Update(ctx, p); err != nil {
				return nil, err
			}
		case errors.Is(err, models.ErrNotFound):
			p.ID = uuid.New()
			if err := s.products.Create(ctx, p); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
		productIDs[ps.Slug] = p.ID
		stats.Products++
	}

	existingCoupons, err := s.coupons.List(ctx)
	if err != nil {
		return nil, err
	}
	couponsByCode := make(map[string]*models.Coupon, len(existingCoupons))
	for _, c := range existingCoupons {
		couponsByCode[c.Code] = c
	}
	for _, cs := range seed.Coupons {
		coupon := &models.Coupon{
			Code:             strings.ToUpper(strings.TrimSpace(cs.Code)),
			Type:             models.CouponType(cs.Type),
			Value:            cs.Value,
			MinOrderPaise:    cs.MinOrderPaise,
			MaxDiscountPaise: cs.MaxDiscountPaise,
			Active:           cs.Active,
		}
		if existing, ok := couponsByCode[coupon.Code]; ok {
			coupon.ID = existing.ID
			if err := s.coupons.Update(ctx, coupon); err != nil {
				return nil, err
			}
		} else {
			coupon.ID = uuid.New()
			if err := s.coupons.Create(ctx, coupon); err != nil {
				return nil, err
			}
		}
		stats.Coupons++
	}

	existingOffers, err := s.offers.List(ctx, false)
	if err != nil {
		return nil, err
	}
	offersByTitle := make(map[string]*models.Offer, len(existingOffers))
	for _, o := range existingOffers {
		offersByTitle[o.Title] = o
	}
	for _, os := range seed.Offers {
		offer := &models.Offer{
			Title:           os.Title,
			Description:     os.Description,
			DiscountPercent: os.DiscountPercent,
			Active:          os.Active,
		}
		if os.ProductSlug != "" {
			id := productIDs[os.ProductSlug]
			offer.ProductID = &id
		}
		if existing, ok := offersByTitle[offer.Title]; ok {
			offer.ID = existing.ID
			if err := s.offers.Update(ctx, offer); err != nil {
				return nil, err
			}
		} else {
			offer.ID = uuid.New()
			if err := s.offers.Create(ctx, offer); err != nil {
				return nil, err
			}
		}
		stats.Offers++
	}

	s.loggerFromContext(ctx).Info("catalog seed imported",
		"categories", stats.Categories, "products", stats.Products,
		"coupons", stats.Coupons, "offers", stats.Offers)
	return stats, nil
}

func seedProduct(ps catalog.ProductSeed, categoryIDs map[string]uuid.UUID) *models.Product {
	p := &models.Product{
		Name:        ps.Name,
		Slug:        ps.Slug,
		Description: ps.Description,
		PricePaise:  ps.PricePaise,
		Active:      ps.Active,
	}
	if ps.CategorySlug != "" {
		if id, ok := categoryIDs[ps.CategorySlug]; ok {
			p.CategoryID = &id
		}
	}
	for _, vs := range ps.Variants {
		p.Variants = append(p.Variants, models.Variant{
			Label:      vs.Label,
			PricePaise: vs.PricePaise,
			Stock:      vs.Stock,
		})
	}
	for i, url := range ps.Images {
		p.Images = append(p.Images, models.Image{URL: url, Position: i})
	}
	for _, bs := range ps.BulkPrices {
		p.BulkPrices = append(p.BulkPrices, models.BulkPrice{
			MinQty:         bs.MinQty,
			UnitPricePaise: bs.UnitPricePaise,
		})
	}
	return p
}

func validateProduct(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Slug) == "" {
		return models.Validationf("product name and slug are required")
	}
	if p.PricePaise < 0 {
		return models.Validationf("product price must be non-negative")
	}
	for _, v := range p.Variants {
		if strings.TrimSpace(v.Label) == "" {
			return models.Validationf("variant label is required")
		}
		if v.PricePaise < 0 {
			return models.Validationf("variant price must be non-negative")
		}
	}
	lastMin := 0
	for _, tier := range p.BulkPrices {
		if tier.MinQty <= lastMin {
			return models.Validationf("bulk tiers must have strictly increasing min_qty")
		}
		if tier.UnitPricePaise < 0 {
			return models.Validationf("bulk tier price must be non-negative")
		}
		lastMin = tier.MinQty
	}
	return nil
}

func validateOffer(o *models.Offer) error {
	if strings.TrimSpace(o.Title) == "" {
		return models.Validationf("offer title is required")
	}
	if o.DiscountPercent <= 0 || o.DiscountPercent > 100 {
		return models.Validationf("offer discount percent must be within (0, 100]")
	}
	if !o.StartsAt.IsZero() && !o.EndsAt.IsZero() && o.EndsAt.Before(o.StartsAt) {
		return models.Validationf("offer window is inverted")
	}
	return nil
}
