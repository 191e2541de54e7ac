// Package catalog parses and validates catalog seed files.
package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML document imported through the admin catalog import
// endpoint or the migrate command.
type Seed struct {
	Categories []CategorySeed `yaml:"categories"`
	Products   []ProductSeed  `yaml:"products"`
	Coupons    []CouponSeed   `yaml:"coupons"`
	Offers     []OfferSeed    `yaml:"offers"`
}

type CategorySeed struct {
	Name   string `yaml:"name"`
	Slug   string `yaml:"slug"`
	Active bool   `yaml:"active"`
}

type ProductSeed struct {
	Name         string          `yaml:"name"`
	Slug         string          `yaml:"slug"`
	Description  string          `yaml:"description"`
	PricePaise   int64           `yaml:"price_paise"`
	CategorySlug string          `yaml:"category"`
	Active       bool            `yaml:"active"`
	Variants     []VariantSeed   `yaml:"variants"`
	Images       []string        `yaml:"images"`
	BulkPrices   []BulkPriceSeed `yaml:"bulk_prices"`
}

type VariantSeed struct {
	Label      string `yaml:"label"`
	PricePaise int64  `yaml:"price_paise"`
	Stock      int    `yaml:"stock"`
}

type BulkPriceSeed struct {
	MinQty         int   `yaml:"min_qty"`
	UnitPricePaise int64 `yaml:"unit_price_paise"`
}

type CouponSeed struct {
	Code             string `yaml:"code"`
	Type             string `yaml:"type"`
	Value            int64  `yaml:"value"`
	MinOrderPaise    int64  `yaml:"min_order_paise"`
	MaxDiscountPaise int64  `yaml:"max_discount_paise"`
	Active           bool   `yaml:"active"`
}

type OfferSeed struct {
	Title           string `yaml:"title"`
	Description     string `yaml:"description"`
	DiscountPercent int    `yaml:"discount_percent"`
	ProductSlug     string `yaml:"product"`
	Active          bool   `yaml:"active"`
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(content []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(content, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse catalog seed: %w", err)
	}
	return &seed, nil
}
