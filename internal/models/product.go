package models

import (
	"fmt"
	"time"
)

const (
	DefaultSection = "all"
	skuPrefix      = "MF-"
)

// Product is a catalog entry. Inactive products are hidden from the default listing.
type Product struct {
	ID             int64             `json:"id" bson:"id"`
	Name           string            `json:"name" bson:"name"`
	Price          float64           `json:"price" bson:"price"`
	Category       string            `json:"category" bson:"category"`
	Section        string            `json:"section" bson:"section"`
	Description    string            `json:"description" bson:"description"`
	Badge          string            `json:"badge" bson:"badge"`
	Active         bool              `json:"active" bson:"active"`
	Featured       bool              `json:"featured" bson:"featured"`
	Stock          int64             `json:"stock" bson:"stock"`
	SKU            string            `json:"sku" bson:"sku"`
	Images         []string          `json:"images" bson:"images"`
	Features       []string          `json:"features" bson:"features"`
	Specifications map[string]string `json:"specifications" bson:"specifications"`
	CreatedAt      time.Time         `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time         `json:"updatedAt" bson:"updated_at"`
}

// NewProduct carries the caller-supplied fields of a product to create.
// Pointer fields distinguish "absent" from the zero value.
type NewProduct struct {
	Name           string            `json:"name" validate:"required"`
	Price          *float64          `json:"price" validate:"required"`
	Category       string            `json:"category" validate:"required"`
	Section        string            `json:"section"`
	Description    string            `json:"description"`
	Badge          string            `json:"badge"`
	Active         *bool             `json:"active"`
	Featured       bool              `json:"featured"`
	Stock          int64             `json:"stock"`
	SKU            string            `json:"sku"`
	Images         []string          `json:"images"`
	Features       []string          `json:"features"`
	Specifications map[string]string `json:"specifications"`
}

// Build turns the input into a full record with defaults filled in.
func (n NewProduct) Build(id int64, now time.Time) Product {
	p := Product{
		ID:             id,
		Name:           n.Name,
		Category:       n.Category,
		Section:        n.Section,
		Description:    n.Description,
		Badge:          n.Badge,
		Active:         true,
		Featured:       n.Featured,
		Stock:          n.Stock,
		SKU:            n.SKU,
		Images:         n.Images,
		Features:       n.Features,
		Specifications: n.Specifications,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if n.Price != nil {
		p.Price = *n.Price
	}
	if n.Active != nil {
		p.Active = *n.Active
	}
	if p.Section == "" {
		p.Section = DefaultSection
	}
	if p.SKU == "" {
		p.SKU = DefaultSKU(id)
	}
	p.Normalize()
	return p
}

// Normalize replaces nil collections with empty ones so they encode as [] and {}.
func (p *Product) Normalize() {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.Specifications == nil {
		p.Specifications = map[string]string{}
	}
}

func DefaultSKU(id int64) string {
	return fmt.Sprintf("%s%d", skuPrefix, id)
}

// Section groups products on the storefront.
type Section struct {
	ID           int64  `json:"id" bson:"id"`
	Name         string `json:"name" bson:"name"`
	Code         string `json:"code" bson:"code"`
	ProductCount int    `json:"product_count" bson:"product_count"`
	Active       bool   `json:"active" bson:"active"`
}

// CatalogDocument is the persisted layout of the product file.
type CatalogDocument struct {
	Products    []Product `json:"products"`
	Sections    []Section `json:"sections"`
	LastUpdated time.Time `json:"last_updated"`
}
