// Package repository holds the product and order collections behind the catalog and the
// order pipeline. File and memory repositories keep the collection in memory and serialize
// every mutation behind one lock; the Mongo repositories delegate to a database.
package repository

import (
	"context"
	"time"

	"storefront/internal/models"
)

// Sequence names shared by all backends.
const (
	ProductSequence = "products"
	OrderSequence   = "orders"
)

// UpdateFunc derives the next version of a product from the stored one.
type UpdateFunc func(current models.Product) (models.Product, error)

type ProductRepository interface {
	FindAll(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	// Create allocates the next id and stores in.Build(id, now).
	Create(ctx context.Context, in models.NewProduct, now time.Time) (models.Product, error)
	// Update applies fn to the record stored under id and stores the result as one
	// atomic read-modify-write. The returned product's ID may differ from id.
	Update(ctx context.Context, id int64, fn UpdateFunc) (models.Product, error)
	// Delete reports whether a record was removed.
	Delete(ctx context.Context, id int64) (bool, error)
	Sections(ctx context.Context) ([]models.Section, error)
}

type OrderRepository interface {
	// Create assigns o.ID and o.CreatedAt and appends the order.
	Create(ctx context.Context, o *models.Order, now time.Time) error
	FindAll(ctx context.Context) ([]models.Order, error)
}
