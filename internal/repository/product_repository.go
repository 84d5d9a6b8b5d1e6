package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

// MongoProductRepository stores products and sections in two collections.
// Products are addressed by their numeric "id" field, not by _id.
type MongoProductRepository struct {
	products *mongo.Collection
	sections *mongo.Collection
	seq      store.Sequence
}

func NewMongoProductRepository(db *mongo.Database, seq store.Sequence) *MongoProductRepository {
	return &MongoProductRepository{
		products: db.Collection("products"),
		sections: db.Collection("sections"),
		seq:      seq,
	}
}

// FindAll lists products in id order, which is insertion order.
func (r *MongoProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.products.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, apperr.IO("find products", err)
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, apperr.IO("decode products", err)
	}
	for i := range products {
		products[i].Normalize()
	}
	return products, nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var product models.Product
	err := r.products.FindOne(ctx, bson.M{"id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound(fmt.Sprintf("product %d not found", id))
		}
		return nil, apperr.IO("find product", err)
	}
	product.Normalize()
	return &product, nil
}

func (r *MongoProductRepository) Create(ctx context.Context, in models.NewProduct, now time.Time) (models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	maxID, err := r.maxID(ctx)
	if err != nil {
		return models.Product{}, err
	}
	id, err := r.seq.Next(ctx, ProductSequence, maxID)
	if err != nil {
		return models.Product{}, err
	}

	p := in.Build(id, now)
	if _, err := r.products.InsertOne(ctx, p); err != nil {
		return models.Product{}, apperr.IO("insert product", err)
	}
	return p, nil
}

// updateAttempts bounds the optimistic retries of Update.
const updateAttempts = 5

// Update replaces the record only if its updated_at still matches the version fn saw,
// retrying against the fresh record when another writer got there first.
func (r *MongoProductRepository) Update(ctx context.Context, id int64, fn UpdateFunc) (models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for attempt := 0; attempt < updateAttempts; attempt++ {
		var current models.Product
		err := r.products.FindOne(ctx, bson.M{"id": id}).Decode(&current)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Product{}, apperr.NotFound(fmt.Sprintf("product %d not found", id))
		}
		if err != nil {
			return models.Product{}, apperr.IO("find product", err)
		}

		next, err := fn(current)
		if err != nil {
			return models.Product{}, err
		}
		// updated_at doubles as the record version; stored times have millisecond precision
		if floor := current.UpdatedAt.Add(time.Millisecond); next.UpdatedAt.Before(floor) {
			next.UpdatedAt = floor
		}
		if next.ID != id {
			n, err := r.products.CountDocuments(ctx, bson.M{"id": next.ID})
			if err != nil {
				return models.Product{}, apperr.IO("check product id", err)
			}
			if n > 0 {
				return models.Product{}, apperr.Validation("id", fmt.Sprintf("id %d is already in use", next.ID))
			}
		}

		result, err := r.products.ReplaceOne(ctx, versionFilter(id, current.UpdatedAt), next)
		if err != nil {
			return models.Product{}, apperr.IO("replace product", err)
		}
		if result.MatchedCount == 1 {
			return next, nil
		}
	}
	return models.Product{}, apperr.Conflict(fmt.Sprintf("product %d is being modified concurrently, retry", id))
}

func versionFilter(id int64, updatedAt time.Time) bson.M {
	if updatedAt.IsZero() {
		return bson.M{"id": id, "$or": bson.A{
			bson.M{"updated_at": bson.M{"$exists": false}},
			bson.M{"updated_at": updatedAt},
		}}
	}
	return bson.M{"id": id, "updated_at": updatedAt}
}

func (r *MongoProductRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.products.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return false, apperr.IO("delete product", err)
	}
	return result.DeletedCount > 0, nil
}

func (r *MongoProductRepository) Sections(ctx context.Context) ([]models.Section, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.sections.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, apperr.IO("find sections", err)
	}
	defer cursor.Close(ctx)

	sections := make([]models.Section, 0)
	if err := cursor.All(ctx, &sections); err != nil {
		return nil, apperr.IO("decode sections", err)
	}
	return sections, nil
}

func (r *MongoProductRepository) maxID(ctx context.Context) (int64, error) {
	var top models.Product
	opts := options.FindOne().SetSort(bson.D{{Key: "id", Value: -1}}).SetProjection(bson.M{"id": 1})
	err := r.products.FindOne(ctx, bson.M{}, opts).Decode(&top)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.IO("find max product id", err)
	}
	return top.ID, nil
}
