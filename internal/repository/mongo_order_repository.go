package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

type MongoOrderRepository struct {
	collection *mongo.Collection
	seq        store.Sequence
}

func NewMongoOrderRepository(db *mongo.Database, seq store.Sequence) *MongoOrderRepository {
	return &MongoOrderRepository{collection: db.Collection("orders"), seq: seq}
}

func (r *MongoOrderRepository) Create(ctx context.Context, o *models.Order, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var last models.Order
	opts := options.FindOne().SetSort(bson.D{{Key: "id", Value: -1}}).SetProjection(bson.M{"id": 1})
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&last)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.IO("find last order", err)
	}

	id, err := r.seq.Next(ctx, OrderSequence, last.ID)
	if err != nil {
		return err
	}

	saved := *o
	saved.ID = id
	saved.CreatedAt = now
	if _, err := r.collection.InsertOne(ctx, saved); err != nil {
		return apperr.IO("insert order", err)
	}
	*o = saved
	return nil
}

func (r *MongoOrderRepository) FindAll(ctx context.Context) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, apperr.IO("find orders", err)
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, apperr.IO("decode orders", err)
	}
	return orders, nil
}

// MongoSequence keeps counters in a "counters" collection keyed by sequence name.
type MongoSequence struct {
	collection *mongo.Collection
}

func NewMongoSequence(db *mongo.Database) *MongoSequence {
	return &MongoSequence{collection: db.Collection("counters")}
}

func (s *MongoSequence) Next(ctx context.Context, name string, floor int64) (int64, error) {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$max": bson.M{"seq": floor}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return 0, apperr.IO("raise sequence "+name, err)
	}

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err = s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, apperr.IO("advance sequence "+name, err)
	}
	return counter.Seq, nil
}
