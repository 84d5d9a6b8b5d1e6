package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/apperr"
	"storefront/internal/database"
	"storefront/internal/models"
)

// mongoDB connects to MONGO_URI with a throwaway database, or skips.
func mongoDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	client, err := database.Connect(context.Background(), uri)
	require.NoError(t, err)

	db := client.Database(fmt.Sprintf("storefront_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		ctx := context.Background()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestMongoProductRepository(t *testing.T) {
	ctx := context.Background()
	db := mongoDB(t)
	repo := NewMongoProductRepository(db, NewMongoSequence(db))

	a, err := repo.Create(ctx, newProduct("a"), time.Now())
	require.NoError(t, err)
	b, err := repo.Create(ctx, newProduct("b"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "MF-1", all[0].SKU)

	_, err = repo.Update(ctx, b.ID, rename("renamed"))
	require.NoError(t, err)
	_, err = repo.Update(ctx, b.ID, moveTo(a.ID))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	removed, err := repo.Delete(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Delete(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = repo.FindByID(ctx, b.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	c, err := repo.Create(ctx, newProduct("c"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID)
}

func TestMongoOrderRepository(t *testing.T) {
	ctx := context.Background()
	db := mongoDB(t)
	repo := NewMongoOrderRepository(db, NewMongoSequence(db))

	o := models.Order{CustomerName: "Ann", Status: models.OrderStatusNew}
	require.NoError(t, repo.Create(ctx, &o, time.Now()))
	assert.Equal(t, int64(1), o.ID)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMongoProductRepositoryConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	db := mongoDB(t)
	repo := NewMongoProductRepository(db, NewMongoSequence(db))
	p, err := repo.Create(ctx, newProduct("counter"), time.Now())
	require.NoError(t, err)

	const writers = updateAttempts
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, p.ID, func(cur models.Product) (models.Product, error) {
				cur.Stock++
				return cur, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(writers), got.Stock)
}
