package repository

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

func newProduct(name string) models.NewProduct {
	price := 100.0
	return models.NewProduct{Name: name, Price: &price, Category: "test"}
}

func newFileRepo(t *testing.T) (*FileProductRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	doc := store.NewDocument[models.CatalogDocument](path, zerolog.Nop())
	return NewFileProductRepository(doc, store.NewMemorySequence(), zerolog.Nop()), path
}

func TestFileProductRepositoryPersists(t *testing.T) {
	ctx := context.Background()
	repo, path := newFileRepo(t)

	a, err := repo.Create(ctx, newProduct("a"), time.Now())
	require.NoError(t, err)
	b, err := repo.Create(ctx, newProduct("b"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	reloaded := NewFileProductRepository(
		store.NewDocument[models.CatalogDocument](path, zerolog.Nop()),
		store.NewMemorySequence(),
		zerolog.Nop(),
	)
	all, err := reloaded.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name)
	assert.Equal(t, "b", all[1].Name)

	c, err := reloaded.Create(ctx, newProduct("c"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID, "floor comes from the loaded document")
}

func TestFileProductRepositoryNoIDReuse(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFileRepo(t)

	repo.Create(ctx, newProduct("a"), time.Now())
	top, _ := repo.Create(ctx, newProduct("b"), time.Now())

	removed, err := repo.Delete(ctx, top.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	again, err := repo.Create(ctx, newProduct("c"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), again.ID)
}

func TestFileProductRepositoryDeleteMissingDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	repo, path := newFileRepo(t)

	removed, err := repo.Delete(ctx, 99)
	require.NoError(t, err)
	assert.False(t, removed)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func rename(name string) UpdateFunc {
	return func(p models.Product) (models.Product, error) {
		p.Name = name
		return p, nil
	}
}

func moveTo(id int64) UpdateFunc {
	return func(p models.Product) (models.Product, error) {
		p.ID = id
		return p, nil
	}
}

func TestFileProductRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFileRepo(t)
	a, _ := repo.Create(ctx, newProduct("a"), time.Now())
	b, _ := repo.Create(ctx, newProduct("b"), time.Now())

	updated, err := repo.Update(ctx, a.ID, rename("renamed"))
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	_, err = repo.Update(ctx, a.ID, moveTo(b.ID))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = repo.Update(ctx, 404, rename("x"))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = repo.Update(ctx, a.ID, moveTo(50))
	require.NoError(t, err)
	_, err = repo.FindByID(ctx, a.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = repo.FindByID(ctx, 50)
	assert.NoError(t, err)
}

func TestFileProductRepositoryUpdateFuncErrorStoresNothing(t *testing.T) {
	ctx := context.Background()
	repo, path := newFileRepo(t)
	a, _ := repo.Create(ctx, newProduct("a"), time.Now())
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = repo.Update(ctx, a.ID, func(models.Product) (models.Product, error) {
		return models.Product{}, apperr.Validation("price", "bad price")
	})
	assert.Equal(t, "price", apperr.FieldOf(err))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	got, _ := repo.FindByID(ctx, a.ID)
	assert.Equal(t, "a", got.Name)
}

func TestFileProductRepositoryConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	repo, path := newFileRepo(t)
	p, _ := repo.Create(ctx, newProduct("counter"), time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, p.ID, func(cur models.Product) (models.Product, error) {
				time.Sleep(time.Millisecond)
				cur.Stock++
				return cur, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), got.Stock)

	reloaded := NewFileProductRepository(store.NewDocument[models.CatalogDocument](path, zerolog.Nop()), store.NewMemorySequence(), zerolog.Nop())
	onDisk, err := reloaded.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), onDisk.Stock)
}

func TestFileProductRepositoryUpdateDeleteRace(t *testing.T) {
	ctx := context.Background()
	for round := 0; round < 20; round++ {
		repo, path := newFileRepo(t)
		p, _ := repo.Create(ctx, newProduct("doomed"), time.Now())

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Update(ctx, p.ID, func(cur models.Product) (models.Product, error) {
					cur.Badge = "sale"
					return cur, nil
				})
				if err != nil {
					assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			removed, err := repo.Delete(ctx, p.ID)
			assert.NoError(t, err)
			assert.True(t, removed)
		}()
		wg.Wait()

		_, err := repo.FindByID(ctx, p.ID)
		assert.True(t, apperr.Is(err, apperr.KindNotFound), "an update must not resurrect a deleted product")
		reloaded := NewFileProductRepository(store.NewDocument[models.CatalogDocument](path, zerolog.Nop()), store.NewMemorySequence(), zerolog.Nop())
		all, _ := reloaded.FindAll(ctx)
		assert.Empty(t, all)
	}
}

type failingSequence struct{}

func (failingSequence) Next(context.Context, string, int64) (int64, error) {
	return 0, apperr.IO("sequence offline", nil)
}

func TestFileProductRepositorySequenceFailure(t *testing.T) {
	repo := NewMemoryProductRepository(failingSequence{}, zerolog.Nop())
	_, err := repo.Create(context.Background(), newProduct("a"), time.Now())
	assert.True(t, apperr.Is(err, apperr.KindIO))
	all, _ := repo.FindAll(context.Background())
	assert.Empty(t, all)
}

func TestFileProductRepositorySaveFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	doc := store.NewDocument[models.CatalogDocument](filepath.Join(blocker, "products.json"), zerolog.Nop())
	repo := NewFileProductRepository(doc, store.NewMemorySequence(), zerolog.Nop())

	_, err := repo.Create(ctx, newProduct("a"), time.Now())
	assert.True(t, apperr.Is(err, apperr.KindIO))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFileProductRepositoryConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFileRepo(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, newProduct("p"), time.Now())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, _ := repo.FindAll(ctx)
	require.Len(t, all, 20)
	ids := map[int64]bool{}
	for _, p := range all {
		ids[p.ID] = true
	}
	assert.Len(t, ids, 20)
}

func TestFileProductRepositorySections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	doc := store.NewDocument[models.CatalogDocument](path, zerolog.Nop())
	require.NoError(t, doc.Save(models.CatalogDocument{
		Sections: []models.Section{{ID: 1, Code: "wise", Active: true}, {ID: 2, Code: "time"}},
	}))

	repo := NewFileProductRepository(doc, store.NewMemorySequence(), zerolog.Nop())
	sections, err := repo.Sections(context.Background())
	require.NoError(t, err)
	assert.Len(t, sections, 2)
}
