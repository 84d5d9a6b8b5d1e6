package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

// FileProductRepository loads the catalog document once and rewrites it on every mutation.
// A nil document makes it memory only.
type FileProductRepository struct {
	mu   sync.RWMutex
	doc  *store.Document[models.CatalogDocument]
	seq  store.Sequence
	data models.CatalogDocument
	log  zerolog.Logger
}

func NewFileProductRepository(doc *store.Document[models.CatalogDocument], seq store.Sequence, log zerolog.Logger) *FileProductRepository {
	r := &FileProductRepository{doc: doc, seq: seq, log: log}
	ev := log.Info()
	if doc != nil {
		r.data = doc.Load()
		ev = ev.Str("file", doc.Path())
	}
	for i := range r.data.Products {
		r.data.Products[i].Normalize()
	}
	ev.Int("products", len(r.data.Products)).
		Int("sections", len(r.data.Sections)).
		Msg("catalog loaded")
	return r
}

func NewMemoryProductRepository(seq store.Sequence, log zerolog.Logger) *FileProductRepository {
	return NewFileProductRepository(nil, seq, log)
}

func (r *FileProductRepository) FindAll(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.data.Products), nil
}

func (r *FileProductRepository) FindByID(_ context.Context, id int64) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		p := r.data.Products[i]
		return &p, nil
	}
	return nil, apperr.NotFound(fmt.Sprintf("product %d not found", id))
}

func (r *FileProductRepository) Create(ctx context.Context, in models.NewProduct, now time.Time) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxID int64
	for _, p := range r.data.Products {
		maxID = max(maxID, p.ID)
	}
	id, err := r.seq.Next(ctx, ProductSequence, maxID)
	if err != nil {
		return models.Product{}, err
	}

	p := in.Build(id, now)
	next := r.data
	next.Products = append(slices.Clone(r.data.Products), p)
	if err := r.persist(next, now); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func (r *FileProductRepository) Update(_ context.Context, id int64, fn UpdateFunc) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return models.Product{}, apperr.NotFound(fmt.Sprintf("product %d not found", id))
	}
	p, err := fn(r.data.Products[i])
	if err != nil {
		return models.Product{}, err
	}
	if p.ID != id && r.indexOf(p.ID) >= 0 {
		return models.Product{}, apperr.Validation("id", fmt.Sprintf("id %d is already in use", p.ID))
	}

	next := r.data
	next.Products = slices.Clone(r.data.Products)
	next.Products[i] = p
	if err := r.persist(next, p.UpdatedAt); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func (r *FileProductRepository) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return false, nil
	}
	next := r.data
	next.Products = slices.Delete(slices.Clone(r.data.Products), i, i+1)
	if err := r.persist(next, time.Now()); err != nil {
		return false, err
	}
	return true, nil
}

func (r *FileProductRepository) Sections(_ context.Context) ([]models.Section, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.data.Sections), nil
}

// persist saves next and only then makes it the in-memory state. Callers hold mu.
func (r *FileProductRepository) persist(next models.CatalogDocument, now time.Time) error {
	next.LastUpdated = now
	if r.doc != nil {
		if err := r.doc.Save(next); err != nil {
			r.log.Error().Err(err).Msg("save catalog")
			return err
		}
	}
	r.data = next
	return nil
}

func (r *FileProductRepository) indexOf(id int64) int {
	return slices.IndexFunc(r.data.Products, func(p models.Product) bool { return p.ID == id })
}
