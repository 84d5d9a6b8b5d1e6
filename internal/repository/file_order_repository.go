package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/models"
	"storefront/internal/store"
)

// FileOrderRepository keeps orders as a bare JSON array. A nil document makes it memory only.
type FileOrderRepository struct {
	mu     sync.RWMutex
	doc    *store.Document[[]models.Order]
	seq    store.Sequence
	orders []models.Order
	log    zerolog.Logger
}

func NewFileOrderRepository(doc *store.Document[[]models.Order], seq store.Sequence, log zerolog.Logger) *FileOrderRepository {
	r := &FileOrderRepository{doc: doc, seq: seq, log: log}
	ev := log.Info()
	if doc != nil {
		r.orders = doc.Load()
		ev = ev.Str("file", doc.Path())
	}
	ev.Int("orders", len(r.orders)).Msg("orders loaded")
	return r
}

func NewMemoryOrderRepository(seq store.Sequence, log zerolog.Logger) *FileOrderRepository {
	return NewFileOrderRepository(nil, seq, log)
}

func (r *FileOrderRepository) Create(ctx context.Context, o *models.Order, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxID int64
	for _, existing := range r.orders {
		maxID = max(maxID, existing.ID)
	}
	id, err := r.seq.Next(ctx, OrderSequence, maxID)
	if err != nil {
		return err
	}

	saved := *o
	saved.ID = id
	saved.CreatedAt = now
	next := append(slices.Clone(r.orders), saved)
	if r.doc != nil {
		if err := r.doc.Save(next); err != nil {
			r.log.Error().Err(err).Int64("order_id", id).Msg("save orders")
			return err
		}
	}
	r.orders = next
	*o = saved
	return nil
}

func (r *FileOrderRepository) FindAll(_ context.Context) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.orders) == 0 {
		return make([]models.Order, 0), nil
	}
	return slices.Clone(r.orders), nil
}
