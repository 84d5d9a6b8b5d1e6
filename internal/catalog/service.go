// Package catalog implements product CRUD on top of a product repository.
package catalog

import (
	"context"
	"maps"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/validation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ListFilter struct {
	ActiveOnly bool
	Section    string
}

type Stats struct {
	Products int `json:"products_count"`
	Sections int `json:"sections_count"`
}

type Service struct {
	repo     repository.ProductRepository
	validate *validation.Validator
	now      func() time.Time
	log      zerolog.Logger
}

type Option func(*Service)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo repository.ProductRepository, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		validate: validation.New(),
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns products in storage order.
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Product, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(all))
	for _, p := range all {
		if f.ActiveOnly && !p.Active {
			continue
		}
		if f.Section != "" && p.Section != f.Section {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (models.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	return *p, nil
}

// Create validates the required fields, fills defaults and persists the product.
func (s *Service) Create(ctx context.Context, in models.NewProduct) (int64, error) {
	if err := s.validate.Struct(in); err != nil {
		return 0, err
	}
	p, err := s.repo.Create(ctx, in, s.now())
	if err != nil {
		s.log.Error().Err(err).Str("name", in.Name).Msg("create product")
		return 0, err
	}
	s.log.Info().Int64("product_id", p.ID).Str("sku", p.SKU).Msg("product created")
	return p.ID, nil
}

// Update merges fields into the stored record verbatim, id included, and refreshes updatedAt.
// The merge runs inside the repository's read-modify-write, so concurrent updates to
// different fields all survive.
func (s *Service) Update(ctx context.Context, id int64, fields map[string]any) (models.Product, error) {
	next, err := s.repo.Update(ctx, id, func(current models.Product) (models.Product, error) {
		p, err := merge(current, fields)
		if err != nil {
			return models.Product{}, err
		}
		p.UpdatedAt = s.now()
		p.Normalize()
		return p, nil
	})
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindValidation, apperr.KindNotFound:
		default:
			s.log.Error().Err(err).Int64("product_id", id).Msg("update product")
		}
		return models.Product{}, err
	}
	s.log.Info().Int64("product_id", next.ID).Int("fields", len(fields)).Msg("product updated")
	return next, nil
}

// Delete removes the product. Unknown ids succeed without touching the store.
func (s *Service) Delete(ctx context.Context, id int64) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Int64("product_id", id).Msg("delete product")
		return err
	}
	if removed {
		s.log.Info().Int64("product_id", id).Msg("product deleted")
	}
	return nil
}

// Sections returns the active sections with their count of active products.
func (s *Service) Sections(ctx context.Context) ([]models.Section, error) {
	sections, err := s.repo.Sections(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, p := range products {
		if p.Active {
			counts[p.Section]++
		}
	}

	out := make([]models.Section, 0, len(sections))
	for _, sec := range sections {
		if !sec.Active {
			continue
		}
		sec.ProductCount = counts[sec.Code]
		out = append(out, sec)
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	sections, err := s.repo.Sections(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Products: len(products), Sections: len(sections)}, nil
}

// merge overlays fields on the JSON form of p. Keys that are not product fields are dropped;
// values of the wrong type fail the decode.
func merge(p models.Product, fields map[string]any) (models.Product, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return models.Product{}, apperr.IO("encode product", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return models.Product{}, apperr.IO("decode product", err)
	}
	maps.Copy(m, fields)

	raw, err = json.Marshal(m)
	if err != nil {
		return models.Product{}, apperr.Validation("", "product fields cannot be encoded")
	}
	var out models.Product
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.Product{}, apperr.Validation("", "invalid product field value: "+err.Error())
	}
	return out, nil
}
