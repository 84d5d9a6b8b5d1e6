// Package orders runs an order submission through validate, persist, notify and respond.
package orders

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/repository"
	"storefront/internal/validation"
)

// Result of an accepted submission. Delivery reports the notification separately;
// a failed delivery does not make the submission fail.
type Result struct {
	Order    models.Order
	Delivery notify.DeliveryResult
}

type Pipeline struct {
	repo     repository.OrderRepository
	sink     notify.Sink
	validate *validation.Validator
	metrics  *metrics.Metrics
	source   string
	now      func() time.Time
	log      zerolog.Logger
}

type Option func(*Pipeline)

// WithSource sets the tag recorded on every order.
func WithSource(source string) Option {
	return func(p *Pipeline) { p.source = source }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(repo repository.OrderRepository, sink notify.Sink, log zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		repo:     repo,
		sink:     sink,
		validate: validation.New(),
		source:   "website",
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit is terminal on validation or persistence failure; neither step is retried and
// nothing is notified in that case. Duplicate submissions create duplicate orders.
func (p *Pipeline) Submit(ctx context.Context, req models.OrderRequest) (Result, error) {
	if err := p.validate.Struct(req); err != nil {
		p.count(metrics.OutcomeInvalid)
		p.log.Info().Err(err).Msg("order rejected")
		return Result{}, err
	}

	order := models.NewOrder(req, p.source)
	if err := p.repo.Create(ctx, &order, p.now()); err != nil {
		p.count(metrics.OutcomeStoreFail)
		p.log.Error().Err(err).Str("customer", req.CustomerName).Msg("order not persisted")
		return Result{}, err
	}
	p.count(metrics.OutcomeAccepted)
	p.log.Info().
		Int64("order_id", order.ID).
		Int("items", len(order.Items)).
		Float64("total", order.Total).
		Msg("order accepted")

	// the order is already stored, so a client disconnect must not cancel delivery
	delivery := p.sink.Send(context.WithoutCancel(ctx), order)
	if p.metrics != nil {
		p.metrics.ObserveNotification(delivery.Success)
	}
	return Result{Order: order, Delivery: delivery}, nil
}

func (p *Pipeline) List(ctx context.Context) ([]models.Order, error) {
	return p.repo.FindAll(ctx)
}

func (p *Pipeline) count(outcome string) {
	if p.metrics != nil {
		p.metrics.Orders.WithLabelValues(outcome).Inc()
	}
}
