package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/orders"
	"storefront/internal/repository"
	"storefront/internal/routes"
	"storefront/internal/store"
)

const shutdownTimeout = 15 * time.Second

// app is the wired service plus whatever must be closed on shutdown.
type app struct {
	router  *gin.Engine
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.LoadConfig()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("shutdown cleanup")
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("backend", cfg.StoreBackend).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildApp selects the store backend and notification sink from cfg and wires the router.
func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{}

	products, ordersRepo, err := openStore(ctx, cfg, log, a)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	m := metrics.New()
	sink := newSink(cfg, log)

	limits := cache.New(time.Minute)
	a.closers = append(a.closers, func() error { limits.Close(); return nil })

	admin := auth.NewAdmin(cfg.AdminUsername, cfg.AdminPasswordHash, auth.NewLimiter(limits),
		logging.Component(log, "auth"))
	if !cfg.AdminProtected() {
		log.Warn().Msg("ADMIN_PASSWORD_HASH is not set, admin routes are unprotected")
	}

	a.router = routes.NewRouter(routes.Deps{
		Catalog: catalog.NewService(products, logging.Component(log, "catalog")),
		Orders: orders.NewPipeline(ordersRepo, sink, logging.Component(log, "orders"),
			orders.WithSource(cfg.OrderSource),
			orders.WithMetrics(m),
		),
		Admin:   admin,
		Metrics: m,
		Log:     logging.Component(log, "http"),
	})
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger, a *app) (repository.ProductRepository, repository.OrderRepository, error) {
	storeLog := logging.Component(log, "store")

	switch cfg.StoreBackend {
	case config.BackendFile:
		if err := os.MkdirAll(filepath.Dir(cfg.SequenceFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		seq, err := store.OpenBoltSequence(cfg.SequenceFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open sequences: %w", err)
		}
		a.closers = append(a.closers, seq.Close)

		products := repository.NewFileProductRepository(
			store.NewDocument[models.CatalogDocument](cfg.ProductsFile, storeLog),
			seq, storeLog)
		ordersRepo := repository.NewFileOrderRepository(
			store.NewDocument[[]models.Order](cfg.OrdersFile, storeLog),
			seq, storeLog)
		return products, ordersRepo, nil

	case config.BackendMongo:
		client, err := database.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })

		db := client.Database(cfg.MongoDB)
		seq := repository.NewMongoSequence(db)
		return repository.NewMongoProductRepository(db, seq), repository.NewMongoOrderRepository(db, seq), nil

	case config.BackendMemory:
		seq := store.NewMemorySequence()
		log.Warn().Msg("memory store backend: data is lost on restart")
		return repository.NewMemoryProductRepository(seq, storeLog), repository.NewMemoryOrderRepository(seq, storeLog), nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

func newSink(cfg *config.Config, log zerolog.Logger) notify.Sink {
	sinkLog := logging.Component(log, "notify")
	switch {
	case !cfg.NotifyEnabled:
		return notify.NewDisabled("notifications are disabled", sinkLog)
	case !cfg.TelegramConfigured():
		sinkLog.Warn().Msg("TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID missing, order notifications are off")
		return notify.NewDisabled("telegram credentials are not configured", sinkLog)
	}
	return notify.NewTelegram(notify.TelegramConfig{
		APIURL:  cfg.TelegramAPIURL,
		Token:   cfg.TelegramBotToken,
		ChatID:  cfg.TelegramChatID,
		Timeout: cfg.NotifyTimeout,
	}, notify.Formatter{
		ShopName: cfg.ShopName,
		Currency: cfg.CurrencySymbol,
	}, sinkLog)
}
