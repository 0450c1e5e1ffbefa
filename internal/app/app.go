// Package app wires the gateway together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/order-gateway/internal/domain/auth"
	"github.com/xenking/order-gateway/internal/domain/customer"
	"github.com/xenking/order-gateway/internal/domain/order"
	"github.com/xenking/order-gateway/internal/domain/product"
	"github.com/xenking/order-gateway/internal/handler"
	"github.com/xenking/order-gateway/internal/observability"
	"github.com/xenking/order-gateway/internal/storage/postgres"
	"github.com/xenking/order-gateway/pkg/health"
	"github.com/xenking/order-gateway/pkg/httpmiddleware"
)

// Run creates all dependencies, serves HTTP and drains on shutdown. It is the
// single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxConns:        cfg.Pool.MaxConns,
		MinConns:        cfg.Pool.MinConns,
		MaxConnIdleTime: cfg.Pool.MaxConnIdleTime,
	})
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if cfg.Migrate {
		if err := postgres.RunMigrations(ctx, pool, lg); err != nil {
			return errors.Wrap(err, "run migrations")
		}
	}

	hs := health.New(health.Options{Interval: 10 * time.Second})
	hs.Ready("postgres", 5*time.Second, health.PingCheck(pool))
	hs.Live("goroutines", time.Second, health.GoroutineCountCheck(10000))

	procs := postgres.NewProcedures(pool)
	orders, err := observability.NewOrders(order.NewService(procs),
		observability.WithTracerProvider(m.TracerProvider()),
		observability.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "instrument orders")
	}

	pepper := []byte(cfg.APIKeyPepper)
	apikeys := auth.Chain{
		auth.NewStaticKeys(pepper, cfg.APIKeys),
		postgres.NewAPIKeyRepository(pool),
	}
	if len(cfg.APIKeys) == 0 {
		lg.Warn("No API keys configured, relying on the api_keys table")
	}

	h := handler.NewHandler(
		handler.HandlerConfig{MaxBodyBytes: cfg.MaxBodyBytes},
		customer.NewService(procs),
		product.NewService(procs),
		orders,
	)
	api := h.Routes(handler.NewSecurityHandler(apikeys, pepper))
	api.Get("/public/health", hs.ReadyHandler)

	root := chi.NewRouter()
	root.NotFound(handler.NotFound)
	root.MethodNotAllowed(handler.NotFound)
	root.Get("/livez", hs.LiveHandler)
	root.Get("/readyz", hs.ReadyHandler)
	root.Mount("/api", api)

	limiter := httpmiddleware.NewRateLimiter(httpmiddleware.RateLimitConfig{
		Max:     cfg.RateLimit.Max,
		Window:  cfg.RateLimit.Window,
		KeyFunc: httpmiddleware.HeaderOrClientIP(handler.APIKeyHeader),
	})

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(root,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(cfg.CORS.middleware()),
			limiter.Middleware(),
			httpmiddleware.RouteContext(),
			httpmiddleware.Instrument("order-gateway", m),
			httpmiddleware.LogRequests(),
			httpmiddleware.Labeler(),
		),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hs.Run(gctx)
	})
	g.Go(func() error {
		return limiter.Run(gctx)
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		hs.SetReady(false)
		if ctx.Err() != nil {
			// Regular shutdown: let load balancers observe readiness first.
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	hs.SetReady(true)

	return g.Wait()
}
