package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/order-gateway/internal/domain/auth"
	"github.com/xenking/order-gateway/internal/domain/customer"
	"github.com/xenking/order-gateway/internal/domain/product"
	"github.com/xenking/order-gateway/internal/domain/record"
	"github.com/xenking/order-gateway/internal/ingest"
	"github.com/xenking/order-gateway/internal/storage/postgres"
)

type options struct {
	databaseURL   string
	customersFile string
	productsFile  string
	apiKey        string
	apiKeyPepper  string
}

func envOr(v, key string) string {
	if v != "" {
		return v
	}
	return os.Getenv(key)
}

func main() {
	var o options
	flag.StringVar(&o.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&o.customersFile, "customers-file", "db/seed/customers.jsonl", "customers JSON lines, optionally .gz")
	flag.StringVar(&o.productsFile, "products-file", "db/seed/products.jsonl", "products JSON lines, optionally .gz")
	flag.StringVar(&o.apiKey, "api-key", "", "API key to store (or GATEWAY_SEED_API_KEY env)")
	flag.StringVar(&o.apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or GATEWAY_API_KEY_PEPPER env)")
	flag.Parse()

	o.databaseURL = envOr(o.databaseURL, "DATABASE_URL")
	o.apiKey = envOr(o.apiKey, "GATEWAY_SEED_API_KEY")
	o.apiKeyPepper = envOr(o.apiKeyPepper, "GATEWAY_API_KEY_PEPPER")
	if o.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, o); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("seed completed successfully")
}

func run(ctx context.Context, o options) error {
	slog.Info("connecting to database")
	pool, err := postgres.NewPool(ctx, o.databaseURL, postgres.PoolConfig{MaxConns: 2})
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")
	lg, err := zap.NewProduction()
	if err != nil {
		return errors.Wrap(err, "logger")
	}
	defer func() { _ = lg.Sync() }()
	if err := postgres.RunMigrations(ctx, pool, lg); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	catalog := postgres.NewCatalog(pool)

	customers, err := readRows(ctx, o.customersFile, customer.Shape)
	if err != nil {
		return errors.Wrap(err, "read customers")
	}
	n, err := catalog.UpsertCustomers(ctx, customers)
	if err != nil {
		return errors.Wrap(err, "upsert customers")
	}
	slog.Info("upserted customers", slog.Int64("count", n))

	products, err := readRows(ctx, o.productsFile, product.Shape)
	if err != nil {
		return errors.Wrap(err, "read products")
	}
	n, err = catalog.UpsertProducts(ctx, products)
	if err != nil {
		return errors.Wrap(err, "upsert products")
	}
	slog.Info("upserted products", slog.Int64("count", n))

	if o.apiKey == "" {
		slog.Info("no API key given, skipping")
		return nil
	}
	info := auth.APIKeyInfo{
		ID:      "default",
		KeyHash: auth.Hash([]byte(o.apiKeyPepper), o.apiKey),
		Name:    "Default key",
	}
	if err := postgres.NewAPIKeyRepository(pool).Upsert(ctx, info); err != nil {
		return errors.Wrap(err, "upsert api key")
	}
	slog.Info("upserted API key", slog.String("id", info.ID))
	return nil
}

// readRows decodes each line of path into a row and shapes it.
func readRows[T any](ctx context.Context, path string, shape func(record.Row) T) ([]T, error) {
	slog.Info("reading seed file", slog.String("path", path))
	var out []T
	err := ingest.File(ctx, path, func(_ int, line []byte) error {
		row, err := ingest.DecodeRow(line)
		if err != nil {
			return err
		}
		out = append(out, shape(row))
		return nil
	})
	return out, err
}
