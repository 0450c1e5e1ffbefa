package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/xenking/order-gateway/db"
)

const migrationsTable = "schema_migrations"

// gooseLogger routes goose output to zap.
type gooseLogger struct {
	lg *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.lg.Infof(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.lg.Fatalf(format, v...)
}

// RunMigrations applies the embedded goose migrations through the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, lg *zap.Logger) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer func() { _ = sqlDB.Close() }()

	goose.SetLogger(gooseLogger{lg: lg.Named("goose").Sugar()})
	goose.SetBaseFS(db.Migrations)
	goose.SetTableName(migrationsTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
