package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/order-gateway/internal/domain/order"
	"github.com/xenking/order-gateway/internal/ingest"
	"github.com/xenking/order-gateway/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000
)

// Creator submits one order.
type Creator interface {
	Create(ctx context.Context, req order.CreateRequest) (int64, error)
}

type stats struct {
	read       atomic.Int64
	duplicates atomic.Int64
	created    atomic.Int64
	rejected   atomic.Int64
}

func main() {
	var (
		databaseURL string
		workers     int
		dryRun      bool
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&workers, "workers", 4, "concurrent create calls")
	flag.BoolVar(&dryRun, "dry-run", false, "validate and deduplicate without writing")
	flag.Usage = func() {
		_, _ = os.Stderr.WriteString("usage: order-import [flags] orders.jsonl[.gz] ...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var creator Creator = validateOnly{}
	if !dryRun {
		pool, err := postgres.NewPool(ctx, databaseURL, postgres.PoolConfig{MaxConns: int32(workers)})
		if err != nil {
			slog.Error("connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()
		creator = order.NewService(postgres.NewProcedures(pool))
	}

	st, err := run(ctx, files, creator, workers)
	slog.Info("order import finished",
		slog.Int64("read", st.read.Load()),
		slog.Int64("duplicates", st.duplicates.Load()),
		slog.Int64("created", st.created.Load()),
		slog.Int64("rejected", st.rejected.Load()),
	)
	if err != nil {
		slog.Error("order import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// validateOnly checks requests without persisting them.
type validateOnly struct{}

func (validateOnly) Create(_ context.Context, req order.CreateRequest) (int64, error) {
	_, err := req.Validate()
	return 0, err
}

// run deduplicates the input lines in a first pass and submits the unique
// ones in a second. Rejected orders are logged and counted; any other error
// stops the import.
func run(ctx context.Context, files []string, creator Creator, workers int) (*stats, error) {
	st := &stats{}
	dedup := ingest.NewDedup(bloomCapacity, bloomFPR)

	slog.Info("pass 1: indexing lines", slog.Int("files", len(files)))
	for _, path := range files {
		if err := ingest.File(ctx, path, func(_ int, line []byte) error {
			dedup.Observe(ingest.Sum(line))
			return nil
		}); err != nil {
			return st, errors.Wrap(err, "index")
		}
	}
	slog.Info("pass 1 complete", slog.Int("suspects", dedup.Suspects()))

	slog.Info("pass 2: creating orders", slog.Int("workers", workers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, path := range files {
		err := ingest.File(gctx, path, func(n int, line []byte) error {
			if st.read.Add(1)%progressEvery == 0 {
				slog.Info("pass 2 progress", slog.Int64("read", st.read.Load()))
			}
			if !dedup.Admit(ingest.Sum(line)) {
				st.duplicates.Add(1)
				return nil
			}
			req, err := order.DecodeCreateRequest(line)
			if err != nil {
				reject(st, path, n, err)
				return nil
			}
			g.Go(func() error {
				return submit(gctx, st, creator, req, path, n)
			})
			return nil
		})
		if err != nil {
			if werr := g.Wait(); werr != nil {
				return st, werr
			}
			return st, errors.Wrap(err, "create")
		}
	}
	if err := g.Wait(); err != nil {
		return st, err
	}
	return st, nil
}

func submit(ctx context.Context, st *stats, creator Creator, req order.CreateRequest, path string, n int) error {
	invoice, err := creator.Create(ctx, req)
	var (
		verr *order.ValidationError
		berr *order.BusinessRuleError
	)
	switch {
	case err == nil:
		st.created.Add(1)
		slog.Debug("order created", slog.String("file", path), slog.Int("line", n), slog.Int64("invoice", invoice))
		return nil
	case errors.As(err, &verr), errors.As(err, &berr):
		reject(st, path, n, err)
		return nil
	default:
		return errors.Wrapf(err, "%s line %d", path, n)
	}
}

func reject(st *stats, path string, n int, err error) {
	st.rejected.Add(1)
	slog.Warn("order rejected",
		slog.String("file", path),
		slog.Int("line", n),
		slog.String("reason", err.Error()),
	)
}
