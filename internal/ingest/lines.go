// Package ingest streams JSON-lines input files for the offline tools.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
)

// MaxLineBytes bounds a single input line.
const MaxLineBytes = 1 << 20

// Open opens path for reading. Files ending in .gz are decompressed with
// pgzip.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := pgzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "gzip reader for %s", path)
	}
	return &gzipFile{Reader: gz, f: f}, nil
}

type gzipFile struct {
	*pgzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	zerr := g.Reader.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return zerr
}

// Lines calls fn for every non-blank line of r with its 1-based number.
// The slice is only valid during the call.
func Lines(ctx context.Context, r io.Reader, fn func(n int, line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	n := 0
	for sc.Scan() {
		n++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(n, line); err != nil {
			return errors.Wrapf(err, "line %d", n)
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "scan")
	}
	return nil
}

// File opens path and streams its lines to fn.
func File(ctx context.Context, path string, fn func(n int, line []byte) error) error {
	rc, err := Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	if err := Lines(ctx, rc, fn); err != nil {
		return errors.Wrap(err, path)
	}
	return nil
}
