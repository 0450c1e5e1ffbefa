package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/order-gateway/internal/domain/order"
)

type recordingCreator struct {
	mu    sync.Mutex
	calls []order.CreateRequest
	err   func(req order.CreateRequest) error
}

func (c *recordingCreator) Create(_ context.Context, req order.CreateRequest) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)
	if c.err != nil {
		if err := c.err(req); err != nil {
			return 0, err
		}
	}
	return int64(len(c.calls)), nil
}

const (
	orderA = `{"invoiceData":{"invoiceDate":"2024-12-20","customerId":"3f0b2c1e-8c5a-4b7e-9d2a-1a2b3c4d5e6f"},"products":[{"productId":"0e1d2c3b-4a59-4687-9a1b-2c3d4e5f6a7b","quantity":2}]}`
	orderB = `{"invoiceData":{"invoiceDate":"2024-12-21","customerId":"7a9e4d21-2f6b-4c3a-8e1f-0b9c8d7e6f5a"},"products":[{"productId":"0e1d2c3b-4a59-4687-9a1b-2c3d4e5f6a7b","quantity":1}]}`
)

func writeFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func TestRun_DeduplicatesAcrossFiles(t *testing.T) {
	first := writeFile(t, orderA, orderB, orderA)
	second := writeFile(t, orderB)
	c := &recordingCreator{}

	st, err := run(context.Background(), []string{first, second}, c, 2)
	require.NoError(t, err)

	assert.EqualValues(t, 4, st.read.Load())
	assert.EqualValues(t, 2, st.duplicates.Load())
	assert.EqualValues(t, 2, st.created.Load())
	assert.Len(t, c.calls, 2)
}

func TestRun_RejectionsAreCounted(t *testing.T) {
	path := writeFile(t, orderA, `{not json`, orderB)
	c := &recordingCreator{err: func(req order.CreateRequest) error {
		if req.InvoiceDate == "2024-12-21" {
			return &order.BusinessRuleError{Code: order.CodeUnknownProduct, Message: "Product does not exist"}
		}
		return nil
	}}

	st, err := run(context.Background(), []string{path}, c, 1)
	require.NoError(t, err)

	assert.EqualValues(t, 1, st.created.Load())
	assert.EqualValues(t, 2, st.rejected.Load())
	assert.Len(t, c.calls, 2, "malformed line never reaches the creator")
}

func TestRun_InternalErrorStops(t *testing.T) {
	path := writeFile(t, orderA)
	boom := errors.New("connection reset")
	c := &recordingCreator{err: func(order.CreateRequest) error { return boom }}

	_, err := run(context.Background(), []string{path}, c, 1)
	require.ErrorIs(t, err, boom)
}

func TestValidateOnly(t *testing.T) {
	req, err := order.DecodeCreateRequest([]byte(orderA))
	require.NoError(t, err)
	_, err = validateOnly{}.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = validateOnly{}.Create(context.Background(), order.CreateRequest{})
	var verr *order.ValidationError
	require.ErrorAs(t, err, &verr)
}
