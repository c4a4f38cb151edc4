//go:build integration

package worker

// Queue, DLQ and replay behaviour against a real Redis via testcontainers.
// Run with: go test -tags integration ./internal/worker/... -v

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// scriptedProcessor fails with the queued errors, then succeeds.
type scriptedProcessor struct {
	mu   sync.Mutex
	errs []error
	seen []ReceiptJobPayload
}

func (p *scriptedProcessor) Process(_ context.Context, raw json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var payload ReceiptJobPayload
	_ = json.Unmarshal(raw, &payload)
	p.seen = append(p.seen, payload)
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return err
	}
	return nil
}

func (p *scriptedProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

func dlqLen(t *testing.T, rdb *redis.Client) int64 {
	t.Helper()
	n, err := DLQLength(context.Background(), rdb, QueueReceipts)
	require.NoError(t, err)
	return n
}

func TestPool_FailedJobIsReplayedUntilItSucceeds(t *testing.T) {
	rdb := startRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proc := &scriptedProcessor{errs: []error{errors.New("storage offline")}}
	pool := NewPool(rdb, proc)
	pool.Start(ctx, 1)
	defer func() { cancel(); pool.Wait() }()

	seller, sale := uuid.New(), uuid.New()
	require.NoError(t, NewDispatcher(rdb).EnqueueReceipt(ctx, seller, sale))

	require.Eventually(t, func() bool { return dlqLen(t, rdb) == 1 }, 15*time.Second, 100*time.Millisecond)
	entries, err := PeekDLQ(ctx, rdb, QueueReceipts, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Attempts)
	assert.Equal(t, "storage offline", entries[0].Reason)
	assert.Equal(t, sale.String(), entries[0].SaleID)
	assert.Equal(t, seller.String(), entries[0].SellerID)

	n, err := ReplayDeadLetters(ctx, rdb, QueueReceipts, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Eventually(t, func() bool { return proc.count() == 2 }, 15*time.Second, 100*time.Millisecond)
	assert.Equal(t, int64(0), dlqLen(t, rdb))
	assert.Equal(t, sale.String(), proc.seen[1].SaleID)
	assert.Equal(t, seller.String(), proc.seen[1].SellerID)
}

func TestReplayDeadLetters_SkipsExhaustedAndPermanentEntries(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()

	payload := json.RawMessage(`{"sale_id":"x","seller_id":"y"}`)
	SendToDLQ(ctx, rdb, QueueReceipts, Job{Type: jobTypeReceipt, Payload: payload}, "exhausted", MaxDeliveries)
	SendToDLQ(ctx, rdb, QueueReceipts, Job{Type: jobTypeReceipt, Payload: payload}, "transient", 1)

	n, err := ReplayDeadLetters(ctx, rdb, QueueReceipts, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(1), dlqLen(t, rdb))

	raw, err := rdb.RPop(ctx, QueueReceipts).Result()
	require.NoError(t, err)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	assert.Equal(t, jobTypeReceipt, job.Type)
	assert.Equal(t, 1, job.Deliveries)
	assert.JSONEq(t, string(payload), string(job.Payload))

	remaining, err := PeekDLQ(ctx, rdb, QueueReceipts, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "exhausted", remaining[0].Reason)
}

func TestPool_PermanentFailureIsNotReplayable(t *testing.T) {
	rdb := startRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proc := &scriptedProcessor{errs: []error{ErrPermanent}}
	pool := NewPool(rdb, proc)
	pool.Start(ctx, 1)
	defer func() { cancel(); pool.Wait() }()

	require.NoError(t, NewDispatcher(rdb).EnqueueReceipt(ctx, uuid.New(), uuid.New()))
	require.Eventually(t, func() bool { return dlqLen(t, rdb) == 1 }, 15*time.Second, 100*time.Millisecond)

	n, err := ReplayDeadLetters(ctx, rdb, QueueReceipts, 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPool_MalformedEnvelopeGoesToDLQ(t *testing.T) {
	rdb := startRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := NewPool(rdb, &scriptedProcessor{})
	pool.Start(ctx, 1)
	defer func() { cancel(); pool.Wait() }()

	require.NoError(t, rdb.LPush(ctx, QueueReceipts, "not json").Err())
	require.Eventually(t, func() bool { return dlqLen(t, rdb) == 1 }, 15*time.Second, 100*time.Millisecond)

	entries, err := PeekDLQ(ctx, rdb, QueueReceipts, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "malformed job envelope", entries[0].Reason)
	assert.Equal(t, MaxDeliveries, entries[0].Attempts)
}
