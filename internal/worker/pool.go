package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReceipts = "jobs:receipts"

	jobTypeReceipt = "receipt"
)

// Job is the generic envelope for all async tasks.
// Deliveries counts earlier failed deliveries of the same job (set when replayed from the DLQ).
type Job struct {
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Deliveries int             `json:"deliveries,omitempty"`
}

// ErrPermanent marks processor failures that no replay can fix (bad payload, missing sale).
var ErrPermanent = errors.New("permanent job failure")

// Processor handles the payload of one job type. A returned error moves the job to the DLQ.
type Processor interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP. A nil Dispatcher drops jobs silently.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReceipt pushes a receipt rendering job for a committed sale.
func (d *Dispatcher) EnqueueReceipt(ctx context.Context, sellerID, saleID uuid.UUID) error {
	return d.enqueue(ctx, QueueReceipts, jobTypeReceipt, ReceiptJobPayload{
		SaleID:   saleID.String(),
		SellerID: sellerID.String(),
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d == nil || d.rdb == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb        *redis.Client
	processors map[string]Processor
	queues     []string
	wg         sync.WaitGroup
}

func NewPool(rdb *redis.Client, receipts Processor) *Pool {
	return &Pool{
		rdb:        rdb,
		processors: map[string]Processor{jobTypeReceipt: receipts},
		queues:     []string{QueueReceipts},
	}
}

// Start launches numWorkers goroutines. Each blocks on BRPOP, zero CPU when idle.
// They exit when ctx is cancelled; Wait blocks until they have.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			p.processJob(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		// Keep the raw text as a JSON string; it is not valid JSON itself.
		quoted, _ := json.Marshal(raw)
		SendToDLQ(ctx, p.rdb, queue, Job{Type: "unknown", Payload: quoted}, "malformed job envelope", MaxDeliveries)
		return
	}
	proc, ok := p.processors[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job, "no processor for job type", MaxDeliveries)
		return
	}
	if err := proc.Process(ctx, job.Payload); err != nil {
		deliveries := job.Deliveries + 1
		if errors.Is(err, ErrPermanent) {
			deliveries = MaxDeliveries
		}
		SendToDLQ(ctx, p.rdb, queue, job, err.Error(), deliveries)
		return
	}
	log.Debug().Str("type", job.Type).Str("queue", queue).Msg("job processed")
}

// maxAttempts bounds withRetry for every processor.
const maxAttempts = 3

// withRetry calls fn up to attempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, attempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
