package worker

// dlq.go: dead receipt jobs
// A job is parked here when its processor still fails after the in-process retries,
// or when it can never succeed. Receipt entries are tagged with their sale and seller,
// so the per-seller listing and log searches never decode payloads. The replay loop
// re-queues entries below MaxDeliveries; the rest wait for manual inspection.
// One Redis list per source queue, newest first: dlq:{original_queue}

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry is one dead job. Attempts counts failed deliveries; MaxDeliveries means
// the entry is never replayed.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	SaleID        string          `json:"sale_id,omitempty"`
	SellerID      string          `json:"seller_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // RFC 3339
	Attempts      int             `json:"attempts"`
}

func deadLetter(queue string, job Job, reason string, attempts int, at time.Time) DLQEntry {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       job.Type,
		Payload:       job.Payload,
		Reason:        reason,
		FailedAt:      at.UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}
	if job.Type == jobTypeReceipt {
		var p ReceiptJobPayload
		if json.Unmarshal(job.Payload, &p) == nil {
			entry.SaleID, entry.SellerID = p.SaleID, p.SellerID
		}
	}
	return entry
}

// SendToDLQ parks job on queue's dead letter list.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string, attempts int) {
	entry := deadLetter(queue, job, reason, attempts, time.Now())
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Str("sale_id", entry.SaleID).Msg("dlq: failed to park job")
		return
	}

	log.Warn().
		Str("job_type", job.Type).
		Str("sale_id", entry.SaleID).
		Str("seller_id", entry.SellerID).
		Str("reason", reason).
		Int("attempts", attempts).
		Bool("replayable", attempts < MaxDeliveries).
		Msg("dlq: receipt job parked")
}

// DLQLength returns the number of entries parked for queue.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// PeekDLQ returns up to n of the most recent entries without removing them.
func PeekDLQ(ctx context.Context, rdb *redis.Client, queue string, n int64) ([]DLQEntry, error) {
	raw, err := rdb.LRange(ctx, DLQPrefix+queue, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]DLQEntry, 0, len(raw))
	for _, r := range raw {
		var e DLQEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// DeadLettersForSeller returns the seller's entries among the n most recent of queue.
func DeadLettersForSeller(ctx context.Context, rdb *redis.Client, queue string, sellerID uuid.UUID, n int64) ([]DLQEntry, error) {
	entries, err := PeekDLQ(ctx, rdb, queue, n)
	if err != nil {
		return nil, err
	}
	scope := sellerID.String()
	out := make([]DLQEntry, 0, len(entries))
	for _, e := range entries {
		if e.SellerID == scope {
			out = append(out, e)
		}
	}
	return out, nil
}
