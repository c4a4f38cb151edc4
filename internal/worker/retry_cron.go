package worker

// retry_cron.go
// Background goroutine that periodically moves dead-lettered receipt jobs back onto
// their queue. Entries that already failed MaxDeliveries times, or were marked
// permanent, stay in the DLQ for manual inspection. The render breaker is checked
// first so a broken storage volume is not hammered with replays.

import (
	"context"
	"encoding/json"
	"time"

	"backoffice/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// MaxDeliveries bounds how many times one job is delivered to its processor.
	MaxDeliveries = 3

	replayTickInterval = time.Minute
	replayBatchSize    = 20
)

// RetryCronConfig holds the dependencies of the replay goroutine.
type RetryCronConfig struct {
	RDB      *redis.Client
	Breaker  *infra.Breaker // may be nil
	Interval time.Duration  // defaults to one minute
}

// StartRetryCron launches the replay goroutine. It stops when ctx is cancelled.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = replayTickInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("retry_cron: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				if cfg.Breaker.State() == infra.BreakerOpen {
					log.Debug().Msg("retry_cron: render breaker is open, skipping tick")
					continue
				}
				n, err := ReplayDeadLetters(ctx, cfg.RDB, QueueReceipts, replayBatchSize)
				if err != nil {
					log.Error().Err(err).Msg("retry_cron: replay failed")
					continue
				}
				if n > 0 {
					log.Info().Int("count", n).Msg("retry_cron: dead letters re-queued")
				}
			}
		}
	}()
}

// replayScript moves one DLQ entry back onto its queue. It is a no-op when another
// replayer already removed the entry.
var replayScript = redis.NewScript(`
if redis.call('LREM', KEYS[1], 1, ARGV[1]) == 1 then
  redis.call('LPUSH', KEYS[2], ARGV[2])
  return 1
end
return 0
`)

// ReplayDeadLetters re-queues up to batch of the oldest replayable entries of queue's DLQ
// and returns how many were moved.
func ReplayDeadLetters(ctx context.Context, rdb *redis.Client, queue string, batch int) (int, error) {
	dlqKey := DLQPrefix + queue
	// SendToDLQ uses LPUSH, so the oldest entries sit at the tail.
	raw, err := rdb.LRange(ctx, dlqKey, int64(-batch), -1).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for i := len(raw) - 1; i >= 0; i-- {
		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw[i]), &entry); err != nil {
			continue
		}
		if entry.Attempts >= MaxDeliveries {
			continue
		}
		job, err := json.Marshal(Job{Type: entry.JobType, Payload: entry.Payload, Deliveries: entry.Attempts})
		if err != nil {
			continue
		}

		n, err := replayScript.Run(ctx, rdb, []string{dlqKey, queue}, raw[i], job).Int()
		if err != nil {
			return moved, err
		}
		moved += n
	}
	return moved, nil
}
