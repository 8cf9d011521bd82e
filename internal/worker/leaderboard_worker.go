package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/model"
)

const (
	LeaderboardBatchSize    = 50
	LeaderboardBatchTimeout = 2 * time.Second
	LeaderboardPollTimeout  = 1 * time.Second
	// LeaderboardRetryDelay is the pause after a failed pop, e.g. while Redis is down.
	LeaderboardRetryDelay = 1 * time.Second
)

// LeaderboardStore is the Redis side of the leaderboard.
type LeaderboardStore interface {
	Enqueue(ctx context.Context, e model.LeaderboardEntry) error
	Pop(ctx context.Context, timeout time.Duration) (*model.LeaderboardEntry, error)
	Apply(ctx context.Context, entries []model.LeaderboardEntry) ([]model.LeaderboardEntry, error)
	Publish(ctx context.Context, changed []model.LeaderboardEntry) error
}

// LeaderboardWorker drains fresh results from the queue into the sorted set
// and announces the entries that moved.
type LeaderboardWorker struct {
	board      LeaderboardStore
	retryDelay time.Duration
	log        zerolog.Logger
}

func NewLeaderboardWorker(board LeaderboardStore, log zerolog.Logger) *LeaderboardWorker {
	return &LeaderboardWorker{
		board:      board,
		retryDelay: LeaderboardRetryDelay,
		log:        log.With().Str("component", "leaderboard_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *LeaderboardWorker) Start(ctx context.Context) {
	w.log.Info().Msg("LeaderboardWorker started")

	batch := make([]model.LeaderboardEntry, 0, LeaderboardBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= LeaderboardBatchSize || time.Since(lastFlush) >= LeaderboardBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			e, err := w.board.Pop(ctx, LeaderboardPollTimeout)
			if err != nil {
				if ctx.Err() == nil {
					w.log.Error().Err(err).Dur("retry_in", w.retryDelay).Msg("Queue pop failed")
					w.sleep(ctx)
				}
				continue
			}
			if e == nil {
				continue
			}
			batch = append(batch, *e)
		}
	}
}

// sleep waits retryDelay or until ctx is cancelled.
func (w *LeaderboardWorker) sleep(ctx context.Context) {
	t := time.NewTimer(w.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ----------------------------------------------------------------
// Flush
// ----------------------------------------------------------------

func (w *LeaderboardWorker) flushSafe(ctx context.Context, batch []model.LeaderboardEntry) {
	if len(batch) == 0 {
		return
	}

	best := collapse(batch)
	changed, err := w.board.Apply(ctx, best)
	if err != nil {
		w.log.Error().Err(err).Int("entries", len(best)).Msg("Leaderboard update failed, requeueing")
		w.requeue(ctx, best)
		return
	}
	if len(changed) == 0 {
		return
	}

	if err := w.board.Publish(ctx, changed); err != nil {
		// the board itself is already current; live clients catch up on reconnect
		w.log.Warn().Err(err).Msg("Leaderboard publish failed")
	}
	w.log.Debug().Int("received", len(batch)).Int("changed", len(changed)).Msg("Leaderboard flushed")
}

func (w *LeaderboardWorker) requeue(ctx context.Context, entries []model.LeaderboardEntry) {
	for _, e := range entries {
		if err := w.board.Enqueue(ctx, e); err != nil {
			w.log.Error().Err(err).Str("user_id", e.UserID.String()).Msg("Requeue failed, entry dropped")
		}
	}
}

// collapse keeps the best entry of each user, preserving first-seen order.
func collapse(batch []model.LeaderboardEntry) []model.LeaderboardEntry {
	index := make(map[uuid.UUID]int, len(batch))
	out := make([]model.LeaderboardEntry, 0, len(batch))
	for _, e := range batch {
		i, seen := index[e.UserID]
		if !seen {
			index[e.UserID] = len(out)
			out = append(out, e)
			continue
		}
		if e.Beats(out[i]) {
			out[i] = e
		}
	}
	return out
}
