package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jemaltech/app2automate/metrics"
	"github.com/jemaltech/app2automate/models"
	"github.com/jemaltech/app2automate/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SearchIndex is the search index as seen by the reconciler.
type SearchIndex interface {
	PostIndexer
	EnsureIndex(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

type ReconcilerConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// MinAge leaves fresh entries to the request that wrote them.
	MinAge    time.Duration
	Retention time.Duration
}

type ReconcileResult struct {
	Applied  int `json:"applied"`
	Failed   int `json:"failed"`
	// Deferred entries raced a newer write and are retried next pass.
	Deferred int `json:"deferred"`
}

type applyOutcome struct {
	settled bool
	err     error
}

type IndexStatus struct {
	Outbox           models.OutboxStats `json:"outbox"`
	IndexedDocuments int64              `json:"indexed_documents"`
	IndexError       string             `json:"index_error,omitempty"`
}

// Reconciler drains the index outbox. For every pending entry it re-reads the
// post from the primary store and writes whatever is there now. An entry is
// settled only when no newer entry for the post appeared while it was being
// applied; otherwise it stays pending and the next pass reads again.
type Reconciler struct {
	posts  repositories.PostRepository
	outbox repositories.IndexOutboxRepository
	index  SearchIndex
	cfg    ReconcilerConfig
	log    *zap.Logger
	now    func() time.Time
}

func NewReconciler(
	posts repositories.PostRepository,
	outbox repositories.IndexOutboxRepository,
	index SearchIndex,
	cfg ReconcilerConfig,
	log *zap.Logger,
) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	return &Reconciler{
		posts:  posts,
		outbox: outbox,
		index:  index,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// Run reconciles every Interval until ctx is cancelled. Processed entries
// older than Retention are purged once an hour.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	var lastPurge time.Time
	for {
		select {
		case <-ctx.Done():
			r.log.Info("reconciler stopped")
			return
		case <-ticker.C:
			res, err := r.ReconcileOnce(ctx)
			if err != nil {
				r.log.Error("reconcile failed", zap.Error(err))
			} else if res.Applied > 0 || res.Failed > 0 || res.Deferred > 0 {
				r.log.Info("reconciled search index",
					zap.Int("applied", res.Applied),
					zap.Int("failed", res.Failed),
					zap.Int("deferred", res.Deferred),
				)
			}

			if r.cfg.Retention > 0 && r.now().Sub(lastPurge) >= time.Hour {
				if n, err := r.Purge(ctx); err != nil {
					r.log.Error("outbox purge failed", zap.Error(err))
				} else if n > 0 {
					r.log.Info("purged processed outbox entries", zap.Int64("count", n))
				}
				lastPurge = r.now()
			}
		}
	}
}

// ReconcileOnce applies one batch of pending outbox entries.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult

	entries, err := r.outbox.ListPending(ctx, r.cfg.BatchSize, r.cfg.MaxRetries, r.now().Add(-r.cfg.MinAge))
	if err != nil {
		return res, fmt.Errorf("list pending outbox entries: %w", err)
	}

	applied := make(map[uint]applyOutcome, len(entries))
	for _, entry := range entries {
		outcome, seen := applied[entry.PostID]
		if !seen {
			outcome = r.apply(ctx, entry.PostID)
			applied[entry.PostID] = outcome
		}

		if applyErr := outcome.err; applyErr != nil {
			res.Failed++
			metrics.IndexReconciled.WithLabelValues(string(entry.Operation), "error").Inc()
			r.log.Warn("reconcile entry failed",
				zap.Uint64("outbox_id", entry.ID),
				zap.Uint("post_id", entry.PostID),
				zap.Int("retry_count", entry.RetryCount+1),
				zap.Error(applyErr),
			)
			if err := r.outbox.MarkError(ctx, entry.ID, applyErr.Error()); err != nil {
				return res, fmt.Errorf("mark outbox entry %d failed: %w", entry.ID, err)
			}
			continue
		}

		if !outcome.settled {
			res.Deferred++
			continue
		}

		res.Applied++
		metrics.IndexReconciled.WithLabelValues(string(entry.Operation), "ok").Inc()
		if err := r.outbox.MarkProcessed(ctx, entry.ID); err != nil {
			return res, fmt.Errorf("mark outbox entry %d processed: %w", entry.ID, err)
		}
	}

	if stats, err := r.outbox.Stats(ctx, r.cfg.MaxRetries); err == nil {
		metrics.OutboxPending.Set(float64(stats.Pending))
	}

	return res, nil
}

// apply makes the index match the primary store for one post. The outcome
// is unsettled when the post was written again while apply ran.
func (r *Reconciler) apply(ctx context.Context, postID uint) applyOutcome {
	before, err := r.outbox.LatestID(ctx, postID)
	if err != nil {
		return applyOutcome{err: &models.ErrorStorage{Op: "latest outbox entry", Err: err}}
	}
	if err := r.sync(ctx, postID); err != nil {
		return applyOutcome{err: err}
	}
	after, err := r.outbox.LatestID(ctx, postID)
	if err != nil {
		return applyOutcome{err: &models.ErrorStorage{Op: "latest outbox entry", Err: err}}
	}
	return applyOutcome{settled: after == before}
}

func (r *Reconciler) sync(ctx context.Context, postID uint) error {
	post, err := r.posts.FindOneWithTags(ctx, postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.index.DeleteByID(ctx, postID)
	}
	if err != nil {
		return &models.ErrorStorage{Op: "get post", Err: err}
	}
	return r.index.Save(ctx, models.NewPostDocument(post))
}

// Purge removes processed entries older than Retention.
func (r *Reconciler) Purge(ctx context.Context) (int64, error) {
	if r.cfg.Retention <= 0 {
		return 0, nil
	}
	return r.outbox.PurgeProcessed(ctx, r.now().Add(-r.cfg.Retention))
}

// Reindex writes every post in the primary store to the index, creating the
// index first when it is missing. It returns the number of posts written.
func (r *Reconciler) Reindex(ctx context.Context) (int, error) {
	if err := r.index.EnsureIndex(ctx); err != nil {
		return 0, fmt.Errorf("ensure index: %w", err)
	}

	var count int
	var afterID uint
	for {
		posts, err := r.posts.FindBatch(ctx, afterID, r.cfg.BatchSize)
		if err != nil {
			return count, &models.ErrorStorage{Op: "reindex posts", Err: err}
		}
		if len(posts) == 0 {
			return count, nil
		}

		for i := range posts {
			if err := r.index.Save(ctx, models.NewPostDocument(&posts[i])); err != nil {
				return count, fmt.Errorf("index post %d: %w", posts[i].ID, err)
			}
			count++
		}
		afterID = posts[len(posts)-1].ID
		r.log.Debug("reindexed batch", zap.Int("total", count), zap.Uint("last_id", afterID))
	}
}

// Status reports outbox backlog and index size. An unreachable index is
// reported in the result rather than as an error.
func (r *Reconciler) Status(ctx context.Context) (*IndexStatus, error) {
	stats, err := r.outbox.Stats(ctx, r.cfg.MaxRetries)
	if err != nil {
		return nil, &models.ErrorStorage{Op: "outbox stats", Err: err}
	}
	metrics.OutboxPending.Set(float64(stats.Pending))

	status := &IndexStatus{Outbox: *stats}
	if n, err := r.index.Count(ctx); err != nil {
		status.IndexError = err.Error()
	} else {
		status.IndexedDocuments = n
	}
	return status, nil
}
