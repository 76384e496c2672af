package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jemaltech/app2automate/models"

	"gorm.io/gorm"
)

type IndexOutboxRepository interface {
	ListPending(ctx context.Context, limit, maxRetries int, createdBefore time.Time) ([]models.IndexOutbox, error)
	MarkProcessed(ctx context.Context, id uint64) error
	MarkError(ctx context.Context, id uint64, message string) error
	LatestID(ctx context.Context, postID uint) (uint64, error)
	Stats(ctx context.Context, maxRetries int) (*models.OutboxStats, error)
	PurgeProcessed(ctx context.Context, before time.Time) (int64, error)
}

type indexOutboxRepository struct {
	db *gorm.DB
}

func NewIndexOutboxRepository(db *gorm.DB) IndexOutboxRepository {
	return &indexOutboxRepository{db: db}
}

// recordIndexIntent must run inside the transaction that changed the post.
func recordIndexIntent(tx *gorm.DB, postID uint, op models.IndexOperation) (uint64, error) {
	entry := &models.IndexOutbox{
		PostID:    postID,
		Operation: op,
		CreatedAt: time.Now(),
	}
	if err := tx.Create(entry).Error; err != nil {
		return 0, err
	}
	return entry.ID, nil
}

// ListPending returns unprocessed entries with retries left, oldest first.
// Entries newer than createdBefore are skipped so that the request which
// wrote them gets the first attempt.
func (r *indexOutboxRepository) ListPending(ctx context.Context, limit, maxRetries int, createdBefore time.Time) ([]models.IndexOutbox, error) {
	var entries []models.IndexOutbox
	query := r.db.WithContext(ctx).
		Where("processed_at IS NULL AND retry_count < ? AND created_at <= ?", maxRetries, createdBefore).
		Order("created_at ASC").
		Order("id ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&entries).Error
	return entries, err
}

func (r *indexOutboxRepository) MarkProcessed(ctx context.Context, id uint64) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.IndexOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed_at":  &now,
			"error_message": "",
		}).Error
}

func (r *indexOutboxRepository) MarkError(ctx context.Context, id uint64, message string) error {
	return r.db.WithContext(ctx).
		Model(&models.IndexOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"error_message": message,
			"retry_count":   gorm.Expr("retry_count + 1"),
		}).Error
}

// LatestID returns the id of the newest entry for the post, or 0 when there
// is none. Writers lock the post row before inserting their entry, so for one
// post a higher id always belongs to a later commit.
func (r *indexOutboxRepository) LatestID(ctx context.Context, postID uint) (uint64, error) {
	var id uint64
	err := r.db.WithContext(ctx).
		Model(&models.IndexOutbox{}).
		Select("COALESCE(MAX(id), 0)").
		Where("post_id = ?", postID).
		Scan(&id).Error
	return id, err
}

func (r *indexOutboxRepository) Stats(ctx context.Context, maxRetries int) (*models.OutboxStats, error) {
	stats := &models.OutboxStats{}
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.IndexOutbox{}).
		Where("processed_at IS NULL").
		Count(&stats.Pending).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.IndexOutbox{}).
		Where("processed_at IS NULL AND error_message <> ''").
		Count(&stats.Failed).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.IndexOutbox{}).
		Where("processed_at IS NULL AND retry_count >= ?", maxRetries).
		Count(&stats.Exhausted).Error; err != nil {
		return nil, err
	}

	var oldest models.IndexOutbox
	err := db.Where("processed_at IS NULL").Order("created_at ASC").First(&oldest).Error
	switch {
	case err == nil:
		stats.OldestPendingTime = &oldest.CreatedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	return stats, nil
}

// PurgeProcessed deletes entries processed before the given time.
func (r *indexOutboxRepository) PurgeProcessed(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("processed_at IS NOT NULL AND processed_at < ?", before).
		Delete(&models.IndexOutbox{})
	return res.RowsAffected, res.Error
}
