package models

import "time"

type IndexOperation string

const (
	IndexOperationUpsert IndexOperation = "UPSERT"
	IndexOperationDelete IndexOperation = "DELETE"
)

// IndexOutbox records a pending search index mutation. Rows are written in
// the same transaction as the primary store change they describe, so a row
// exists for every committed Post mutation whether or not the index write
// that follows it succeeds.
type IndexOutbox struct {
	ID           uint64         `json:"id" gorm:"primaryKey;autoIncrement"`
	PostID       uint           `json:"post_id" gorm:"not null;index"`
	Operation    IndexOperation `json:"operation" gorm:"not null"`
	CreatedAt    time.Time      `json:"created_at" gorm:"not null;index"`
	ProcessedAt  *time.Time     `json:"processed_at,omitempty" gorm:"index"`
	ErrorMessage string         `json:"error_message,omitempty" gorm:"type:text"`
	RetryCount   int            `json:"retry_count" gorm:"default:0"`
}

func (IndexOutbox) TableName() string {
	return "index_outbox"
}

func (o *IndexOutbox) IsProcessed() bool {
	return o.ProcessedAt != nil
}

// OutboxStats summarises the outbox for the status endpoint and metrics.
type OutboxStats struct {
	Pending           int64      `json:"pending"`
	Failed            int64      `json:"failed"`
	Exhausted         int64      `json:"exhausted"`
	OldestPendingTime *time.Time `json:"oldest_pending_time,omitempty"`
}
