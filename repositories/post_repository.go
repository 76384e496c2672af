package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jemaltech/app2automate/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostRepository interface {
	Save(ctx context.Context, post *models.Post, tagNames []string) (uint64, error)
	FindOneWithTags(ctx context.Context, id uint) (*models.Post, error)
	FindByBlogUser(ctx context.Context, userID uint, page models.PageRequest) ([]models.Post, int64, error)
	DeleteByID(ctx context.Context, id uint) (uint64, error)
	FindBatch(ctx context.Context, afterID uint, limit int) ([]models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Save inserts the post when it has no id and updates it otherwise. Tags are
// resolved by name, created when missing, and replace the post's current
// set. The UPSERT outbox row is written in the same transaction and its id
// returned.
func (r *postRepository) Save(ctx context.Context, post *models.Post, tagNames []string) (uint64, error) {
	var outboxID uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, tagNames)
		if err != nil {
			return err
		}

		if post.ID == 0 {
			err = tx.Omit(clause.Associations).Create(post).Error
		} else {
			err = tx.Omit(clause.Associations).Save(post).Error
		}
		if err != nil {
			return err
		}

		if err := replacePostTags(tx, post.ID, tags); err != nil {
			return err
		}
		post.Tags = tags

		outboxID, err = recordIndexIntent(tx, post.ID, models.IndexOperationUpsert)
		return err
	})
	return outboxID, err
}

func (r *postRepository) FindOneWithTags(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Preload("Blog").
		First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// FindByBlogUser pages through the posts of every blog owned by userID,
// newest first. A sort of "field,dir" on id, title or date breaks ties.
func (r *postRepository) FindByBlogUser(ctx context.Context, userID uint, page models.PageRequest) ([]models.Post, int64, error) {
	var posts []models.Post
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Post{}).
		Joins("JOIN blogs ON blogs.id = posts.blog_id AND blogs.deleted_at IS NULL").
		Where("blogs.user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("posts.date desc")
	if order := postSortOrder(page.Sort); order != "" {
		query = query.Order(order)
	}
	query = query.Order("posts.id desc")

	err := query.
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Preload("Blog").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&posts).Error

	return posts, total, err
}

// DeleteByID removes the post and its tag links and queues a DELETE for the
// search index. Deleting an unknown id only queues the DELETE.
func (r *postRepository) DeleteByID(ctx context.Context, id uint) (uint64, error) {
	var outboxID uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Post{}, id).Error; err != nil {
			return err
		}
		var err error
		outboxID, err = recordIndexIntent(tx, id, models.IndexOperationDelete)
		return err
	})
	return outboxID, err
}

// FindBatch returns up to limit posts with id greater than afterID, in id order.
func (r *postRepository) FindBatch(ctx context.Context, afterID uint, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Preload("Blog").
		Where("id > ?", afterID).
		Order("id asc").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// resolveTags returns the tags named by names, inserting the missing ones.
// Concurrent first use of a name is absorbed by the unique index.
func resolveTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return []models.Tag{}, nil
	}

	fresh := make([]models.Tag, 0, len(names))
	for _, name := range names {
		fresh = append(fresh, models.Tag{Name: name})
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("create tags: %w", err)
	}

	var tags []models.Tag
	if err := tx.Where("name IN ?", names).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func replacePostTags(tx *gorm.DB, postID uint, tags []models.Tag) error {
	if err := tx.Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	links := make([]models.PostTag, 0, len(tags))
	for _, t := range tags {
		links = append(links, models.PostTag{PostID: postID, TagID: t.ID})
	}
	return tx.Create(&links).Error
}

var postSortColumns = map[string]string{
	"id":    "posts.id",
	"title": "posts.title",
	"date":  "posts.date",
}

// postSortOrder turns "field,dir" into an ORDER BY term. Unknown fields yield "".
func postSortOrder(sort string) string {
	field, dir, _ := strings.Cut(sort, ",")
	column, ok := postSortColumns[strings.TrimSpace(field)]
	if !ok {
		return ""
	}
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return column + " asc"
	}
	return column + " desc"
}
