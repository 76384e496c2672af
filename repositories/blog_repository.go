package repositories

import (
	"context"

	"github.com/jemaltech/app2automate/models"

	"gorm.io/gorm"
)

type BlogRepository interface {
	Create(ctx context.Context, blog *models.Blog) error
	GetByID(ctx context.Context, id uint) (*models.Blog, error)
	GetByHandle(ctx context.Context, handle string) (*models.Blog, error)
	GetByUser(ctx context.Context, userID uint) ([]models.Blog, error)
}

type blogRepository struct {
	db *gorm.DB
}

func NewBlogRepository(db *gorm.DB) BlogRepository {
	return &blogRepository{db: db}
}

func (r *blogRepository) Create(ctx context.Context, blog *models.Blog) error {
	return r.db.WithContext(ctx).Create(blog).Error
}

func (r *blogRepository) GetByID(ctx context.Context, id uint) (*models.Blog, error) {
	var blog models.Blog
	err := r.db.WithContext(ctx).First(&blog, id).Error
	return &blog, err
}

func (r *blogRepository) GetByHandle(ctx context.Context, handle string) (*models.Blog, error) {
	var blog models.Blog
	err := r.db.WithContext(ctx).Where("handle = ?", handle).First(&blog).Error
	return &blog, err
}

func (r *blogRepository) GetByUser(ctx context.Context, userID uint) ([]models.Blog, error) {
	var blogs []models.Blog
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name asc").Find(&blogs).Error
	return blogs, err
}
