package services

import (
	"context"
	"errors"

	"github.com/jemaltech/app2automate/models"
	"github.com/jemaltech/app2automate/repositories"

	"gorm.io/gorm"
)

type BlogService interface {
	CreateBlog(ctx context.Context, principal Principal, req models.CreateBlogRequest) (*models.Blog, error)
	GetBlogs(ctx context.Context, principal Principal) ([]models.Blog, error)
	GetBlog(ctx context.Context, principal Principal, id uint) (*models.Blog, error)
}

type blogService struct {
	blogRepo repositories.BlogRepository
}

func NewBlogService(blogRepo repositories.BlogRepository) BlogService {
	return &blogService{blogRepo: blogRepo}
}

func (s *blogService) CreateBlog(ctx context.Context, principal Principal, req models.CreateBlogRequest) (*models.Blog, error) {
	_, err := s.blogRepo.GetByHandle(ctx, req.Handle)
	if err == nil {
		return nil, &models.ErrorConflict{Message: "blog handle already in use"}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &models.ErrorStorage{Op: "get blog", Err: err}
	}

	blog := &models.Blog{
		Name:   req.Name,
		Handle: req.Handle,
		UserID: principal.UserID,
	}
	if err := s.blogRepo.Create(ctx, blog); err != nil {
		return nil, &models.ErrorStorage{Op: "create blog", Err: err}
	}
	return blog, nil
}

func (s *blogService) GetBlogs(ctx context.Context, principal Principal) ([]models.Blog, error) {
	blogs, err := s.blogRepo.GetByUser(ctx, principal.UserID)
	if err != nil {
		return nil, &models.ErrorStorage{Op: "list blogs", Err: err}
	}
	return blogs, nil
}

// GetBlog hides blogs of other users behind NotFound.
func (s *blogService) GetBlog(ctx context.Context, principal Principal, id uint) (*models.Blog, error) {
	blog, err := s.blogRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.ErrorNotFound{Entity: "blog", ID: id}
		}
		return nil, &models.ErrorStorage{Op: "get blog", Err: err}
	}
	if !principal.Owns(blog) {
		return nil, &models.ErrorNotFound{Entity: "blog", ID: id}
	}
	return blog, nil
}
