package services

import (
	"context"
	"errors"

	"github.com/jemaltech/app2automate/models"
	"github.com/jemaltech/app2automate/repositories"

	"gorm.io/gorm"
)

type TagService interface {
	CreateTag(ctx context.Context, req models.CreateTagRequest) (*models.Tag, error)
	GetTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
}

type tagService struct {
	tagRepo repositories.TagRepository
}

func NewTagService(tagRepo repositories.TagRepository) TagService {
	return &tagService{tagRepo: tagRepo}
}

func (s *tagService) CreateTag(ctx context.Context, req models.CreateTagRequest) (*models.Tag, error) {
	_, err := s.tagRepo.GetByName(ctx, req.Name)
	if err == nil {
		return nil, &models.ErrorConflict{Message: "tag already exists"}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &models.ErrorStorage{Op: "get tag", Err: err}
	}

	tag := &models.Tag{Name: req.Name}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, &models.ErrorStorage{Op: "create tag", Err: err}
	}

	return tag, nil
}

func (s *tagService) GetTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.tagRepo.GetAll(ctx)
	if err != nil {
		return nil, &models.ErrorStorage{Op: "list tags", Err: err}
	}
	return tags, nil
}

func (s *tagService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	tag, err := s.tagRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.ErrorNotFound{Entity: "tag", ID: id}
		}
		return nil, &models.ErrorStorage{Op: "get tag", Err: err}
	}
	return tag, nil
}
