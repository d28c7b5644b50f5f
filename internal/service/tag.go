package service

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

// List returns every tag ordered by name
func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	if err := s.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list tags")
	}
	return tags, nil
}

func (s *TagService) Get(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, notFound(err, "tag not found")
	}
	return &tag, nil
}

// Create adds a tag, the slug must be unused
func (s *TagService) Create(ctx context.Context, req *types.CreateTagRequest) (*models.Tag, error) {
	tag := &models.Tag{Name: req.Name, Color: req.Color, Slug: req.Slug}
	if err := s.db.WithContext(ctx).Create(tag).Error; err != nil {
		if isDuplicate(err) {
			return nil, duplicateField("slug", "tag with this slug already exists")
		}
		return nil, errors.Wrap(err, "failed to create tag")
	}
	return tag, nil
}
