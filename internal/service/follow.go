package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// FollowService manages subscriptions between users
type FollowService struct {
	db    *gorm.DB
	users *UserService
}

func NewFollowService(db *gorm.DB, users *UserService) *FollowService {
	return &FollowService{db: db, users: users}
}

// Subscribe makes userID follow authorID and returns the author with a recipe preview.
// recipesLimit <= 0 returns every recipe.
func (s *FollowService) Subscribe(ctx context.Context, userID, authorID uuid.UUID, recipesLimit int) (*types.FollowResponse, error) {
	author, err := s.users.Get(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if userID == authorID {
		return nil, withDetail(ErrSelfReference, "you cannot subscribe to yourself")
	}

	row := &models.Follow{UserID: userID, AuthorID: authorID}
	pair := map[string]interface{}{"user_id": userID, "author_id": authorID}
	if err := addRelation(ctx, s.db, row, pair, "you are already subscribed to this author"); err != nil {
		return nil, err
	}

	return s.users.FollowView(ctx, author, &userID, recipesLimit)
}

func (s *FollowService) Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error {
	if _, err := s.users.Get(ctx, authorID); err != nil {
		return err
	}
	if userID == authorID {
		return withDetail(ErrSelfReference, "you cannot unsubscribe from yourself")
	}

	pair := map[string]interface{}{"user_id": userID, "author_id": authorID}
	return removeRelation[models.Follow](ctx, s.db, pair, "you are not subscribed to this author")
}

// Subscriptions lists the authors userID follows, newest subscription first
func (s *FollowService) Subscriptions(ctx context.Context, userID uuid.UUID, page Pagination, recipesLimit int) ([]types.FollowResponse, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID)

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count subscriptions")
	}

	var authors []models.User
	if err := page.scope(query.Order("follows.created_at DESC, users.username")).Find(&authors).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to list subscriptions")
	}

	results := make([]types.FollowResponse, 0, len(authors))
	for i := range authors {
		view, err := s.users.FollowView(ctx, &authors[i], &userID, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, *view)
	}
	return results, count, nil
}
