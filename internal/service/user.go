package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserService reads users and builds their public views
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Get returns the user with the given id
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user not found")
	}
	return &user, nil
}

// List returns a page of users ordered by username
func (s *UserService) List(ctx context.Context, page Pagination) ([]models.User, int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count users")
	}

	var users []models.User
	if err := page.scope(s.db.WithContext(ctx).Order("username")).Find(&users).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to list users")
	}
	return users, count, nil
}

// View builds the user representation as seen by viewer, nil for anonymous
func (s *UserService) View(ctx context.Context, user *models.User, viewer *uuid.UUID) (types.UserResponse, error) {
	subscribed, err := s.subscribedTo(ctx, viewer, []uuid.UUID{user.ID})
	if err != nil {
		return types.UserResponse{}, err
	}
	return types.NewUserResponse(user, subscribed[user.ID]), nil
}

// Views builds the representations of several users with one subscription lookup
func (s *UserService) Views(ctx context.Context, users []models.User, viewer *uuid.UUID) ([]types.UserResponse, error) {
	ids := make([]uuid.UUID, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	subscribed, err := s.subscribedTo(ctx, viewer, ids)
	if err != nil {
		return nil, err
	}

	views := make([]types.UserResponse, len(users))
	for i := range users {
		views[i] = types.NewUserResponse(&users[i], subscribed[users[i].ID])
	}
	return views, nil
}

// FollowView builds the author view returned by subscription endpoints.
// recipesLimit <= 0 includes every recipe.
func (s *UserService) FollowView(ctx context.Context, author *models.User, viewer *uuid.UUID, recipesLimit int) (*types.FollowResponse, error) {
	userView, err := s.View(ctx, author, viewer)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Recipe{}).Where("author_id = ?", author.ID).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count recipes")
	}

	query := db.Where("author_id = ?", author.ID).Order("created_at DESC")
	if recipesLimit > 0 {
		query = query.Limit(recipesLimit)
	}
	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list author recipes")
	}

	shorts := make([]types.RecipeShort, 0, len(recipes))
	for i := range recipes {
		short, err := types.NewRecipeShort(&recipes[i])
		if err != nil {
			return nil, err
		}
		shorts = append(shorts, *short)
	}

	return &types.FollowResponse{
		UserResponse: userView,
		Recipes:      shorts,
		RecipesCount: count,
	}, nil
}

// subscribedTo reports which of authorIDs the viewer follows
func (s *UserService) subscribedTo(ctx context.Context, viewer *uuid.UUID, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := make(map[uuid.UUID]bool, len(authorIDs))
	if viewer == nil || len(authorIDs) == 0 {
		return result, nil
	}

	var follows []models.Follow
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id IN ?", *viewer, authorIDs).
		Find(&follows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load subscriptions")
	}
	for _, f := range follows {
		result[f.AuthorID] = true
	}
	return result, nil
}
