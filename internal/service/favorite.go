package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// FavoriteService manages the favorite recipes of users
type FavoriteService struct {
	db *gorm.DB
}

func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{db: db}
}

// Add marks the recipe as a favorite of the user
func (s *FavoriteService) Add(ctx context.Context, userID, recipeID uuid.UUID) (*types.RecipeShort, error) {
	recipe, err := findRecipe(ctx, s.db, recipeID)
	if err != nil {
		return nil, err
	}

	row := &models.Favorite{UserID: userID, RecipeID: recipeID}
	pair := map[string]interface{}{"user_id": userID, "recipe_id": recipeID}
	if err := addRelation(ctx, s.db, row, pair, "recipe is already in favorites"); err != nil {
		return nil, err
	}

	return types.NewRecipeShort(recipe)
}

// Remove deletes the recipe from the user's favorites
func (s *FavoriteService) Remove(ctx context.Context, userID, recipeID uuid.UUID) error {
	if _, err := findRecipe(ctx, s.db, recipeID); err != nil {
		return err
	}

	pair := map[string]interface{}{"user_id": userID, "recipe_id": recipeID}
	return removeRelation[models.Favorite](ctx, s.db, pair, "recipe is not in favorites")
}
