package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// CartService manages the recipes a user plans to shop for
type CartService struct {
	db *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

func (s *CartService) Add(ctx context.Context, userID, recipeID uuid.UUID) (*types.RecipeShort, error) {
	recipe, err := findRecipe(ctx, s.db, recipeID)
	if err != nil {
		return nil, err
	}

	row := &models.ShoppingCart{UserID: userID, RecipeID: recipeID}
	pair := map[string]interface{}{"user_id": userID, "recipe_id": recipeID}
	if err := addRelation(ctx, s.db, row, pair, "recipe is already in the shopping cart"); err != nil {
		return nil, err
	}

	return types.NewRecipeShort(recipe)
}

func (s *CartService) Remove(ctx context.Context, userID, recipeID uuid.UUID) error {
	if _, err := findRecipe(ctx, s.db, recipeID); err != nil {
		return err
	}

	pair := map[string]interface{}{"user_id": userID, "recipe_id": recipeID}
	return removeRelation[models.ShoppingCart](ctx, s.db, pair, "recipe is not in the shopping cart")
}
