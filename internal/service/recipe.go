package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/log"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Actor is the authenticated user performing a modification
type Actor struct {
	ID    uuid.UUID
	Admin bool
}

func (a Actor) canModify(recipe *models.Recipe) bool {
	return a.Admin || recipe.AuthorID == a.ID
}

// RecipeService handles recipe operations
type RecipeService struct {
	db        *gorm.DB
	images    ImageStore
	users     *UserService
	minAmount int
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images ImageStore, users *UserService, minAmount int) *RecipeService {
	if minAmount < 1 {
		minAmount = 1
	}
	return &RecipeService{
		db:        db,
		images:    images,
		users:     users,
		minAmount: minAmount,
	}
}

func findRecipe(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "recipe not found")
	}
	return &recipe, nil
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("ingredient_recipes.id") }).
		Preload("Ingredients.Ingredient")
}

// Get retrieves a recipe with its author, tags and ingredients
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := withDetails(s.db.WithContext(ctx)).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "recipe not found")
	}
	return &recipe, nil
}

// List returns one page of recipes matching filter, newest first
func (s *RecipeService) List(ctx context.Context, filter RecipeFilter, page Pagination) ([]models.Recipe, int64, error) {
	base := filter.Apply(s.db.WithContext(ctx).Model(&models.Recipe{})).Session(&gorm.Session{})

	var count int64
	if err := base.Count(&count).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count recipes")
	}

	var recipes []models.Recipe
	query := withDetails(base.Order("recipes.created_at DESC").Order("recipes.id"))
	if err := page.scope(query).Find(&recipes).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to list recipes")
	}
	return recipes, count, nil
}

// Create validates the request, stores the image and inserts the recipe with
// its ingredient amounts and tags in one transaction
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, req *types.CreateRecipeRequest) (*models.Recipe, error) {
	if err := s.validateCookingTime(req.CookingTime); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name", "this field may not be blank")
	}
	if err := s.validateIngredients(ctx, req.Ingredients); err != nil {
		return nil, err
	}
	if err := s.validateTags(ctx, req.Tags); err != nil {
		return nil, err
	}

	var image *Image
	if req.Image != "" {
		decoded, err := DecodeImage(req.Image)
		if err != nil {
			return nil, err
		}
		image = decoded
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	if image != nil {
		url, err := s.images.Save(ctx, image)
		if err != nil {
			return nil, err
		}
		recipe.Image = url
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author", "Ingredients", "Tags").Create(recipe).Error; err != nil {
			return errors.Wrap(err, "failed to create recipe")
		}
		if err := replaceIngredients(tx, recipe.ID, req.Ingredients); err != nil {
			return err
		}
		return replaceTags(tx, recipe.ID, req.Tags)
	})
	if err != nil {
		s.discardImage(recipe.Image)
		return nil, err
	}

	log.Log.WithFields(logrus.Fields{
		"recipe_id": recipe.ID,
		"author_id": authorID,
	}).Info("Recipe created")

	return s.Get(ctx, recipe.ID)
}

// Update applies a partial update. Given ingredients or tags replace the
// existing sets entirely.
func (s *RecipeService) Update(ctx context.Context, actor Actor, id uuid.UUID, req *types.UpdateRecipeRequest) (*models.Recipe, error) {
	recipe, err := findRecipe(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if !actor.canModify(recipe) {
		return nil, ErrForbidden
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, invalid("name", "this field may not be blank")
		}
		updates["name"] = *req.Name
	}
	if req.Text != nil {
		if strings.TrimSpace(*req.Text) == "" {
			return nil, invalid("text", "this field may not be blank")
		}
		updates["text"] = *req.Text
	}
	if req.CookingTime != nil {
		if err := s.validateCookingTime(*req.CookingTime); err != nil {
			return nil, err
		}
		updates["cooking_time"] = *req.CookingTime
	}
	if req.Ingredients != nil {
		if err := s.validateIngredients(ctx, *req.Ingredients); err != nil {
			return nil, err
		}
	}
	if req.Tags != nil {
		if err := s.validateTags(ctx, *req.Tags); err != nil {
			return nil, err
		}
	}

	var newImage string
	if req.Image != nil && *req.Image != "" {
		image, err := DecodeImage(*req.Image)
		if err != nil {
			return nil, err
		}
		if newImage, err = s.images.Save(ctx, image); err != nil {
			return nil, err
		}
		updates["image"] = newImage
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(recipe).Updates(updates).Error; err != nil {
				return errors.Wrap(err, "failed to update recipe")
			}
		}
		if req.Ingredients != nil {
			if err := replaceIngredients(tx, id, *req.Ingredients); err != nil {
				return err
			}
		}
		if req.Tags != nil {
			return replaceTags(tx, id, *req.Tags)
		}
		return nil
	})
	if err != nil {
		s.discardImage(newImage)
		return nil, err
	}

	if newImage != "" {
		s.discardImage(recipe.Image)
	}

	return s.Get(ctx, id)
}

// Delete removes the recipe and every row that references it
func (s *RecipeService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	recipe, err := findRecipe(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !actor.canModify(recipe) {
		return ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []interface{}{
			&models.IngredientRecipe{},
			&models.RecipeTag{},
			&models.Favorite{},
			&models.ShoppingCart{},
		} {
			if err := tx.Where("recipe_id = ?", id).Delete(dependent).Error; err != nil {
				return errors.Wrap(err, "failed to delete recipe relations")
			}
		}
		if err := tx.Delete(&models.Recipe{}, "id = ?", id).Error; err != nil {
			return errors.Wrap(err, "failed to delete recipe")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.discardImage(recipe.Image)
	return nil
}

// View builds the full recipe representation for viewer, nil for anonymous
func (s *RecipeService) View(ctx context.Context, recipe *models.Recipe, viewer *uuid.UUID) (*types.RecipeResponse, error) {
	views, err := s.Views(ctx, []models.Recipe{*recipe}, viewer)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Views builds several recipe representations with one lookup per flag
func (s *RecipeService) Views(ctx context.Context, recipes []models.Recipe, viewer *uuid.UUID) ([]types.RecipeResponse, error) {
	recipeIDs := make([]uuid.UUID, len(recipes))
	authorIDs := make([]uuid.UUID, len(recipes))
	for i := range recipes {
		recipeIDs[i] = recipes[i].ID
		authorIDs[i] = recipes[i].AuthorID
	}

	favorited, err := s.flagged(ctx, &models.Favorite{}, viewer, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := s.flagged(ctx, &models.ShoppingCart{}, viewer, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.users.subscribedTo(ctx, viewer, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]types.RecipeResponse, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		ingredients := make([]types.IngredientInRecipe, len(r.Ingredients))
		for j, ir := range r.Ingredients {
			ingredients[j] = types.IngredientInRecipe{
				ID:              ir.IngredientID,
				Name:            ir.Ingredient.Name,
				MeasurementUnit: ir.Ingredient.MeasurementUnit,
				Amount:          ir.Amount,
			}
		}
		tags := r.Tags
		if tags == nil {
			tags = []models.Tag{}
		}
		views[i] = types.RecipeResponse{
			ID:               r.ID,
			Tags:             tags,
			Author:           types.NewUserResponse(&r.Author, subscribed[r.AuthorID]),
			Ingredients:      ingredients,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
			CreatedAt:        r.CreatedAt,
		}
	}
	return views, nil
}

// flagged reports which recipes have a row in the favorites or cart table for viewer
func (s *RecipeService) flagged(ctx context.Context, model interface{}, viewer *uuid.UUID, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := make(map[uuid.UUID]bool, len(recipeIDs))
	if viewer == nil || len(recipeIDs) == 0 {
		return result, nil
	}

	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id IN ?", *viewer, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load recipe flags")
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (s *RecipeService) validateCookingTime(minutes int) error {
	if minutes < 1 {
		return invalid("cooking_time", "cooking time must be at least 1 minute")
	}
	return nil
}

func (s *RecipeService) validateIngredients(ctx context.Context, items []types.IngredientAmount) error {
	if len(items) == 0 {
		return invalid("ingredients", "at least one ingredient is required")
	}

	seen := make(map[uint]bool, len(items))
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if seen[item.ID] {
			return invalid("ingredients", "ingredients must not repeat")
		}
		seen[item.ID] = true
		ids = append(ids, item.ID)
		if item.Amount < s.minAmount {
			return invalid("ingredients", fmt.Sprintf("amount must be at least %d", s.minAmount))
		}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return errors.Wrap(err, "failed to look up ingredients")
	}
	if count != int64(len(ids)) {
		return invalid("ingredients", "ingredient does not exist")
	}
	return nil
}

func (s *RecipeService) validateTags(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return invalid("tags", "at least one tag is required")
	}

	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return invalid("tags", "tags must not repeat")
		}
		seen[id] = true
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Tag{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return errors.Wrap(err, "failed to look up tags")
	}
	if count != int64(len(ids)) {
		return invalid("tags", "tag does not exist")
	}
	return nil
}

// discardImage removes an image that is no longer referenced, failures are only logged
func (s *RecipeService) discardImage(url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(context.Background(), url); err != nil {
		log.Log.WithError(err).WithField("image", url).Warn("Failed to delete recipe image")
	}
}

func replaceIngredients(tx *gorm.DB, recipeID uuid.UUID, items []types.IngredientAmount) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.IngredientRecipe{}).Error; err != nil {
		return errors.Wrap(err, "failed to clear recipe ingredients")
	}
	rows := make([]models.IngredientRecipe, len(items))
	for i, item := range items {
		rows[i] = models.IngredientRecipe{RecipeID: recipeID, IngredientID: item.ID, Amount: item.Amount}
	}
	if err := tx.Omit("Ingredient").Create(&rows).Error; err != nil {
		return errors.Wrap(err, "failed to add recipe ingredients")
	}
	return nil
}

func replaceTags(tx *gorm.DB, recipeID uuid.UUID, tagIDs []uint) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
		return errors.Wrap(err, "failed to clear recipe tags")
	}
	rows := make([]models.RecipeTag, len(tagIDs))
	for i, id := range tagIDs {
		rows[i] = models.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return errors.Wrap(err, "failed to add recipe tags")
	}
	return nil
}
