package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/log"
)

// ShoppingListItem is the total amount of one ingredient across the cart
type ShoppingListItem struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

// Line formats the item as "name - amount unit"
func (i ShoppingListItem) Line() string {
	return fmt.Sprintf("%s - %d %s", i.Name, i.Amount, i.MeasurementUnit)
}

// ShoppingListService sums the ingredients of every recipe in a user's cart
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Aggregate groups the cart ingredients by name and unit, ordered by name then unit
func (s *ShoppingListService) Aggregate(ctx context.Context, userID uuid.UUID) ([]ShoppingListItem, error) {
	var items []ShoppingListItem
	err := s.db.WithContext(ctx).
		Table("shopping_carts").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(ingredient_recipes.amount) AS amount").
		Joins("JOIN ingredient_recipes ON ingredient_recipes.recipe_id = shopping_carts.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = ingredient_recipes.ingredient_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate shopping cart")
	}
	return items, nil
}

// Lines returns the formatted shopping list
func (s *ShoppingListService) Lines(ctx context.Context, userID uuid.UUID) ([]string, error) {
	items, err := s.Aggregate(ctx, userID)
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = item.Line()
	}
	return lines, nil
}


// Document is a rendered shopping list ready to be sent
type Document struct {
	Data        []byte
	ContentType string
	FileName    string
}

// Download renders the shopping list with renderer. A PDF that cannot draw
// every line is replaced by plain text.
func (s *ShoppingListService) Download(ctx context.Context, userID uuid.UUID, renderer Renderer) (*Document, error) {
	lines, err := s.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}

	if pdf, ok := renderer.(*PDFRenderer); ok && !pdf.Supports(lines) {
		log.Log.WithField("user_id", userID).Warn("Shopping list needs a Unicode PDF font, sending plain text instead")
		renderer = TextRenderer{}
	}

	data, err := renderer.Render(lines)
	if err != nil {
		return nil, err
	}
	return &Document{Data: data, ContentType: renderer.ContentType(), FileName: renderer.FileName()}, nil
}
