package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/pageza/foodgram/backend/internal/models"
)

// RecipeShort is the compact recipe view used by favorites, the cart and subscriptions
type RecipeShort struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

// NewRecipeShort copies the short view fields out of a recipe
func NewRecipeShort(recipe *models.Recipe) (*RecipeShort, error) {
	var short RecipeShort
	if err := copier.Copy(&short, recipe); err != nil {
		return nil, err
	}
	return &short, nil
}

// IngredientInRecipe is an ingredient together with its amount in one recipe
type IngredientInRecipe struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeResponse is the full recipe representation
type RecipeResponse struct {
	ID               uuid.UUID            `json:"id"`
	Tags             []models.Tag         `json:"tags"`
	Author           UserResponse         `json:"author"`
	Ingredients      []IngredientInRecipe `json:"ingredients"`
	IsFavorited      bool                 `json:"is_favorited"`
	IsInShoppingCart bool                 `json:"is_in_shopping_cart"`
	Name             string               `json:"name"`
	Image            string               `json:"image"`
	Text             string               `json:"text"`
	CookingTime      int                  `json:"cooking_time"`
	CreatedAt        time.Time            `json:"created_at"`
}
