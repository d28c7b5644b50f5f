package service_test

import (
	"errors"
	"math"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

// 1x1 transparent PNG
const pngDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type recipeFixture struct {
	*testServices
	author *models.User
	flour  *models.Ingredient
	sugar  *models.Ingredient
	lunch  *models.Tag
	dinner *models.Tag
}

func setupRecipeFixture(t *testing.T) *recipeFixture {
	s := setupServices(t)
	return &recipeFixture{
		testServices: s,
		author:       testhelpers.CreateUser(t, s.db, "chef"),
		flour:        testhelpers.CreateIngredient(t, s.db, "flour", "g"),
		sugar:        testhelpers.CreateIngredient(t, s.db, "sugar", "g"),
		lunch:        testhelpers.CreateTag(t, s.db, "Lunch", "lunch"),
		dinner:       testhelpers.CreateTag(t, s.db, "Dinner", "dinner"),
	}
}

func (f *recipeFixture) request() *types.CreateRecipeRequest {
	return &types.CreateRecipeRequest{
		Ingredients: []types.IngredientAmount{{ID: f.flour.ID, Amount: 200}, {ID: f.sugar.ID, Amount: 50}},
		Tags:        []uint{f.lunch.ID},
		Name:        "Pancakes",
		Text:        "Whisk and fry.",
		CookingTime: 20,
	}
}

func TestCreateRecipe(t *testing.T) {
	f := setupRecipeFixture(t)

	req := f.request()
	req.Image = pngDataURI
	recipe, err := f.recipes.Create(ctx, f.author.ID, req)
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", recipe.Name)
	assert.Equal(t, f.author.ID, recipe.Author.ID)
	assert.Contains(t, recipe.Image, "/media/recipes/")
	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, "flour", recipe.Ingredients[0].Ingredient.Name)
	assert.Equal(t, 200, recipe.Ingredients[0].Amount)
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "lunch", recipe.Tags[0].Slug)
}

func TestCreateRecipeValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *recipeFixture, req *types.CreateRecipeRequest)
		field  string
	}{
		{
			name: "duplicate ingredients with different amounts",
			modify: func(f *recipeFixture, req *types.CreateRecipeRequest) {
				req.Ingredients = []types.IngredientAmount{{ID: f.flour.ID, Amount: 1}, {ID: f.flour.ID, Amount: 5}}
			},
			field: "ingredients",
		},
		{
			name: "duplicate ingredients with equal amounts",
			modify: func(f *recipeFixture, req *types.CreateRecipeRequest) {
				req.Ingredients = []types.IngredientAmount{{ID: f.flour.ID, Amount: 1}, {ID: f.flour.ID, Amount: 1}}
			},
			field: "ingredients",
		},
		{
			name:   "no ingredients",
			modify: func(f *recipeFixture, req *types.CreateRecipeRequest) { req.Ingredients = nil },
			field:  "ingredients",
		},
		{
			name: "amount below minimum",
			modify: func(f *recipeFixture, req *types.CreateRecipeRequest) {
				req.Ingredients = []types.IngredientAmount{{ID: f.flour.ID, Amount: 0}}
			},
			field: "ingredients",
		},
		{
			name: "unknown ingredient",
			modify: func(f *recipeFixture, req *types.CreateRecipeRequest) {
				req.Ingredients = []types.IngredientAmount{{ID: 9999, Amount: 1}}
			},
			field: "ingredients",
		},
		{
			name:   "zero cooking time",
			modify: func(f *recipeFixture, req *types.CreateRecipeRequest) { req.CookingTime = 0 },
			field:  "cooking_time",
		},
		{
			name:   "no tags",
			modify: func(f *recipeFixture, req *types.CreateRecipeRequest) { req.Tags = nil },
			field:  "tags",
		},
		{
			name:   "duplicate tags",
			modify: func(f *recipeFixture, req *types.CreateRecipeRequest) { req.Tags = []uint{f.lunch.ID, f.lunch.ID} },
			field:  "tags",
		},
		{
			name:   "unknown tag",
			modify: func(f *recipeFixture, req *types.CreateRecipeRequest) { req.Tags = []uint{9999} },
			field:  "tags",
		},
		{
			name:   "malformed image",
			modify: func(f *recipeFixture, req *types.CreateRecipeRequest) { req.Image = "not-a-data-uri" },
			field:  "image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupRecipeFixture(t)
			req := f.request()
			tt.modify(f, req)

			_, err := f.recipes.Create(ctx, f.author.ID, req)
			require.Error(t, err)
			assert.ErrorIs(t, err, service.ErrValidation)

			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			var count int64
			require.NoError(t, f.db.Model(&models.Recipe{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestCreateRecipeMinimumCookingTime(t *testing.T) {
	f := setupRecipeFixture(t)

	req := f.request()
	req.CookingTime = 1
	recipe, err := f.recipes.Create(ctx, f.author.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 1, recipe.CookingTime)
}

func TestUpdateRecipeReplacesIngredients(t *testing.T) {
	f := setupRecipeFixture(t)
	recipe, err := f.recipes.Create(ctx, f.author.ID, f.request())
	require.NoError(t, err)

	name := "Crepes"
	ingredients := []types.IngredientAmount{{ID: f.sugar.ID, Amount: 10}}
	tags := []uint{f.dinner.ID}
	actor := service.Actor{ID: f.author.ID}

	updated, err := f.recipes.Update(ctx, actor, recipe.ID, &types.UpdateRecipeRequest{
		Name:        &name,
		Ingredients: &ingredients,
		Tags:        &tags,
	})
	require.NoError(t, err)

	assert.Equal(t, "Crepes", updated.Name)
	assert.Equal(t, "Whisk and fry.", updated.Text)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, "sugar", updated.Ingredients[0].Ingredient.Name)
	assert.Equal(t, 10, updated.Ingredients[0].Amount)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "dinner", updated.Tags[0].Slug)

	var rows int64
	require.NoError(t, f.db.Model(&models.IngredientRecipe{}).Where("recipe_id = ?", recipe.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestUpdateRecipeInvalidKeepsState(t *testing.T) {
	f := setupRecipeFixture(t)
	recipe, err := f.recipes.Create(ctx, f.author.ID, f.request())
	require.NoError(t, err)

	zero := 0
	_, err = f.recipes.Update(ctx, service.Actor{ID: f.author.ID}, recipe.ID, &types.UpdateRecipeRequest{CookingTime: &zero})
	assert.ErrorIs(t, err, service.ErrValidation)

	current, err := f.recipes.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, current.CookingTime)
	assert.Len(t, current.Ingredients, 2)
}

func TestModifyRecipePermissions(t *testing.T) {
	f := setupRecipeFixture(t)
	recipe, err := f.recipes.Create(ctx, f.author.ID, f.request())
	require.NoError(t, err)

	stranger := testhelpers.CreateUser(t, f.db, "stranger")
	admin := testhelpers.CreateAdmin(t, f.db, "admin")
	name := "Hijacked"

	_, err = f.recipes.Update(ctx, service.Actor{ID: stranger.ID}, recipe.ID, &types.UpdateRecipeRequest{Name: &name})
	assert.ErrorIs(t, err, service.ErrForbidden)

	err = f.recipes.Delete(ctx, service.Actor{ID: stranger.ID}, recipe.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)

	updated, err := f.recipes.Update(ctx, service.Actor{ID: admin.ID, Admin: true}, recipe.ID, &types.UpdateRecipeRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Hijacked", updated.Name)
}

func TestDeleteRecipeRemovesRelations(t *testing.T) {
	f := setupRecipeFixture(t)
	recipe, err := f.recipes.Create(ctx, f.author.ID, f.request())
	require.NoError(t, err)
	fan := testhelpers.CreateUser(t, f.db, "fan")
	_, err = f.favorites.Add(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)

	require.NoError(t, f.recipes.Delete(ctx, service.Actor{ID: f.author.ID}, recipe.ID))

	for _, model := range []interface{}{
		&models.Recipe{}, &models.IngredientRecipe{}, &models.RecipeTag{}, &models.Favorite{}, &models.ShoppingCart{},
	} {
		var count int64
		require.NoError(t, f.db.Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T rows left behind", model)
	}

	_, err = f.recipes.Get(ctx, recipe.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestListRecipesFilters(t *testing.T) {
	f := setupRecipeFixture(t)
	other := testhelpers.CreateUser(t, f.db, "other")
	viewer := testhelpers.CreateUser(t, f.db, "viewer")

	lunch := testhelpers.CreateRecipe(t, f.db, f.author, "Salad", map[*models.Ingredient]int{f.sugar: 1}, f.lunch)
	both := testhelpers.CreateRecipe(t, f.db, f.author, "Stew", map[*models.Ingredient]int{f.flour: 1}, f.lunch, f.dinner)
	dinner := testhelpers.CreateRecipe(t, f.db, other, "Roast", map[*models.Ingredient]int{f.flour: 2}, f.dinner)

	_, err := f.favorites.Add(ctx, viewer.ID, dinner.ID)
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, viewer.ID, lunch.ID)
	require.NoError(t, err)

	page := service.NewPagination(1, 10, 10, 50)
	list := func(query url.Values, viewer *uuid.UUID) []uuid.UUID {
		filter, err := service.ParseRecipeFilter(query, viewer)
		require.NoError(t, err)
		recipes, count, err := f.recipes.List(ctx, filter, page)
		require.NoError(t, err)
		assert.Equal(t, int64(len(recipes)), count)
		ids := make([]uuid.UUID, len(recipes))
		for i := range recipes {
			ids[i] = recipes[i].ID
		}
		return ids
	}

	assert.Len(t, list(url.Values{}, nil), 3)
	assert.ElementsMatch(t, []uuid.UUID{lunch.ID, both.ID}, list(url.Values{"author": {f.author.ID.String()}}, nil))
	assert.ElementsMatch(t, []uuid.UUID{lunch.ID, both.ID, dinner.ID}, list(url.Values{"tags": {"lunch", "dinner"}}, nil))
	assert.ElementsMatch(t, []uuid.UUID{both.ID, dinner.ID}, list(url.Values{"tags": {"dinner"}}, nil))
	assert.Equal(t, []uuid.UUID{dinner.ID}, list(url.Values{"is_favorited": {"1"}}, &viewer.ID))
	assert.Equal(t, []uuid.UUID{lunch.ID}, list(url.Values{"is_in_shopping_cart": {"true"}}, &viewer.ID))
	assert.Len(t, list(url.Values{"is_favorited": {"0"}}, &viewer.ID), 3)
	assert.Len(t, list(url.Values{"is_favorited": {"1"}}, nil), 3, "anonymous requests ignore the flag")
}

func TestParseRecipeFilterRejectsBadAuthor(t *testing.T) {
	_, err := service.ParseRecipeFilter(url.Values{"author": {"42"}}, nil)

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "author", verr.Field)
}

func TestRecipeViewFlags(t *testing.T) {
	f := setupRecipeFixture(t)
	viewer := testhelpers.CreateUser(t, f.db, "viewer")
	created, err := f.recipes.Create(ctx, f.author.ID, f.request())
	require.NoError(t, err)

	_, err = f.favorites.Add(ctx, viewer.ID, created.ID)
	require.NoError(t, err)
	_, err = f.follows.Subscribe(ctx, viewer.ID, f.author.ID, 0)
	require.NoError(t, err)

	view, err := f.recipes.View(ctx, created, &viewer.ID)
	require.NoError(t, err)
	assert.True(t, view.IsFavorited)
	assert.False(t, view.IsInShoppingCart)
	assert.True(t, view.Author.IsSubscribed)
	require.Len(t, view.Ingredients, 2)
	assert.Equal(t, "g", view.Ingredients[0].MeasurementUnit)

	anonymous, err := f.recipes.View(ctx, created, nil)
	require.NoError(t, err)
	assert.False(t, anonymous.IsFavorited)
	assert.False(t, anonymous.Author.IsSubscribed)
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        service.Pagination
	}{
		{"defaults", 0, 0, service.Pagination{Page: 1, Limit: 10}},
		{"clamped", 2, 100, service.Pagination{Page: 2, Limit: 50}},
		{"negative limit", 1, -5, service.Pagination{Page: 1, Limit: 10}},
		{"within bounds", 3, 6, service.Pagination{Page: 3, Limit: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.NewPagination(tt.page, tt.limit, 10, 50))
		})
	}

	p := service.NewPagination(2, 10, 10, 50)
	assert.Equal(t, 10, p.Offset())
	assert.True(t, p.HasPrevious())
	assert.True(t, p.HasNext(21))
	assert.False(t, p.HasNext(20))
}

func TestNewPaginationBoundsHugePages(t *testing.T) {
	p := service.NewPagination(1<<62, 50, 10, 50)

	assert.Equal(t, 50, p.Limit)
	assert.Positive(t, p.Offset())
	assert.LessOrEqual(t, p.Offset(), math.MaxInt32)
	assert.False(t, p.HasNext(5))
	assert.True(t, p.HasPrevious())

	assert.Equal(t, 1, service.NewPagination(5, 0, 0, 0).Limit)
}

// refuseInserts makes every INSERT into table fail
func refuseInserts(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	err := db.Callback().Create().Before("gorm:create").Register("test:refuse_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errors.New("insert refused"))
		}
	})
	require.NoError(t, err)
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestCreateRecipeRollsBackOnFailure(t *testing.T) {
	f := setupRecipeFixture(t)
	media := t.TempDir()
	recipes := service.NewRecipeService(f.db, service.NewLocalImageStore(media, "/media/"), f.users, 1)
	refuseInserts(t, f.db, "recipe_tags")

	req := f.request()
	req.Image = pngDataURI
	_, err := recipes.Create(ctx, f.author.ID, req)
	require.Error(t, err)

	assert.Zero(t, countRows(t, f.db, &models.Recipe{}))
	assert.Zero(t, countRows(t, f.db, &models.IngredientRecipe{}))
	assert.Zero(t, countRows(t, f.db, &models.RecipeTag{}))

	stored, err := filepath.Glob(filepath.Join(media, "recipes", "*"))
	require.NoError(t, err)
	assert.Empty(t, stored, "uploaded image should be removed")
}

func TestUpdateRecipeRollsBackOnFailure(t *testing.T) {
	f := setupRecipeFixture(t)
	recipe, err := f.recipes.Create(ctx, f.author.ID, f.request())
	require.NoError(t, err)
	refuseInserts(t, f.db, "ingredient_recipes")

	name := "Crepes"
	ingredients := []types.IngredientAmount{{ID: f.sugar.ID, Amount: 10}}
	_, err = f.recipes.Update(ctx, service.Actor{ID: f.author.ID}, recipe.ID, &types.UpdateRecipeRequest{
		Name:        &name,
		Ingredients: &ingredients,
	})
	require.Error(t, err)

	current, err := f.recipes.Get(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", current.Name)
	require.Len(t, current.Ingredients, 2)
	assert.Equal(t, "flour", current.Ingredients[0].Ingredient.Name)
	assert.Equal(t, 200, current.Ingredients[0].Amount)
	assert.Equal(t, "sugar", current.Ingredients[1].Ingredient.Name)
	assert.Equal(t, 50, current.Ingredients[1].Amount)
}
