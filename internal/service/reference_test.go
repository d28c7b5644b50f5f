package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestIngredientSearch(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ingredients := service.NewIngredientService(db)

	testhelpers.CreateIngredient(t, db, "Flour", "g")
	testhelpers.CreateIngredient(t, db, "flaxseed", "g")
	testhelpers.CreateIngredient(t, db, "sunflower oil", "ml")
	testhelpers.CreateIngredient(t, db, "50% cream", "ml")

	tests := []struct {
		prefix string
		want   []string
	}{
		{"fl", []string{"Flour", "flaxseed"}},
		{"FLO", []string{"Flour"}},
		{"flower", nil},
		{"50%", []string{"50% cream"}},
		{"%", nil},
		{"", []string{"50% cream", "Flour", "flaxseed", "sunflower oil"}},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			found, err := ingredients.Search(ctx, tt.prefix)
			require.NoError(t, err)

			var names []string
			for _, ingredient := range found {
				names = append(names, ingredient.Name)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestIngredientGet(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ingredients := service.NewIngredientService(db)
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")

	got, err := ingredients.Get(ctx, salt.ID)
	require.NoError(t, err)
	assert.Equal(t, "g", got.MeasurementUnit)

	_, err = ingredients.Get(ctx, salt.ID+100)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestTagService(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	tags := service.NewTagService(db)

	dinner, err := tags.Create(ctx, &types.CreateTagRequest{Name: "Dinner", Color: "#8775D2", Slug: "dinner"})
	require.NoError(t, err)
	_, err = tags.Create(ctx, &types.CreateTagRequest{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"})
	require.NoError(t, err)

	_, err = tags.Create(ctx, &types.CreateTagRequest{Name: "Supper", Color: "#000000", Slug: "dinner"})
	require.ErrorIs(t, err, service.ErrDuplicate)
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "slug", verr.Field)

	all, err := tags.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Breakfast", all[0].Name)
	assert.Equal(t, "Dinner", all[1].Name)

	got, err := tags.Get(ctx, dinner.ID)
	require.NoError(t, err)
	assert.Equal(t, "dinner", got.Slug)

	_, err = tags.Get(ctx, dinner.ID+100)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
