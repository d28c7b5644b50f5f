package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestFavoriteToggle(t *testing.T) {
	s := setupServices(t)
	user := testhelpers.CreateUser(t, s.db, "alice")
	author := testhelpers.CreateUser(t, s.db, "bob")
	recipe := testhelpers.CreateRecipe(t, s.db, author, "Pancakes", nil)

	short, err := s.favorites.Add(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, short.ID)
	assert.Equal(t, "Pancakes", short.Name)
	assert.Equal(t, 30, short.CookingTime)

	_, err = s.favorites.Add(ctx, user.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrDuplicate)

	var count int64
	require.NoError(t, s.db.Model(&models.Favorite{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, s.favorites.Remove(ctx, user.ID, recipe.ID))

	err = s.favorites.Remove(ctx, user.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorIs(t, err, service.ErrRelationMissing)
}

func TestFavoriteRaceCaughtByUniqueIndex(t *testing.T) {
	s := setupServices(t)
	user := testhelpers.CreateUser(t, s.db, "alice")
	author := testhelpers.CreateUser(t, s.db, "bob")
	recipe := testhelpers.CreateRecipe(t, s.db, author, "Pancakes", nil)

	// A competing request inserts the same pair after the existence check
	// has passed but before this insert runs.
	raced := false
	err := s.db.Callback().Create().Before("gorm:create").Register("test:competing_favorite", func(tx *gorm.DB) {
		if tx.Statement.Table != "favorites" || raced {
			return
		}
		raced = true
		err := tx.Session(&gorm.Session{NewDB: true}).
			Exec("INSERT INTO favorites (user_id, recipe_id, created_at) VALUES (?, ?, ?)", user.ID, recipe.ID, time.Now()).
			Error
		if err != nil {
			_ = tx.AddError(err)
		}
	})
	require.NoError(t, err)

	_, err = s.favorites.Add(ctx, user.ID, recipe.ID)
	require.True(t, raced)
	assert.ErrorIs(t, err, service.ErrDuplicate)
	assert.EqualError(t, err, "recipe is already in favorites")

	// The failed transaction leaves nothing behind and the pair can be added again
	var count int64
	require.NoError(t, s.db.Model(&models.Favorite{}).Count(&count).Error)
	assert.Zero(t, count)

	_, err = s.favorites.Add(ctx, user.ID, recipe.ID)
	assert.NoError(t, err)
}

func TestFavoriteUnknownRecipe(t *testing.T) {
	s := setupServices(t)
	user := testhelpers.CreateUser(t, s.db, "alice")

	_, err := s.favorites.Add(ctx, user.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.NotErrorIs(t, err, service.ErrRelationMissing)

	err = s.favorites.Remove(ctx, user.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.NotErrorIs(t, err, service.ErrRelationMissing)
}

func TestCartToggle(t *testing.T) {
	s := setupServices(t)
	user := testhelpers.CreateUser(t, s.db, "alice")
	recipe := testhelpers.CreateRecipe(t, s.db, user, "Soup", nil)

	_, err := s.carts.Add(ctx, user.ID, recipe.ID)
	require.NoError(t, err)

	_, err = s.carts.Add(ctx, user.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrDuplicate)
	assert.EqualError(t, err, "recipe is already in the shopping cart")

	require.NoError(t, s.carts.Remove(ctx, user.ID, recipe.ID))
	assert.ErrorIs(t, s.carts.Remove(ctx, user.ID, recipe.ID), service.ErrRelationMissing)
}

func TestFavoriteAndCartAreIndependent(t *testing.T) {
	s := setupServices(t)
	user := testhelpers.CreateUser(t, s.db, "alice")
	recipe := testhelpers.CreateRecipe(t, s.db, user, "Soup", nil)

	_, err := s.favorites.Add(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	_, err = s.carts.Add(ctx, user.ID, recipe.ID)
	require.NoError(t, err)

	require.NoError(t, s.favorites.Remove(ctx, user.ID, recipe.ID))
	assert.NoError(t, s.carts.Remove(ctx, user.ID, recipe.ID))
}

func TestFollowToggle(t *testing.T) {
	s := setupServices(t)
	user := testhelpers.CreateUser(t, s.db, "alice")
	author := testhelpers.CreateUser(t, s.db, "bob")
	testhelpers.CreateRecipe(t, s.db, author, "First", nil)
	testhelpers.CreateRecipe(t, s.db, author, "Second", nil)
	testhelpers.CreateRecipe(t, s.db, author, "Third", nil)

	view, err := s.follows.Subscribe(ctx, user.ID, author.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, author.ID, view.ID)
	assert.True(t, view.IsSubscribed)
	assert.Equal(t, int64(3), view.RecipesCount)
	assert.Len(t, view.Recipes, 2)

	_, err = s.follows.Subscribe(ctx, user.ID, author.ID, 0)
	assert.ErrorIs(t, err, service.ErrDuplicate)

	subs, count, err := s.follows.Subscriptions(ctx, user.ID, service.NewPagination(1, 10, 10, 50), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.Len(t, subs, 1)
	assert.Equal(t, "bob", subs[0].Username)
	assert.Len(t, subs[0].Recipes, 3)

	require.NoError(t, s.follows.Unsubscribe(ctx, user.ID, author.ID))
	assert.ErrorIs(t, s.follows.Unsubscribe(ctx, user.ID, author.ID), service.ErrRelationMissing)
}

func TestFollowSelf(t *testing.T) {
	s := setupServices(t)
	user := testhelpers.CreateUser(t, s.db, "alice")

	_, err := s.follows.Subscribe(ctx, user.ID, user.ID, 0)
	assert.ErrorIs(t, err, service.ErrSelfReference)

	err = s.follows.Unsubscribe(ctx, user.ID, user.ID)
	assert.ErrorIs(t, err, service.ErrSelfReference)

	var count int64
	require.NoError(t, s.db.Model(&models.Follow{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFollowUnknownAuthor(t *testing.T) {
	s := setupServices(t)
	user := testhelpers.CreateUser(t, s.db, "alice")

	_, err := s.follows.Subscribe(ctx, user.ID, uuid.New(), 0)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUserViewsCarrySubscription(t *testing.T) {
	s := setupServices(t)
	alice := testhelpers.CreateUser(t, s.db, "alice")
	bob := testhelpers.CreateUser(t, s.db, "bob")

	_, err := s.follows.Subscribe(ctx, alice.ID, bob.ID, 0)
	require.NoError(t, err)

	users, count, err := s.users.List(ctx, service.NewPagination(1, 10, 10, 50))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	views, err := s.users.Views(ctx, users, &alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.False(t, views[0].IsSubscribed)
	assert.True(t, views[1].IsSubscribed)

	anonymous, err := s.users.View(ctx, bob, nil)
	require.NoError(t, err)
	assert.False(t, anonymous.IsSubscribed)
}
