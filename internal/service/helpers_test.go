package service_test

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

type testServices struct {
	db        *gorm.DB
	users     *service.UserService
	recipes   *service.RecipeService
	favorites *service.FavoriteService
	carts     *service.CartService
	follows   *service.FollowService
	lists     *service.ShoppingListService
}

func setupServices(t *testing.T) *testServices {
	t.Helper()

	db := testhelpers.SetupTestDatabase(t)
	users := service.NewUserService(db)
	images := service.NewLocalImageStore(t.TempDir(), "/media/")

	return &testServices{
		db:        db,
		users:     users,
		recipes:   service.NewRecipeService(db, images, users, 1),
		favorites: service.NewFavoriteService(db),
		carts:     service.NewCartService(db),
		follows:   service.NewFollowService(db, users),
		lists:     service.NewShoppingListService(db),
	}
}

var ctx = context.Background()
