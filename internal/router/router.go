package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
)

// Handlers groups everything the route table needs
type Handlers struct {
	Auth        *api.AuthHandler
	Users       *api.UserHandler
	Recipes     *api.RecipeHandler
	Tags        *api.TagHandler
	Ingredients *api.IngredientHandler
}

// Options configures cross-cutting behaviour of the router
type Options struct {
	DB                  *gorm.DB
	Tokens              middleware.TokenValidator
	RecipeCreateLimiter *middleware.RateLimiter
	CORSAllowedOrigins  []string
	// MediaURL and MediaRoot serve locally stored images when both are set
	MediaURL  string
	MediaRoot string
}

// SetupRouter configures the application routes
func SetupRouter(h Handlers, opts Options) *gin.Engine {
	api.RegisterValidators()

	router := gin.New()
	router.Use(middleware.Recovery(), middleware.RequestLogger())
	if len(opts.CORSAllowedOrigins) > 0 {
		router.Use(middleware.CORS(opts.CORSAllowedOrigins))
	}

	router.GET("/health", api.HealthCheck(opts.DB))
	if opts.MediaURL != "" && opts.MediaRoot != "" {
		router.Static(opts.MediaURL, opts.MediaRoot)
	}

	authRequired := middleware.AuthMiddleware(opts.Tokens)
	authOptional := middleware.OptionalAuth(opts.Tokens)

	v := router.Group("/api")

	auth := v.Group("/auth/token")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", authRequired, h.Auth.Logout)
	}

	users := v.Group("/users")
	{
		users.GET("", authOptional, h.Users.List)
		users.POST("", h.Users.Register)
		users.GET("/me", authRequired, h.Users.Me)
		users.POST("/set_password", authRequired, h.Users.SetPassword)
		users.GET("/subscriptions", authRequired, h.Users.Subscriptions)
		users.GET("/:id", authOptional, h.Users.Get)
		users.POST("/:id/subscribe", authRequired, h.Users.Subscribe)
		users.DELETE("/:id/subscribe", authRequired, h.Users.Unsubscribe)
	}

	createRecipe := []gin.HandlerFunc{authRequired}
	if opts.RecipeCreateLimiter != nil {
		createRecipe = append(createRecipe, opts.RecipeCreateLimiter.RateLimitMiddleware())
	}
	createRecipe = append(createRecipe, h.Recipes.Create)

	recipes := v.Group("/recipes")
	{
		recipes.GET("", authOptional, h.Recipes.List)
		recipes.POST("", createRecipe...)
		recipes.GET("/download_shopping_cart", authRequired, h.Recipes.DownloadShoppingCart)
		recipes.GET("/:id", authOptional, h.Recipes.Get)
		recipes.PATCH("/:id", authRequired, h.Recipes.Update)
		recipes.DELETE("/:id", authRequired, h.Recipes.Delete)
		recipes.POST("/:id/favorite", authRequired, h.Recipes.AddFavorite)
		recipes.DELETE("/:id/favorite", authRequired, h.Recipes.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", authRequired, h.Recipes.AddToCart)
		recipes.DELETE("/:id/shopping_cart", authRequired, h.Recipes.RemoveFromCart)
	}

	tags := v.Group("/tags")
	{
		tags.GET("", h.Tags.List)
		tags.GET("/:id", h.Tags.Get)
		tags.POST("", authRequired, middleware.RequireAdmin(), h.Tags.Create)
	}

	ingredients := v.Group("/ingredients")
	{
		ingredients.GET("", h.Ingredients.List)
		ingredients.GET("/:id", h.Ingredients.Get)
	}

	return router
}
