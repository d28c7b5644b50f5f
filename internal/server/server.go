package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/log"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Server represents the HTTP server
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	auth   *service.AuthService
}

// New wires the services and handlers. redisClient may be nil, in which case
// recipe creation is not rate limited and logout cannot revoke tokens.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	images, err := service.NewImageStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var (
		revoker service.TokenRevoker
		limiter *middleware.RateLimiter
	)
	if redisClient != nil {
		revoker = service.NewRedisTokenStore(redisClient)
		if cfg.RecipeCreateLimit > 0 {
			limiter = middleware.NewRecipeCreationRateLimiter(redisClient, cfg.RecipeCreateLimit)
		}
	}

	if cfg.PDFFontPath == "" {
		log.Log.Warn("PDF_FONT_PATH is not set, shopping lists outside cp1252 are sent as plain text")
	}

	auth := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, revoker)
	users := service.NewUserService(db)
	follows := service.NewFollowService(db, users)
	recipes := service.NewRecipeService(db, images, users, cfg.MinIngredientAmount)
	paginator := api.Paginator{DefaultSize: cfg.DefaultPageSize, MaxSize: cfg.MaxPageSize}

	handlers := router.Handlers{
		Auth:  api.NewAuthHandler(auth),
		Users: api.NewUserHandler(auth, users, follows, paginator),
		Recipes: api.NewRecipeHandler(
			recipes,
			service.NewFavoriteService(db),
			service.NewCartService(db),
			service.NewShoppingListService(db),
			service.NewPDFRenderer(cfg.PDFFontPath),
			paginator,
		),
		Tags:        api.NewTagHandler(service.NewTagService(db)),
		Ingredients: api.NewIngredientHandler(service.NewIngredientService(db)),
	}

	opts := router.Options{
		DB:                  db,
		Tokens:              auth,
		RecipeCreateLimiter: limiter,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	}
	if cfg.ImageStorage == "local" {
		opts.MediaURL = cfg.MediaURL
		opts.MediaRoot = cfg.MediaRoot
	}

	return &Server{
		cfg:    cfg,
		router: router.SetupRouter(handlers, opts),
		db:     db,
		auth:   auth,
	}, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until SIGINT or SIGTERM and then shuts down gracefully
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.cfg.ListenAddr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Log.Infof("Server listening on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "server failed")
		}
		return nil
	case sig := <-quit:
		log.Log.WithField("signal", sig.String()).Info("Shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Stop(ctx)
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}
