package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type UserHandler struct {
	auth      *service.AuthService
	users     *service.UserService
	follows   *service.FollowService
	paginator Paginator
}

func NewUserHandler(auth *service.AuthService, users *service.UserService, follows *service.FollowService, paginator Paginator) *UserHandler {
	return &UserHandler{
		auth:      auth,
		users:     users,
		follows:   follows,
		paginator: paginator,
	}
}

// Register creates a new account
func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.NewUserResponse(user, false))
}

func (h *UserHandler) List(c *gin.Context) {
	page := h.paginator.parse(c)
	users, count, err := h.users.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}

	views, err := h.users.Views(c.Request.Context(), users, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPage(c, page, count, views))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": "user not found"})
		return
	}
	h.respondUser(c, id)
}

// Me returns the authenticated user
func (h *UserHandler) Me(c *gin.Context) {
	h.respondUser(c, *middleware.UserID(c))
}

func (h *UserHandler) respondUser(c *gin.Context, id uuid.UUID) {
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.users.View(c.Request.Context(), user, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID := middleware.UserID(c)
	if err := h.auth.SetPassword(c.Request.Context(), *userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Subscriptions lists the authors the user follows
func (h *UserHandler) Subscriptions(c *gin.Context) {
	limit, ok := recipesLimit(c)
	if !ok {
		respondFieldError(c, "recipes_limit", "must be a non-negative integer")
		return
	}

	page := h.paginator.parse(c)
	authors, count, err := h.follows.Subscriptions(c.Request.Context(), *middleware.UserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPage(c, page, count, authors))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": "user not found"})
		return
	}
	limit, ok := recipesLimit(c)
	if !ok {
		respondFieldError(c, "recipes_limit", "must be a non-negative integer")
		return
	}

	view, err := h.follows.Subscribe(c.Request.Context(), *middleware.UserID(c), authorID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": "user not found"})
		return
	}

	if err := h.follows.Unsubscribe(c.Request.Context(), *middleware.UserID(c), authorID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
