package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	recipes   *service.RecipeService
	favorites *service.FavoriteService
	carts     *service.CartService
	lists     *service.ShoppingListService
	pdf       service.Renderer
	paginator Paginator
}

func NewRecipeHandler(
	recipes *service.RecipeService,
	favorites *service.FavoriteService,
	carts *service.CartService,
	lists *service.ShoppingListService,
	pdf service.Renderer,
	paginator Paginator,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:   recipes,
		favorites: favorites,
		carts:     carts,
		lists:     lists,
		pdf:       pdf,
		paginator: paginator,
	}
}

func recipeID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": "recipe not found"})
		return uuid.Nil, false
	}
	return id, true
}

func actor(c *gin.Context) service.Actor {
	claims := middleware.Claims(c)
	return service.Actor{ID: claims.UserID, Admin: claims.IsAdmin()}
}

// List returns a filtered page of recipes, newest first
func (h *RecipeHandler) List(c *gin.Context) {
	viewer := middleware.UserID(c)
	filter, err := service.ParseRecipeFilter(c.Request.URL.Query(), viewer)
	if err != nil {
		respondError(c, err)
		return
	}

	page := h.paginator.parse(c)
	recipes, count, err := h.recipes.List(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}

	views, err := h.recipes.Views(c.Request.Context(), recipes, viewer)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPage(c, page, count, views))
}

func (h *RecipeHandler) Get(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	h.respondRecipe(c, http.StatusOK, id)
}

func (h *RecipeHandler) Create(c *gin.Context) {
	var req types.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), *middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondRecipe(c, http.StatusCreated, recipe.ID)
}

// Update applies a partial update, only the author or an admin may do so
func (h *RecipeHandler) Update(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	var req types.UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if _, err := h.recipes.Update(c.Request.Context(), actor(c), id, &req); err != nil {
		respondError(c, err)
		return
	}

	h.respondRecipe(c, http.StatusOK, id)
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) respondRecipe(c *gin.Context, status int, id uuid.UUID) {
	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.recipes.View(c.Request.Context(), recipe, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(status, view)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	short, err := h.favorites.Add(c.Request.Context(), *middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, short)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	if err := h.favorites.Remove(c.Request.Context(), *middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	short, err := h.carts.Add(c.Request.Context(), *middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, short)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	if err := h.carts.Remove(c.Request.Context(), *middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart sends the aggregated shopping list as a PDF, or as
// plain text with ?format=txt or when the PDF font lacks a glyph
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	renderer := h.pdf
	if c.Query("format") == "txt" {
		renderer = service.TextRenderer{}
	}

	doc, err := h.lists.Download(c.Request.Context(), *middleware.UserID(c), renderer)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.FileName))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}
