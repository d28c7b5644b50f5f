package service

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipeFilter narrows the recipe list. Viewer is the requesting user, nil for
// anonymous requests; the favorite and cart flags only apply to a viewer.
type RecipeFilter struct {
	Author           *uuid.UUID
	Tags             []string
	IsFavorited      bool
	IsInShoppingCart bool
	Viewer           *uuid.UUID
}

// ParseRecipeFilter reads author, tags, is_favorited and is_in_shopping_cart from query
func ParseRecipeFilter(query url.Values, viewer *uuid.UUID) (RecipeFilter, error) {
	filter := RecipeFilter{Viewer: viewer}

	if raw := query.Get("author"); raw != "" {
		author, err := uuid.Parse(raw)
		if err != nil {
			return filter, invalid("author", "must be a valid user id")
		}
		filter.Author = &author
	}

	for _, slug := range query["tags"] {
		if slug != "" {
			filter.Tags = append(filter.Tags, slug)
		}
	}

	filter.IsFavorited = truthy(query.Get("is_favorited"))
	filter.IsInShoppingCart = truthy(query.Get("is_in_shopping_cart"))
	return filter, nil
}

func truthy(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

// Apply adds the filter conditions to a query on recipes
func (f RecipeFilter) Apply(db *gorm.DB) *gorm.DB {
	sub := db.Session(&gorm.Session{NewDB: true})

	if f.Author != nil {
		db = db.Where("recipes.author_id = ?", *f.Author)
	}
	if len(f.Tags) > 0 {
		// A subquery keeps one row per recipe when several tags match
		tagged := sub.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.Tags)
		db = db.Where("recipes.id IN (?)", tagged)
	}
	if f.Viewer == nil {
		return db
	}
	if f.IsFavorited {
		favorites := sub.Table("favorites").Select("recipe_id").Where("user_id = ?", *f.Viewer)
		db = db.Where("recipes.id IN (?)", favorites)
	}
	if f.IsInShoppingCart {
		cart := sub.Table("shopping_carts").Select("recipe_id").Where("user_id = ?", *f.Viewer)
		db = db.Where("recipes.id IN (?)", cart)
	}
	return db
}
