package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/zagrebin/culinaryblog/internal/db"
	"github.com/zagrebin/culinaryblog/internal/models"
)

// Assembler builds a post aggregate from a creation request, or reconciles
// an existing aggregate against an update request. It enforces referential
// existence of the author and every ingredient; unknown tag IDs are dropped.
// The returned aggregate is in-memory only: persisting it is the caller's
// responsibility, so one transaction can cover the persist and any side
// effects.
type Assembler struct {
	users       *db.UserRepository
	tags        *db.TagRepository
	ingredients *db.IngredientRepository
	posts       *db.PostRepository
}

// NewAssembler creates a new post assembler
func NewAssembler(users *db.UserRepository, tags *db.TagRepository, ingredients *db.IngredientRepository, posts *db.PostRepository) *Assembler {
	return &Assembler{
		users:       users,
		tags:        tags,
		ingredients: ingredients,
		posts:       posts,
	}
}

// CreateFromRequest assembles a new post aggregate. Scalars are copied
// verbatim; status/postType defaults are applied at persistence time.
// Steps are sorted by order ascending but never deduplicated or renumbered:
// duplicate orders are a caller error caught by the store's uniqueness
// constraint.
func (a *Assembler) CreateFromRequest(ctx context.Context, req *PostCreateRequest) (*models.Post, error) {
	if req.AuthorID == 0 {
		return nil, fmt.Errorf("%w: authorId is required", ErrInvalidInput)
	}
	author, err := a.users.GetByID(ctx, req.AuthorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, fmt.Errorf("author %d: %w", req.AuthorID, ErrNotFound)
	}

	post := &models.Post{
		PostType:           req.PostType,
		Status:             req.Status,
		Title:              req.Title,
		Excerpt:            req.Excerpt,
		Content:            req.Content,
		CoverURL:           req.CoverURL,
		CookingTimeMinutes: toNullInt64(req.CookingTimeMinutes),
		Calories:           toNullInt64(req.Calories),
		AuthorID:           author.ID,
		Author:             author,
	}

	if len(req.TagIDs) > 0 {
		tags, err := a.tags.FindByIDs(ctx, req.TagIDs)
		if err != nil {
			return nil, err
		}
		post.Tags = tags
	}

	ingredients, err := a.buildIngredients(ctx, req.Ingredients)
	if err != nil {
		return nil, err
	}
	post.Ingredients = ingredients
	post.Steps = buildSteps(req.Steps)

	return post, nil
}

// ApplyUpdate loads the existing aggregate with all relations in one
// snapshot, overwrites every scalar field from the request, and fully
// replaces the tag set, ingredient links and step list. No diffing.
// The mutated aggregate is returned unsaved.
func (a *Assembler) ApplyUpdate(ctx context.Context, postID int64, req *PostUpdateRequest) (*models.Post, error) {
	post, err := a.posts.GetWithRelations(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}

	post.PostType = req.PostType
	post.Status = req.Status
	post.Title = req.Title
	post.Excerpt = req.Excerpt
	post.Content = req.Content
	post.CoverURL = req.CoverURL
	post.CookingTimeMinutes = toNullInt64(req.CookingTimeMinutes)
	post.Calories = toNullInt64(req.Calories)

	tags, err := a.tags.FindByIDs(ctx, req.TagIDs)
	if err != nil {
		return nil, err
	}
	post.Tags = tags

	ingredients, err := a.buildIngredients(ctx, req.Ingredients)
	if err != nil {
		return nil, err
	}
	post.Ingredients = ingredients
	post.Steps = buildSteps(req.Steps)

	return post, nil
}

// buildIngredients resolves every requested line to an existing ingredient.
// Two lines naming the same ingredient are passed through untouched and
// collide on the (post, ingredient) constraint at persist time.
func (a *Assembler) buildIngredients(ctx context.Context, lines []IngredientLine) ([]models.PostIngredient, error) {
	ingredients := make([]models.PostIngredient, 0, len(lines))
	for _, line := range lines {
		ing, err := a.ingredients.GetByID(ctx, line.IngredientID)
		if err != nil {
			return nil, err
		}
		if ing == nil {
			return nil, fmt.Errorf("ingredient %d: %w", line.IngredientID, ErrNotFound)
		}
		ingredients = append(ingredients, models.PostIngredient{
			IngredientID:  ing.ID,
			Ingredient:    ing,
			QuantityValue: toNullFloat64(line.QuantityValue),
			Unit:          line.Unit,
		})
	}
	return ingredients, nil
}

func buildSteps(inputs []StepInput) []models.RecipeStep {
	steps := make([]models.RecipeStep, 0, len(inputs))
	for _, s := range inputs {
		steps = append(steps, models.RecipeStep{
			StepOrder:   s.Order,
			Description: s.Description,
			ImageURL:    s.ImageURL,
		})
	}
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].StepOrder < steps[j].StepOrder
	})
	return steps
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func toNullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
