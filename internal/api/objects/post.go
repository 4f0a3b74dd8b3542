package objects

import (
	"sort"
	"strings"
	"time"

	"github.com/zagrebin/culinaryblog/internal/models"
	"github.com/zagrebin/culinaryblog/internal/service"
)

// Author is the author block of a full post response
type Author struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
	Subscribed  bool   `json:"isSubscribed"`
}

// Tag is a tag in a full post response or tag listing
type Tag struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

// Ingredient is one ingredient line of a full post response
type Ingredient struct {
	ID            int64    `json:"id"`
	IngredientID  int64    `json:"ingredientId"`
	Name          string   `json:"name"`
	QuantityValue *float64 `json:"quantityValue"`
	Unit          string   `json:"unit"`
}

// Step is one preparation step of a full post response
type Step struct {
	ID          int64  `json:"id"`
	Order       int    `json:"order"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// PostCard is the summary shape used in listings
type PostCard struct {
	ID                 int64    `json:"id"`
	Title              string   `json:"title"`
	Excerpt            string   `json:"excerpt"`
	CoverURL           string   `json:"coverUrl"`
	AuthorID           int64    `json:"authorId"`
	AuthorName         string   `json:"authorName"`
	PublishedAt        string   `json:"publishedAt"`
	LikesCount         int      `json:"likesCount"`
	ViewsCount         int64    `json:"viewsCount"`
	CookingTimeMinutes *int64   `json:"cookingTimeMinutes"`
	Calories           *int64   `json:"calories"`
	Tags               []string `json:"tags"`
}

// PostFull is the complete shape of a single post
type PostFull struct {
	ID                 int64        `json:"id"`
	PostType           string       `json:"postType"`
	Status             string       `json:"status"`
	Title              string       `json:"title"`
	Excerpt            string       `json:"excerpt"`
	Content            string       `json:"content"`
	CoverURL           string       `json:"coverUrl"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
	Author             *Author      `json:"author"`
	Tags               []Tag        `json:"tags"`
	Ingredients        []Ingredient `json:"ingredients"`
	Steps              []Step       `json:"steps"`
	LikesCount         int          `json:"likesCount"`
	IsLiked            bool         `json:"isLiked"`
	ViewsCount         int64        `json:"viewsCount"`
	Calories           *int64       `json:"calories"`
	CookingTimeMinutes *int64       `json:"cookingTimeMinutes"`
}

// NewPostCard maps a post to its card shape. Media URLs are resolved
// against baseURL.
func NewPostCard(p *models.Post, baseURL string) *PostCard {
	if p == nil {
		return nil
	}
	card := &PostCard{
		ID:                 p.ID,
		Title:              p.Title,
		Excerpt:            p.Excerpt,
		CoverURL:           AbsoluteURL(baseURL, p.CoverURL),
		AuthorID:           p.AuthorID,
		AuthorName:         "Unknown",
		PublishedAt:        "Unknown",
		LikesCount:         p.LikesCount,
		ViewsCount:         p.ViewsCount,
		CookingTimeMinutes: nullableInt64(p.CookingTimeMinutes.Valid, p.CookingTimeMinutes.Int64),
		Calories:           nullableInt64(p.Calories.Valid, p.Calories.Int64),
		Tags:               make([]string, 0, len(p.Tags)),
	}
	if p.Author != nil {
		card.AuthorName = p.Author.DisplayName
	}
	if !p.CreatedAt.IsZero() {
		card.PublishedAt = p.CreatedAt.Format(time.RFC3339)
	}
	for _, t := range p.Tags {
		card.Tags = append(card.Tags, t.Name)
	}
	return card
}

// NewPostFull maps a loaded aggregate with viewer flags to the full shape.
// Steps are deduplicated by ID and sorted by order; media URLs are resolved
// against baseURL.
func NewPostFull(fp *service.FullPost, baseURL string) *PostFull {
	if fp == nil || fp.Post == nil {
		return nil
	}
	p := fp.Post

	full := &PostFull{
		ID:                 p.ID,
		PostType:           p.PostType,
		Status:             p.Status,
		Title:              p.Title,
		Excerpt:            p.Excerpt,
		Content:            p.Content,
		CoverURL:           AbsoluteURL(baseURL, p.CoverURL),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
		Tags:               make([]Tag, 0, len(p.Tags)),
		Ingredients:        make([]Ingredient, 0, len(p.Ingredients)),
		Steps:              make([]Step, 0, len(p.Steps)),
		LikesCount:         p.LikesCount,
		IsLiked:            fp.IsLiked,
		ViewsCount:         p.ViewsCount,
		Calories:           nullableInt64(p.Calories.Valid, p.Calories.Int64),
		CookingTimeMinutes: nullableInt64(p.CookingTimeMinutes.Valid, p.CookingTimeMinutes.Int64),
	}

	if p.Author != nil {
		full.Author = &Author{
			ID:          p.Author.ID,
			Username:    p.Author.Username,
			DisplayName: p.Author.DisplayName,
			AvatarURL:   AbsoluteURL(baseURL, p.Author.AvatarURL),
			Subscribed:  fp.IsSubscribed,
		}
	}

	for _, t := range p.Tags {
		full.Tags = append(full.Tags, NewTag(&t))
	}

	for _, pi := range p.Ingredients {
		ing := Ingredient{
			ID:           pi.ID,
			IngredientID: pi.IngredientID,
			Unit:         pi.Unit,
		}
		if pi.QuantityValue.Valid {
			v := pi.QuantityValue.Float64
			ing.QuantityValue = &v
		}
		if pi.Ingredient != nil {
			ing.Name = pi.Ingredient.Name
		}
		full.Ingredients = append(full.Ingredients, ing)
	}

	seen := make(map[int64]bool, len(p.Steps))
	steps := make([]models.RecipeStep, 0, len(p.Steps))
	for _, s := range p.Steps {
		if s.ID != 0 && seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		steps = append(steps, s)
	}
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].StepOrder < steps[j].StepOrder
	})
	for _, s := range steps {
		full.Steps = append(full.Steps, Step{
			ID:          s.ID,
			Order:       s.StepOrder,
			Description: s.Description,
			ImageURL:    AbsoluteURL(baseURL, s.ImageURL),
		})
	}

	return full
}

// NewTag maps a tag entity to its response shape
func NewTag(t *models.Tag) Tag {
	return Tag{
		ID:    t.ID,
		Name:  t.Name,
		Slug:  t.Slug,
		Color: t.Color,
	}
}

// AbsoluteURL resolves a stored relative media path against base. A value
// already carrying a scheme, a blank value, or an empty base pass through
// unchanged.
func AbsoluteURL(base, value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	if base == "" {
		return trimmed
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimSuffix(base, "/") + trimmed
}

func nullableInt64(valid bool, v int64) *int64 {
	if !valid {
		return nil
	}
	return &v
}
