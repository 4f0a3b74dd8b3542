package models

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// Post is a recipe or article. It exclusively owns its steps and ingredient
// links (deleted with the post); tags and the author are referenced, not owned.
type Post struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	PostType  string    `gorm:"type:varchar(20);not null;column:post_type"`
	Status    string    `gorm:"type:varchar(20);not null;index:idx_posts_status_created_at,priority:1;column:status"`
	Title     string    `gorm:"type:varchar(255);not null;column:title"`
	Excerpt   string    `gorm:"type:text;column:excerpt"`
	Content   string    `gorm:"type:text;column:content"`
	CoverURL  string    `gorm:"column:cover_url"`
	CreatedAt time.Time `gorm:"index:idx_posts_status_created_at,priority:2;column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
	AuthorID  int64     `gorm:"not null;index:idx_posts_author;column:author_id"`

	// LikesCount is a denormalized cache of post_like rows, maintained
	// incrementally by single conditional UPDATE statements
	LikesCount    int   `gorm:"not null;default:0;column:likes_count"`
	CommentsCount int   `gorm:"not null;default:0;column:comments_count"`
	ViewsCount    int64 `gorm:"not null;default:0;column:views_count"`

	Calories           sql.NullInt64 `gorm:"column:calories"`
	CookingTimeMinutes sql.NullInt64 `gorm:"column:cooking_time_minutes"`

	// Relationships
	Author      *User            `gorm:"foreignKey:AuthorID"`
	Tags        []Tag            `gorm:"many2many:post_tags"`
	Ingredients []PostIngredient `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	Steps       []RecipeStep     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// BeforeCreate applies persistence-time defaults
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.Status == "" {
		p.Status = "draft"
	}
	if p.PostType == "" {
		p.PostType = "recipe"
	}
	return nil
}

// PostIngredient links a post to an ingredient with a quantity.
// At most one row may exist per (post, ingredient) pair.
type PostIngredient struct {
	ID            int64           `gorm:"primaryKey;autoIncrement;column:id"`
	PostID        int64           `gorm:"not null;uniqueIndex:uk_post_ingredient,priority:1;column:post_id"`
	IngredientID  int64           `gorm:"not null;uniqueIndex:uk_post_ingredient,priority:2;column:ingredient_id"`
	QuantityValue sql.NullFloat64 `gorm:"column:quantity_value"`
	Unit          string          `gorm:"type:varchar(50);column:quantity_unit"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID"`
}

// TableName specifies the table name for PostIngredient
func (PostIngredient) TableName() string {
	return "post_ingredient"
}

// RecipeStep is one ordered preparation step of a post.
// (post, step_order) pairs are unique within a post.
type RecipeStep struct {
	ID          int64  `gorm:"primaryKey;autoIncrement;column:id"`
	PostID      int64  `gorm:"not null;uniqueIndex:uk_post_step_order,priority:1;column:post_id"`
	StepOrder   int    `gorm:"not null;uniqueIndex:uk_post_step_order,priority:2;column:step_order"`
	Description string `gorm:"type:text;column:description"`
	ImageURL    string `gorm:"column:image_url"`
}

// TableName specifies the table name for RecipeStep
func (RecipeStep) TableName() string {
	return "recipe_step"
}
