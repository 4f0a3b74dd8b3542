package db

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zagrebin/culinaryblog/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Exists checks whether a user with the given ID exists
func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsSubscribed checks whether subscriber follows author
func (r *UserRepository) IsSubscribed(ctx context.Context, subscriberID, authorID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("user_subscriptions").
		Where("subscriber_id = ? AND subscribed_to_id = ?", subscriberID, authorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// TagRepository provides tag-related database operations
type TagRepository struct {
	*Repository
}

// NewTagRepository creates a new tag repository
func NewTagRepository(repo *Repository) *TagRepository {
	return &TagRepository{Repository: repo}
}

// FindByIDs retrieves the subset of tags that exist for the given IDs.
// Unknown IDs are simply absent from the result, not an error.
func (r *TagRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// GetByName retrieves a tag by its unique name
func (r *TagRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tag, nil
}

// List retrieves one page of tags, optionally filtered by a case-insensitive
// name substring, ordered by name
func (r *TagRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.Tag, error) {
	q := r.db.WithContext(ctx).Model(&models.Tag{})
	if search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	var tags []models.Tag
	err := q.Order("name ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&tags).Error
	return tags, err
}

// Count counts tags matching the optional search filter
func (r *TagRepository) Count(ctx context.Context, search string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Tag{})
	if search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

// Create creates a new tag
func (r *TagRepository) Create(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

// IngredientRepository provides ingredient-related database operations
type IngredientRepository struct {
	*Repository
}

// NewIngredientRepository creates a new ingredient repository
func NewIngredientRepository(repo *Repository) *IngredientRepository {
	return &IngredientRepository{Repository: repo}
}

// GetByID retrieves an ingredient by ID
func (r *IngredientRepository) GetByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	var ing models.Ingredient
	if err := r.db.WithContext(ctx).First(&ing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ing, nil
}

// List retrieves one page of ingredients, optionally filtered by name substring
func (r *IngredientRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.Ingredient, error) {
	q := r.db.WithContext(ctx).Model(&models.Ingredient{})
	if search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	var ingredients []models.Ingredient
	err := q.Order("name ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&ingredients).Error
	return ingredients, err
}

// Count counts ingredients matching the optional search filter
func (r *IngredientRepository) Count(ctx context.Context, search string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Ingredient{})
	if search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

// Create creates a new ingredient
func (r *IngredientRepository) Create(ctx context.Context, ing *models.Ingredient) error {
	return r.db.WithContext(ctx).Create(ing).Error
}

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID without relations
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// Exists checks whether a post with the given ID exists
func (r *PostRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByStatus retrieves posts with the given status, newest first,
// with author and tags preloaded
func (r *PostRepository) FindByStatus(ctx context.Context, status string) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// FindIDsByStatus retrieves one page of post IDs with the given status,
// newest first. Full entities are fetched separately via FindByIDs.
func (r *PostRepository) FindIDsByStatus(ctx context.Context, status string, page, pageSize int) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Pluck("id", &ids).Error
	return ids, err
}

// FindByIDs retrieves posts by ID set with all relations preloaded.
// Result order is not guaranteed; callers re-sort by their ID list.
func (r *PostRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Steps").
		Where("id IN ?", ids).
		Find(&posts).Error
	return posts, err
}

// GetWithRelations retrieves one post with author, tags, ingredients
// (including their ingredient) and steps in a single consistent snapshot
func (r *PostRepository) GetWithRelations(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// CountByStatus counts posts with the given status
func (r *PostRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// Create persists a new post aggregate: the post row, its tag links,
// ingredient links and steps. Shared entities (tags, ingredients, author)
// are linked, never modified.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).
		Omit("Author", "Tags.*", "Ingredients.Ingredient").
		Create(post).Error
}

// Update persists a modified post aggregate using full-replace
// synchronization: scalar columns are overwritten and the tag links,
// ingredient links and steps are cleared and rebuilt, all in one transaction
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.RecipeStep{}).Error; err != nil {
			return err
		}
		if err := tx.Model(post).Omit("Tags.*").Association("Tags").Replace(post.Tags); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(post).Error; err != nil {
			return err
		}
		for i := range post.Ingredients {
			post.Ingredients[i].PostID = post.ID
		}
		if len(post.Ingredients) > 0 {
			if err := tx.Omit("Ingredient").Create(&post.Ingredients).Error; err != nil {
				return err
			}
		}
		for i := range post.Steps {
			post.Steps[i].PostID = post.ID
		}
		if len(post.Steps) > 0 {
			if err := tx.Create(&post.Steps).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a post together with its owned steps, ingredient links,
// like rows and tag associations
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.PostIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.RecipeStep{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{ID: id}).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
}

// IncrementLikes bumps the denormalized like counter with a single
// conditional UPDATE, safe under concurrent callers
func (r *PostRepository) IncrementLikes(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("likes_count", gorm.Expr("COALESCE(likes_count, 0) + 1")).Error
}

// DecrementLikes lowers the like counter, never below zero
func (r *PostRepository) DecrementLikes(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("likes_count", gorm.Expr("CASE WHEN COALESCE(likes_count, 0) > 0 THEN likes_count - 1 ELSE 0 END")).Error
}

// IncrementViews bumps the view counter atomically
func (r *PostRepository) IncrementViews(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("COALESCE(views_count, 0) + 1")).Error
}

// LikeRepository provides operations on the post_like fact table
type LikeRepository struct {
	*Repository
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(repo *Repository) *LikeRepository {
	return &LikeRepository{Repository: repo}
}

// Exists checks whether the like fact row exists
func (r *LikeRepository) Exists(ctx context.Context, postID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByPost recounts likes from the fact table. Verification path only;
// readers trust the denormalized Post.LikesCount.
func (r *LikeRepository) CountByPost(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PostLike{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}

// Like inserts the fact row and bumps the counter in one transaction.
// A duplicate insert (lost race or repeated call) rolls back with
// gorm.ErrDuplicatedKey, leaving the counter untouched.
func (r *LikeRepository) Like(ctx context.Context, postID, userID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := models.PostLike{PostID: postID, UserID: userID}
		if err := tx.Create(&like).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("likes_count", gorm.Expr("COALESCE(likes_count, 0) + 1")).Error
	})
}

// Unlike removes the fact row and lowers the counter in one transaction.
// Returns false when there was no row to remove.
func (r *LikeRepository) Unlike(ctx context.Context, postID, userID int64) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("likes_count", gorm.Expr("CASE WHEN COALESCE(likes_count, 0) > 0 THEN likes_count - 1 ELSE 0 END")).Error
	})
	return removed, err
}
