package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/zagrebin/culinaryblog/internal/cache"
	"github.com/zagrebin/culinaryblog/internal/db"
	"github.com/zagrebin/culinaryblog/internal/models"
	"github.com/zagrebin/culinaryblog/pkg/logging"
	"github.com/zagrebin/culinaryblog/pkg/telemetry"
)

// viewDedupTTL is how long one viewer counts at most one view per post
const viewDedupTTL = time.Hour

// FileStore removes stored media by public URL
type FileStore interface {
	Delete(fileURL string) error
}

// FullPost bundles a loaded aggregate with its viewer-dependent flags
type FullPost struct {
	Post         *models.Post
	IsLiked      bool
	IsSubscribed bool
}

// PostPage is one page of posts in requested order plus the total count
type PostPage struct {
	Posts []models.Post
	Total int64
}

// PostService orchestrates the assembler, the like coordinator and the
// repositories into the post use cases
type PostService struct {
	posts     *db.PostRepository
	users     *db.UserRepository
	assembler *Assembler
	likes     *LikeService
	files     FileStore
	cache     *cache.Cache
	logger    *zap.Logger
}

// NewPostService creates a new post service. cache may be nil (view
// deduplication disabled); files may be nil (no media cleanup on delete).
func NewPostService(posts *db.PostRepository, users *db.UserRepository, assembler *Assembler, likes *LikeService, files FileStore, viewCache *cache.Cache) *PostService {
	return &PostService{
		posts:     posts,
		users:     users,
		assembler: assembler,
		likes:     likes,
		files:     files,
		cache:     viewCache,
		logger:    logging.GetLogger().With(zap.String("component", "post-service")),
	}
}

// ListPublished retrieves all published posts, newest first
func (s *PostService) ListPublished(ctx context.Context) ([]models.Post, error) {
	return s.posts.FindByStatus(ctx, "published")
}

// PageByStatus retrieves one page of posts with the given status, newest
// first. Two-stage load: page the IDs in order, bulk-fetch full entities,
// then restore the ID order locally because the bulk fetch does not
// preserve it.
func (s *PostService) PageByStatus(ctx context.Context, status string, page, pageSize int) (*PostPage, error) {
	ids, err := s.posts.FindIDsByStatus(ctx, status, page, pageSize)
	if err != nil {
		return nil, err
	}

	total, err := s.posts.CountByStatus(ctx, status)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return &PostPage{Posts: []models.Post{}, Total: total}, nil
	}

	posts, err := s.posts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.Post, len(posts))
	for i := range posts {
		byID[posts[i].ID] = &posts[i]
	}
	ordered := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, *p)
		}
	}

	return &PostPage{Posts: ordered, Total: total}, nil
}

// GetFull retrieves a post with all relations and resolves the viewer's
// isLiked and isSubscribed flags (both false when viewerID is zero).
// Each successful read counts a view.
func (s *PostService) GetFull(ctx context.Context, postID, viewerID int64) (*FullPost, error) {
	ctx, span := telemetry.StartSpan(ctx, "posts.get_full",
		trace.WithAttributes(attribute.Int64("post_id", postID)))
	defer span.End()

	post, err := s.posts.GetWithRelations(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}

	s.countView(ctx, postID, viewerID)

	return s.withViewerFlags(ctx, post, viewerID)
}

// Create assembles and persists a new post aggregate
func (s *PostService) Create(ctx context.Context, req *PostCreateRequest) (*models.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "posts.create")
	defer span.End()

	post, err := s.assembler.CreateFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Update applies a full-replace update to an existing post. Authorship is
// logged but not enforced; concurrent updates to the same post are
// last-writer-wins (no version check).
func (s *PostService) Update(ctx context.Context, postID int64, req *PostUpdateRequest, currentUserID int64) (*FullPost, error) {
	ctx, span := telemetry.StartSpan(ctx, "posts.update",
		trace.WithAttributes(attribute.Int64("post_id", postID)))
	defer span.End()

	existing, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	if currentUserID != 0 && existing.AuthorID != currentUserID {
		s.logger.Debug("update by non-author",
			zap.Int64("post_id", postID),
			zap.Int64("author_id", existing.AuthorID),
			zap.Int64("user_id", currentUserID))
	}

	post, err := s.assembler.ApplyUpdate(ctx, postID, req)
	if err != nil {
		return nil, err
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	return s.withViewerFlags(ctx, post, currentUserID)
}

// Delete removes a post. Associated media files (cover, step images) are
// deleted best-effort: failures are logged and never abort the deletion.
func (s *PostService) Delete(ctx context.Context, postID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "posts.delete",
		trace.WithAttributes(attribute.Int64("post_id", postID)))
	defer span.End()

	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}

	post, err := s.posts.GetWithRelations(ctx, postID)
	if err != nil {
		return err
	}
	if post != nil && s.files != nil {
		if post.CoverURL != "" {
			if err := s.files.Delete(post.CoverURL); err != nil {
				s.logger.Warn("failed to delete cover",
					zap.Int64("post_id", postID), zap.Error(err))
			}
		}
		for _, step := range post.Steps {
			if step.ImageURL == "" {
				continue
			}
			if err := s.files.Delete(step.ImageURL); err != nil {
				s.logger.Warn("failed to delete step image",
					zap.Int64("post_id", postID), zap.Error(err))
			}
		}
	}

	return s.posts.Delete(ctx, postID)
}

func (s *PostService) withViewerFlags(ctx context.Context, post *models.Post, viewerID int64) (*FullPost, error) {
	full := &FullPost{Post: post}

	if viewerID != 0 {
		liked, err := s.likes.IsLiked(ctx, post.ID, viewerID)
		if err != nil {
			return nil, err
		}
		full.IsLiked = liked

		if post.Author != nil {
			subscribed, err := s.users.IsSubscribed(ctx, viewerID, post.AuthorID)
			if err != nil {
				return nil, err
			}
			full.IsSubscribed = subscribed
		}
	}

	return full, nil
}

// countView bumps the view counter. With redis available the view is
// deduplicated per (post, viewer) for viewDedupTTL; anonymous viewers and
// cache failures fall back to counting every read. A counting failure never
// fails the read itself.
func (s *PostService) countView(ctx context.Context, postID, viewerID int64) {
	if s.cache != nil && viewerID != 0 {
		first, err := s.cache.MarkPostViewed(ctx, postID, viewerID, viewDedupTTL)
		if err == nil && !first {
			return
		}
		if err != nil {
			s.logger.Debug("view dedup unavailable", zap.Error(err))
		}
	}
	if err := s.posts.IncrementViews(ctx, postID); err != nil {
		s.logger.Warn("failed to count view",
			zap.Int64("post_id", postID), zap.Error(err))
	}
}
