package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zagrebin/culinaryblog/internal/db"
	"github.com/zagrebin/culinaryblog/pkg/logging"
	"github.com/zagrebin/culinaryblog/pkg/telemetry"
)

// LikeService coordinates the like state machine per (post, user) pair.
// The post_like fact table is the source of truth; Post.LikesCount is a
// derived counter kept in sync by conditional UPDATE statements that run in
// the same transaction as the fact-row mutation. Consistency under
// concurrency rests on the store: the composite primary key rejects
// duplicate likes and the single-statement counter updates cannot lose
// increments from different users.
type LikeService struct {
	likes  *db.LikeRepository
	posts  *db.PostRepository
	users  *db.UserRepository
	logger *zap.Logger
}

// NewLikeService creates a new like service
func NewLikeService(likes *db.LikeRepository, posts *db.PostRepository, users *db.UserRepository) *LikeService {
	return &LikeService{
		likes:  likes,
		posts:  posts,
		users:  users,
		logger: logging.GetLogger().With(zap.String("component", "like-service")),
	}
}

// Like records that user likes post. Returns false without side effects when
// the pair is already liked, so retries are harmless. When two concurrent
// calls race for the same pair, the loser's insert is rejected by the
// composite key and also reports false.
func (s *LikeService) Like(ctx context.Context, postID, userID int64) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "likes.like",
		trace.WithAttributes(
			attribute.Int64("post_id", postID),
			attribute.Int64("user_id", userID)))
	defer span.End()

	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	exists, err = s.users.Exists(ctx, userID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	liked, err := s.likes.Exists(ctx, postID, userID)
	if err != nil {
		return false, err
	}
	if liked {
		return false, nil
	}

	if err := s.likes.Like(ctx, postID, userID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race to a concurrent like of the same pair
			s.logger.Debug("duplicate like ignored",
				zap.Int64("post_id", postID),
				zap.Int64("user_id", userID))
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Unlike removes the user's like. Returns false when there was nothing to
// remove; the counter never drops below zero.
func (s *LikeService) Unlike(ctx context.Context, postID, userID int64) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "likes.unlike",
		trace.WithAttributes(
			attribute.Int64("post_id", postID),
			attribute.Int64("user_id", userID)))
	defer span.End()

	return s.likes.Unlike(ctx, postID, userID)
}

// IsLiked reports whether user likes post. Zero IDs read as false.
func (s *LikeService) IsLiked(ctx context.Context, postID, userID int64) (bool, error) {
	if postID == 0 || userID == 0 {
		return false, nil
	}
	return s.likes.Exists(ctx, postID, userID)
}

// CountLikes recounts likes from the fact table (verification path)
func (s *LikeService) CountLikes(ctx context.Context, postID int64) (int64, error) {
	return s.likes.CountByPost(ctx, postID)
}
