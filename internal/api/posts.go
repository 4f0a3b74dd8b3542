package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zagrebin/culinaryblog/internal/api/objects"
	"github.com/zagrebin/culinaryblog/internal/service"
)

// listPosts returns cards of published posts. Without a page parameter the
// whole listing is returned; with one, a paginated envelope.
func (r *Router) listPosts(c *gin.Context) {
	base := requestBaseURL(c)

	if c.Query("page") == "" {
		posts, err := r.posts.ListPublished(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		cards := make([]*objects.PostCard, 0, len(posts))
		for i := range posts {
			cards = append(cards, objects.NewPostCard(&posts[i], base))
		}
		c.JSON(http.StatusOK, cards)
		return
	}

	page, pageSize := pageParams(c, 10)
	result, err := r.posts.PageByStatus(c.Request.Context(), "published", page, pageSize)
	if err != nil {
		abortWithError(c, err)
		return
	}

	cards := make([]*objects.PostCard, 0, len(result.Posts))
	for i := range result.Posts {
		cards = append(cards, objects.NewPostCard(&result.Posts[i], base))
	}

	next := ""
	if int64(page*pageSize) < result.Total {
		next = nextPageURL("/api/v1/posts", page, pageSize, "")
	}
	c.JSON(http.StatusOK, gin.H{
		"results": cards,
		"total":   result.Total,
		"next":    next,
	})
}

func (r *Router) getPost(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	viewerID, _ := strconv.ParseInt(c.Query("currentUserId"), 10, 64)

	full, err := r.posts.GetFull(c.Request.Context(), id, viewerID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, objects.NewPostFull(full, requestBaseURL(c)))
}

func (r *Router) createPost(c *gin.Context) {
	var req service.PostCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := r.posts.Create(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/api/v1/posts/%d", post.ID))
	c.JSON(http.StatusCreated, objects.NewPostCard(post, requestBaseURL(c)))
}

func (r *Router) updatePost(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	var req service.PostUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	currentUserID, _ := strconv.ParseInt(c.Query("currentUserId"), 10, 64)

	full, err := r.posts.Update(c.Request.Context(), id, &req, currentUserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, objects.NewPostFull(full, requestBaseURL(c)))
}

func (r *Router) deletePost(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := r.posts.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) likePost(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil || userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	ok, err := r.likes.Like(c.Request.Context(), id, userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !ok {
		// already liked
		c.Status(http.StatusConflict)
		return
	}
	c.Status(http.StatusOK)
}

func (r *Router) unlikePost(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil || userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	ok, err := r.likes.Unlike(c.Request.Context(), id, userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", service.ErrInvalidInput, c.Param("id"))
	}
	return id, nil
}
