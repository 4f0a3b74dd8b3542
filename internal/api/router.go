package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/zagrebin/culinaryblog/internal/db"
	"github.com/zagrebin/culinaryblog/internal/service"
	"github.com/zagrebin/culinaryblog/internal/storage"
	"github.com/zagrebin/culinaryblog/pkg/logging"
	"github.com/zagrebin/culinaryblog/pkg/telemetry"
)

// Router sets up API routes
type Router struct {
	posts       *service.PostService
	likes       *service.LikeService
	tags        *db.TagRepository
	ingredients *db.IngredientRepository
	files       *storage.LocalStore
	logger      *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(posts *service.PostService, likes *service.LikeService, tags *db.TagRepository, ingredients *db.IngredientRepository, files *storage.LocalStore) *Router {
	return &Router{
		posts:       posts,
		likes:       likes,
		tags:        tags,
		ingredients: ingredients,
		files:       files,
		logger:      logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(traceRequests())

	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	v1 := engine.Group("/api/v1")
	{
		posts := v1.Group("/posts")
		posts.GET("", r.listPosts)
		posts.GET("/:id", r.getPost)
		posts.POST("", r.createPost)
		posts.PUT("/:id", r.updatePost)
		posts.DELETE("/:id", r.deletePost)
		posts.POST("/:id/like", r.likePost)
		posts.DELETE("/:id/like", r.unlikePost)

		v1.POST("/uploads/:type", r.upload)
	}

	lookup := engine.Group("/api")
	{
		lookup.GET("/tags", r.listTags)
		lookup.GET("/ingredients", r.listIngredients)
	}
}

func (r *Router) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"service": "culinaryblog-api",
	})
}

// traceRequests opens one server span per request, named after the matched
// route, and propagates its context to the handlers
func traceRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Request.Method
		if route := c.FullPath(); route != "" {
			name += " " + route
		}
		ctx, span := telemetry.StartSpan(c.Request.Context(), name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.target", c.Request.URL.Path),
			))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
	}
}

// requestBaseURL derives the absolute base for media URL resolution from the
// incoming request; empty when the host is unknown. A TLS-terminating proxy
// announces the client-facing scheme via X-Forwarded-Proto.
func requestBaseURL(c *gin.Context) string {
	if c.Request == nil || c.Request.Host == "" {
		return ""
	}
	scheme := "http"
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
