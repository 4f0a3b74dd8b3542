package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zagrebin/culinaryblog/internal/db"
	"github.com/zagrebin/culinaryblog/internal/models"
	"github.com/zagrebin/culinaryblog/internal/service"
	"github.com/zagrebin/culinaryblog/internal/storage"
	"github.com/zagrebin/culinaryblog/pkg/config"
)

type apiEnv struct {
	gdb    *gorm.DB
	engine *gin.Engine
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Post{},
		&models.PostIngredient{},
		&models.RecipeStep{},
		&models.PostLike{},
	))

	repo := db.NewRepository(gdb)
	users := db.NewUserRepository(repo)
	tags := db.NewTagRepository(repo)
	ingredients := db.NewIngredientRepository(repo)
	posts := db.NewPostRepository(repo)
	likes := db.NewLikeRepository(repo)

	assembler := service.NewAssembler(users, tags, ingredients, posts)
	likeService := service.NewLikeService(likes, posts, users)

	files, err := storage.NewLocalStore(&config.MediaConfig{Root: t.TempDir()})
	require.NoError(t, err)

	postService := service.NewPostService(posts, users, assembler, likeService, files, nil)

	engine := gin.New()
	NewRouter(postService, likeService, tags, ingredients, files).SetupRoutes(engine)

	return &apiEnv{gdb: gdb, engine: engine}
}

func (e *apiEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *apiEnv) seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, e.gdb.Create(user).Error)
	return user
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	env := setupAPI(t)

	w := env.request(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, "OK", body["status"])
}

func TestCreateAndGetPost(t *testing.T) {
	env := setupAPI(t)
	author := env.seedUser(t, "alice")

	w := env.request(t, http.MethodPost, "/api/v1/posts", map[string]any{
		"title":    "Pancakes",
		"status":   "published",
		"authorId": author.ID,
		"steps": []map[string]any{
			{"order": 2, "description": "Flip"},
			{"order": 1, "description": "Pour batter"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/api/v1/posts/"))

	created := decodeJSON(t, w)
	id := int64(created["id"].(float64))
	require.NotZero(t, id)

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, "Pancakes", body["title"])

	steps := body["steps"].([]any)
	require.Len(t, steps, 2)
	first := steps[0].(map[string]any)
	assert.Equal(t, "Pour batter", first["description"])
}

func TestGetPostErrors(t *testing.T) {
	env := setupAPI(t)

	w := env.request(t, http.MethodGet, "/api/v1/posts/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/posts/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePostUnknownAuthor(t *testing.T) {
	env := setupAPI(t)

	w := env.request(t, http.MethodPost, "/api/v1/posts", map[string]any{
		"title":    "Orphan",
		"authorId": 9999,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodPost, "/api/v1/posts", map[string]any{
		"title": "No author",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLikeEndpoints(t *testing.T) {
	env := setupAPI(t)
	author := env.seedUser(t, "alice")
	reader := env.seedUser(t, "bob")

	w := env.request(t, http.MethodPost, "/api/v1/posts", map[string]any{
		"title":    "Likeable",
		"status":   "published",
		"authorId": author.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(decodeJSON(t, w)["id"].(float64))

	likeURL := fmt.Sprintf("/api/v1/posts/%d/like?userId=%d", id, reader.ID)

	w = env.request(t, http.MethodPost, likeURL, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// repeated like conflicts
	w = env.request(t, http.MethodPost, likeURL, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.request(t, http.MethodDelete, likeURL, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// nothing left to remove
	w = env.request(t, http.MethodDelete, likeURL, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// userId is mandatory
	w = env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/like", id), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPostsEnvelope(t *testing.T) {
	env := setupAPI(t)
	author := env.seedUser(t, "alice")

	for i := 0; i < 3; i++ {
		w := env.request(t, http.MethodPost, "/api/v1/posts", map[string]any{
			"title":    fmt.Sprintf("Post %d", i),
			"status":   "published",
			"authorId": author.ID,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	// plain array without a page parameter
	w := env.request(t, http.MethodGet, "/api/v1/posts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cards []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cards))
	assert.Len(t, cards, 3)

	// envelope with one
	w = env.request(t, http.MethodGet, "/api/v1/posts?page=1&page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, float64(3), body["total"])
	assert.Len(t, body["results"].([]any), 2)
	assert.Contains(t, body["next"], "page=2")

	w = env.request(t, http.MethodGet, "/api/v1/posts?page=2&page_size=2", nil)
	body = decodeJSON(t, w)
	assert.Len(t, body["results"].([]any), 1)
	assert.Empty(t, body["next"])
}

func TestDeletePost(t *testing.T) {
	env := setupAPI(t)
	author := env.seedUser(t, "alice")

	w := env.request(t, http.MethodPost, "/api/v1/posts", map[string]any{
		"title":    "Short lived",
		"authorId": author.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(decodeJSON(t, w)["id"].(float64))

	w = env.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", id), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTagLookup(t *testing.T) {
	env := setupAPI(t)
	for _, name := range []string{"dinner", "dessert"} {
		require.NoError(t, env.gdb.Create(&models.Tag{Name: name, Slug: name}).Error)
	}

	w := env.request(t, http.MethodGet, "/api/tags?search=des", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	results := body["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "dessert", results[0].(map[string]any)["name"])
}

func TestRequestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	env := setupAPI(t)
	w := env.request(t, http.MethodGet, "/api/v1/posts/9999", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	names := make([]string, 0)
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	// one span for the route, one for the use case beneath it
	assert.Contains(t, names, "GET /api/v1/posts/:id")
	assert.Contains(t, names, "posts.get_full")
}

func TestForwardedProtoInMediaURLs(t *testing.T) {
	env := setupAPI(t)
	author := env.seedUser(t, "alice")

	w := env.request(t, http.MethodPost, "/api/v1/posts", map[string]any{
		"title":    "Proxied",
		"status":   "published",
		"authorId": author.ID,
		"coverUrl": "/media/posts/covers/c1.jpg",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(decodeJSON(t, w)["id"].(float64))

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", id), nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, "https://"+req.Host+"/media/posts/covers/c1.jpg", body["coverUrl"])

	// without the header a plain request stays http
	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", id), nil)
	body = decodeJSON(t, w)
	assert.Equal(t, "http://"+req.Host+"/media/posts/covers/c1.jpg", body["coverUrl"])
}

func TestUpload(t *testing.T) {
	env := setupAPI(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "cover.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("image bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/cover", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeJSON(t, w)
	url := body["url"].(string)
	assert.True(t, strings.HasPrefix(url, "/media/posts/covers/"), "unexpected url: %s", url)
	assert.True(t, strings.HasSuffix(url, ".jpg"))
}
