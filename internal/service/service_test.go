package service

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zagrebin/culinaryblog/internal/db"
	"github.com/zagrebin/culinaryblog/internal/models"
)

// setupTestDB creates a private in-memory SQLite database for one test.
// A single connection keeps concurrent transactions serialized instead of
// failing with SQLITE_BUSY.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Post{},
		&models.PostIngredient{},
		&models.RecipeStep{},
		&models.PostLike{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	return gdb
}

type testEnv struct {
	gdb         *gorm.DB
	users       *db.UserRepository
	tags        *db.TagRepository
	ingredients *db.IngredientRepository
	posts       *db.PostRepository
	likes       *db.LikeRepository
	assembler   *Assembler
	likeService *LikeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := setupTestDB(t)
	repo := db.NewRepository(gdb)
	env := &testEnv{
		gdb:         gdb,
		users:       db.NewUserRepository(repo),
		tags:        db.NewTagRepository(repo),
		ingredients: db.NewIngredientRepository(repo),
		posts:       db.NewPostRepository(repo),
		likes:       db.NewLikeRepository(repo),
	}
	env.assembler = NewAssembler(env.users, env.tags, env.ingredients, env.posts)
	env.likeService = NewLikeService(env.likes, env.posts, env.users)
	return env
}

func (e *testEnv) seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		DisplayName: username,
	}
	if err := e.gdb.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	return user
}

func (e *testEnv) seedTag(t *testing.T, name string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Slug: name}
	if err := e.gdb.Create(tag).Error; err != nil {
		t.Fatalf("failed to seed tag %s: %v", name, err)
	}
	return tag
}

func (e *testEnv) seedIngredient(t *testing.T, name string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name}
	if err := e.gdb.Create(ing).Error; err != nil {
		t.Fatalf("failed to seed ingredient %s: %v", name, err)
	}
	return ing
}

func float64p(v float64) *float64 { return &v }

func int64p(v int64) *int64 { return &v }
