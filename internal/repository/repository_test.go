package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"microblog/internal/model"
)

// newTestDB opens an isolated in-memory sqlite database with the schema
// migrated. Connections are capped at one so every query sees the same
// in-memory store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Post{}))
	return db
}

func createUser(t *testing.T, repo UserRepository, username, email string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        email,
		ImageFile:    model.DefaultAvatar,
		PasswordHash: "x",
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestUserRepository_FindByUsername(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	created := createUser(t, repo, "corey", "corey@example.com")

	found, err := repo.FindByUsername(ctx, "corey")
	assert.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_Uniqueness(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	corey := createUser(t, repo, "corey", "corey@example.com")
	createUser(t, repo, "dana", "dana@example.com")

	// both users retrievable independently
	byEmail, err := repo.FindByEmail(ctx, "dana@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "dana", byEmail.Username)

	taken, err := repo.UsernameExists(ctx, "corey", 0)
	assert.NoError(t, err)
	assert.True(t, taken)

	// a user's own row is excluded when checking their profile update
	taken, err = repo.UsernameExists(ctx, "corey", corey.ID)
	assert.NoError(t, err)
	assert.False(t, taken)

	taken, err = repo.EmailExists(ctx, "dana@example.com", corey.ID)
	assert.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.EmailExists(ctx, "free@example.com", 0)
	assert.NoError(t, err)
	assert.False(t, taken)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createUser(t, repo, "corey", "corey@example.com")

	// the unique index violation surfaces as gorm's sentinel, so callers can
	// turn a lost insert race into a conflict
	dup := &model.User{
		Username:     "corey",
		Email:        "other@example.com",
		ImageFile:    model.DefaultAvatar,
		PasswordHash: "x",
	}
	assert.ErrorIs(t, repo.Create(ctx, dup), gorm.ErrDuplicatedKey)
}

func seedPosts(t *testing.T, repo PostRepository, author *model.User, n int) []model.Post {
	t.Helper()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	posts := make([]model.Post, 0, n)
	for i := 0; i < n; i++ {
		post := model.Post{
			Title:      "post",
			Content:    "content",
			DatePosted: base.Add(time.Duration(i) * time.Hour),
			UserID:     author.ID,
		}
		require.NoError(t, repo.Create(context.Background(), &post))
		posts = append(posts, post)
	}
	return posts
}

func TestPostRepository_ListOrdersNewestFirst(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	author := createUser(t, users, "corey", "corey@example.com")
	seeded := seedPosts(t, posts, author, 5)

	page, total, err := posts.List(ctx, 2, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	// newest two first
	assert.Equal(t, seeded[4].ID, page[0].ID)
	assert.Equal(t, seeded[3].ID, page[1].ID)
	// author relation comes preloaded
	assert.Equal(t, "corey", page[0].Author.Username)

	last, total, err := posts.List(ctx, 2, 4, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, last, 1)
	assert.Equal(t, seeded[0].ID, last[0].ID)

	empty, total, err := posts.List(ctx, 2, 10, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, empty)

	// an arbitrarily large offset is still an empty page, not a wraparound
	far, total, err := posts.List(ctx, 2, math.MaxInt32, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, far)
}

func TestPostRepository_ListFiltersByAuthor(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	corey := createUser(t, users, "corey", "corey@example.com")
	dana := createUser(t, users, "dana", "dana@example.com")
	seedPosts(t, posts, corey, 3)
	seedPosts(t, posts, dana, 2)

	page, total, err := posts.List(ctx, 10, 0, dana.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 2)
	for _, p := range page {
		assert.Equal(t, dana.ID, p.UserID)
	}
}

func TestPostRepository_UpdateContentLeavesTimestampAndAuthor(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	author := createUser(t, users, "corey", "corey@example.com")
	seeded := seedPosts(t, posts, author, 1)

	updated := seeded[0]
	updated.Title = "edited title"
	updated.Content = "edited content"
	require.NoError(t, posts.UpdateContent(ctx, &updated))

	got, err := posts.FindByID(ctx, seeded[0].ID)
	assert.NoError(t, err)
	assert.Equal(t, "edited title", got.Title)
	assert.Equal(t, "edited content", got.Content)
	assert.True(t, got.DatePosted.Equal(seeded[0].DatePosted))
	assert.Equal(t, author.ID, got.UserID)
}

func TestPostRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	author := createUser(t, users, "corey", "corey@example.com")
	seeded := seedPosts(t, posts, author, 1)

	require.NoError(t, posts.Delete(ctx, &seeded[0]))

	_, err := posts.FindByID(ctx, seeded[0].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
