// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"confessional/internal/database"
	"confessional/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB returns a migrated in-memory SQLite database. The pool is pinned
// to one connection so every query sees the same memory database.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         database.NewGormLogger(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// CreatePost inserts a post with the given status. Like CreateComment it
// takes the next tick of the shared test clock.
func CreatePost(t testing.TB, db *gorm.DB, authorID int64, status models.PostStatus) *models.Post {
	t.Helper()
	body := "confession body"
	post := &models.Post{
		Content:   &body,
		Category:  "general",
		AuthorID:  authorID,
		Status:    status,
		CreatedAt: nextTimestamp(),
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

// CreateApprovedPost inserts an approved post.
func CreateApprovedPost(t testing.TB, db *gorm.DB, authorID int64) *models.Post {
	t.Helper()
	return CreatePost(t, db, authorID, models.PostStatusApproved)
}

// CreateComment inserts a comment under parent (nil for top level). Each call
// gets a strictly later created_at so ordering is deterministic.
func CreateComment(t testing.TB, db *gorm.DB, postID uint, parent *models.Comment, authorID int64, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: nextTimestamp(),
	}
	if parent != nil {
		c.ParentCommentID = &parent.ID
		c.Depth = parent.Depth + 1
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

var (
	clockMu sync.Mutex
	clock   = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func nextTimestamp() time.Time {
	clockMu.Lock()
	defer clockMu.Unlock()
	clock = clock.Add(time.Second)
	return clock
}
