package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"banana/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCommentRepository_CreateAndListOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	post := &models.Post{Title: "t", Content: "c", UserID: author.ID}
	require.NoError(t, db.Create(post).Error)

	second := &models.Comment{Content: "나중", UserID: author.ID, PostID: post.ID, CreatedAt: time.Now()}
	first := &models.Comment{Content: "먼저", UserID: author.ID, PostID: post.ID, CreatedAt: time.Now().Add(-time.Minute)}
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))

	comments, err := repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	// Oldest first
	assert.Equal(t, "먼저", comments[0].Content)
	assert.Equal(t, "나중", comments[1].Content)
	assert.Equal(t, "author", comments[0].User.Name)
}

func TestCommentRepository_ListByPost_ScopedToPost(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	postA := &models.Post{Title: "a", Content: "c", UserID: author.ID}
	postB := &models.Post{Title: "b", Content: "c", UserID: author.ID}
	require.NoError(t, db.Create(postA).Error)
	require.NoError(t, db.Create(postB).Error)

	require.NoError(t, repo.Create(ctx, &models.Comment{Content: "on a", UserID: author.ID, PostID: postA.ID}))
	require.NoError(t, repo.Create(ctx, &models.Comment{Content: "on b", UserID: author.ID, PostID: postB.ID}))

	comments, err := repo.ListByPost(ctx, postA.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "on a", comments[0].Content)
}

func TestCommentRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	post := &models.Post{Title: "t", Content: "c", UserID: author.ID}
	require.NoError(t, db.Create(post).Error)

	comment := &models.Comment{Content: "지울 댓글", UserID: author.ID, PostID: post.ID}
	require.NoError(t, repo.Create(ctx, comment))

	require.NoError(t, repo.Delete(ctx, comment.ID))

	_, err := repo.GetByID(ctx, comment.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
