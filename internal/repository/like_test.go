package repository

import (
	"context"
	"regexp"
	"testing"

	"warbler/internal/models"
	"warbler/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeRepository_Toggle(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLikeRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "ada")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")
	p := testutil.CreatePost(t, db, ada.ID, "like me")

	liked, err := repo.Toggle(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	// several accounts may like the same post
	liked, err = repo.Toggle(ctx, carol.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	n, err := posts.CountLikes(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	liked, err = repo.Toggle(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	exists, err := repo.Exists(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = repo.Exists(ctx, carol.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLikeRepository_Toggle_LostInsertRaceIsNoop(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes" WHERE user_id = $1 AND post_id = $2`)).
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "likes"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_like_user_post"})
	mock.ExpectRollback()

	liked, err := repo.Toggle(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_Toggle_UnknownPost(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewLikeRepository(db)

	ada := testutil.CreateUser(t, db, "ada")
	_, err := repo.Toggle(context.Background(), ada.ID, 404)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
}
