package repository

import (
	"context"
	"testing"

	"editorial/internal/models"
	"editorial/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_DeleteProtectedByPosts(t *testing.T) {
	db := testutil.NewTestDB(t, nil)
	repo := NewUserRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "ann", "Ann")
	testutil.CreatePost(t, db, author, "Only deleted", testutil.SoftDeleted())

	err := repo.Delete(ctx, author.ID)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeReferentialIntegrity))

	_, err = repo.GetByID(ctx, author.ID)
	require.NoError(t, err, "user must survive a refused delete")

	loner := testutil.CreateUser(t, db, "bob", "Bob")
	require.NoError(t, repo.Delete(ctx, loner.ID))
	_, err = repo.GetByID(ctx, loner.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	assert.True(t, models.IsCode(repo.Delete(ctx, loner.ID), models.CodeNotFound))
}

func TestUserRepository_CreateAndStaff(t *testing.T) {
	db := testutil.NewTestDB(t, nil)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &models.User{Username: "editor", FirstName: "Eve"}
	require.NoError(t, u.SetPassword("s3cret-pass"))
	require.NoError(t, repo.Create(ctx, u))

	dup := &models.User{Username: "editor"}
	err := repo.Create(ctx, dup)
	assert.True(t, models.IsCode(err, models.CodeConstraintViolation))

	require.NoError(t, repo.SetStaff(ctx, u.ID, true))
	got, err := repo.GetByUsername(ctx, " editor ")
	require.NoError(t, err)
	assert.True(t, got.IsStaff)
	assert.True(t, got.CheckPassword("s3cret-pass"))

	assert.True(t, models.IsCode(repo.SetStaff(ctx, 999, true), models.CodeNotFound))

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
