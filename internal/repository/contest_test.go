package repository

import (
	"context"
	"testing"
	"time"

	"editorial/internal/models"
	"editorial/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContestRepository(t *testing.T) {
	clock := testutil.NewClock(day(1))
	db := testutil.NewTestDB(t, clock)
	repo := NewContestRepository(db)
	ctx := context.Background()

	older := &models.Contest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Submission: "contest/a.jpg"}
	require.NoError(t, repo.Create(ctx, older))
	assert.True(t, older.SubmittedDate.Equal(day(1)))

	clock.Advance(time.Hour)
	newer := &models.Contest{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Submission: "contest/b.jpg"}
	require.NoError(t, repo.Create(ctx, newer))

	err := repo.Create(ctx, &models.Contest{FirstName: "No", LastName: "Email", Submission: "contest/c.jpg"})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, newer.ID, entries[0].ID)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
