package repo_test

import (
	"context"
	"testing"

	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/models"
	"collabrio-backend/internal/repo"
	"collabrio-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepoUpsertAndLookup(t *testing.T) {
	ctx := context.Background()
	users := repo.NewUserRepository(testutil.NewSQLiteDB(t))

	require.NoError(t, users.UpsertUser(ctx, &models.User{ID: "u1", FirstName: "Ada", Surname: "Lovelace", Email: " Ada@Example.com "}))
	require.NoError(t, users.UpsertUser(ctx, &models.User{ID: "u2", FirstName: "Alan", Surname: "Turing", Email: "alan@example.com"}))
	require.NoError(t, users.UpsertUser(ctx, &models.User{ID: "u1", FirstName: "Augusta", Surname: "King", Email: "ada@example.com"}))

	got, err := users.GetUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "Augusta King", got.DisplayName())

	_, err = users.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	some, err := users.GetUsersByIDs(ctx, []string{"u2", "missing"})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "u2", some[0].ID)

	all, err := users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alan", all[0].FirstName)
}
