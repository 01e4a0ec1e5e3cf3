package repo_test

import (
	"context"
	"testing"
	"time"

	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/models"
	"collabrio-backend/internal/repo"
	"collabrio-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoard(name, creator string, memberIDs ...string) *models.Board {
	b := &models.Board{
		Name:        name,
		Description: "desc",
		Priority:    models.PriorityHigh,
		CreatedBy:   creator,
	}
	members := []models.Member{{ID: creator, Name: creator}}
	for _, id := range memberIDs {
		members = append(members, models.Member{ID: id, Name: id})
	}
	b.SetMembers(members)
	return b
}

func TestBoardRepoCreateAndGet(t *testing.T) {
	ctx := context.Background()
	boards := repo.NewBoardRepository(testutil.NewSQLiteDB(t))

	deadline := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	b := newBoard("Launch", "u1", "u2")
	b.Deadline = &deadline
	id, err := boards.CreateBoard(ctx, b)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	got, err := boards.GetBoard(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Launch", got.Name)
	assert.Equal(t, models.BoardToDo, got.Status)
	assert.Equal(t, 0, got.CompletionPercentage)
	assert.Equal(t, []string{"u1", "u2"}, []string(got.MemberIDs))
	require.NotNil(t, got.Deadline)
	assert.True(t, deadline.Equal(*got.Deadline))

	_, err = boards.GetBoard(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBoardRepoListForMember(t *testing.T) {
	ctx := context.Background()
	boards := repo.NewBoardRepository(testutil.NewSQLiteDB(t))

	var ids []uuid.UUID
	for _, name := range []string{"first", "second", "third"} {
		id, err := boards.CreateBoard(ctx, newBoard(name, "u1", "u2"))
		require.NoError(t, err)
		ids = append(ids, id)
		time.Sleep(2 * time.Millisecond)
	}
	_, err := boards.CreateBoard(ctx, newBoard("other", "u3"))
	require.NoError(t, err)
	require.NoError(t, boards.UpdateDerived(ctx, ids[0], 100, models.BoardCompleted))

	all, total, err := boards.ListBoardsForMember(ctx, "u2", repo.ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Name, "newest first")

	page, total, err := boards.ListBoardsForMember(ctx, "u2", repo.ListOptions{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "first", page[0].Name)

	done, total, err := boards.ListBoardsForMember(ctx, "u2", repo.ListOptions{Status: models.BoardCompleted})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, done, 1)
	assert.Equal(t, ids[0], done[0].ID)

	none, total, err := boards.ListBoardsForMember(ctx, "nobody", repo.ListOptions{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)
}

func TestBoardRepoSetMembersReindexes(t *testing.T) {
	ctx := context.Background()
	boards := repo.NewBoardRepository(testutil.NewSQLiteDB(t))

	id, err := boards.CreateBoard(ctx, newBoard("Launch", "u1", "u2"))
	require.NoError(t, err)

	err = boards.SetMembers(ctx, id, "Renamed", []models.Member{{ID: "u1"}, {ID: "u3"}, {ID: "u3"}})
	require.NoError(t, err)

	got, err := boards.GetBoard(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, []string{"u1", "u3"}, []string(got.MemberIDs))

	old, _, err := boards.ListBoardsForMember(ctx, "u2", repo.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, old)
	added, _, err := boards.ListBoardsForMember(ctx, "u3", repo.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, added, 1)
}

func TestBoardRepoDocuments(t *testing.T) {
	ctx := context.Background()
	boards := repo.NewBoardRepository(testutil.NewSQLiteDB(t))
	id, err := boards.CreateBoard(ctx, newBoard("Launch", "u1"))
	require.NoError(t, err)

	docs := []models.Document{
		{Name: "a.pdf", Path: "documents/x/1_a.pdf", Type: "PDF"},
		{Name: "b.csv", Path: "documents/x/2_b.csv", Type: "CSV"},
	}
	require.NoError(t, boards.AppendDocuments(ctx, id, docs))

	removed, err := boards.RemoveDocument(ctx, id, "documents/x/1_a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", removed.Name)

	_, err = boards.RemoveDocument(ctx, id, "documents/x/1_a.pdf")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	got, err := boards.GetBoard(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "b.csv", got.Documents[0].Name)
}

func TestBoardRepoUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	boards := repo.NewBoardRepository(testutil.NewSQLiteDB(t))
	id, err := boards.CreateBoard(ctx, newBoard("Launch", "u1"))
	require.NoError(t, err)

	deadline := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, boards.UpdateBoard(ctx, id, map[string]interface{}{"deadline": deadline}))
	got, err := boards.GetBoard(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Deadline)

	require.NoError(t, boards.UpdateBoard(ctx, id, map[string]interface{}{"deadline": nil}))
	got, err = boards.GetBoard(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.Deadline)

	require.NoError(t, boards.DeleteBoard(ctx, id))
	assert.ErrorIs(t, boards.DeleteBoard(ctx, id), apperrors.ErrNotFound)
	assert.ErrorIs(t, boards.UpdateDerived(ctx, id, 0, models.BoardToDo), apperrors.ErrNotFound)
}
