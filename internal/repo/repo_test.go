package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/models"
	"collabrio-backend/internal/repo"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestUpdateDerivedWriteFailure(t *testing.T) {
	db, mock := newMockDB(t)
	boards := repo.NewBoardRepository(db)

	mock.ExpectExec(`UPDATE "boards" SET`).WillReturnError(errors.New("connection reset by peer"))

	err := boards.UpdateDerived(context.Background(), uuid.New(), 50, models.BoardInProgress)
	assert.ErrorIs(t, err, apperrors.ErrStoreWriteFailure)
	assert.Equal(t, apperrors.KindStoreWriteFailure, apperrors.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusWriteFailure(t *testing.T) {
	db, mock := newMockDB(t)
	tasks := repo.NewTaskRepository(db)

	mock.ExpectExec(`UPDATE "tasks" SET`).WillReturnError(errors.New("deadline exceeded"))

	err := tasks.UpdateStatus(context.Background(), uuid.New(), uuid.New(), models.StatusDone, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrStoreWriteFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOptionsNormalize(t *testing.T) {
	o := repo.ListOptions{Page: 0, PageSize: 500}.Normalize()
	assert.Equal(t, 1, o.Page)
	assert.Equal(t, repo.MaxPageSize, o.PageSize)

	o = repo.ListOptions{PageSize: -1}.Normalize()
	assert.Equal(t, repo.DefaultPageSize, o.PageSize)

	o = repo.ListOptions{}.Normalize()
	assert.Zero(t, o.PageSize, "zero page size means no paging")
}
