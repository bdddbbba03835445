package repomanager

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/lip/internal/common"
	"github.com/dmitrijs2005/lip/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db, &PostgresRepositoryManager{}), mock
}

var (
	qDelete = regexp.QuoteMeta(`DELETE FROM addresses WHERE id = $1`)
	qInsert = `(?s)^INSERT\s+INTO\s+addresses`
)

func replacement() *models.Address {
	return &models.Address{ID: "home", AccessPasswordHash: "a", MasterPasswordHash: "m", CreatedOn: 5, LastUpdate: models.Never, Expiry: models.Never}
}

func TestStore_Replace_DeletesThenInsertsInTx(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(qDelete).WithArgs("home").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qInsert).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Replace(context.Background(), replacement()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Replace_AbsentOldRecordIsFine(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(qDelete).WithArgs("home").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(qInsert).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Replace(context.Background(), replacement()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Replace_RollsBackOnInsertFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(qDelete).WithArgs("home").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qInsert).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.Replace(context.Background(), replacement())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Replace_BeginFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("no conn"))

	err := s.Replace(context.Background(), replacement())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
}

func TestStore_DelegatesToRepository(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(`(?s)^SELECT\s+id,`).WithArgs("ghost").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(qDelete).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`(?s)^UPDATE\s+addresses`).WithArgs("1.1.1.1", int64(1), int64(2), "ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(qInsert).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)^SELECT\s+id\s+FROM`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.Get(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "ghost"), common.ErrorNotFound)
	assert.ErrorIs(t, s.Update(ctx, "ghost", "1.1.1.1", 1, 2), common.ErrorNotFound)
	assert.NoError(t, s.Insert(ctx, replacement()))
	ids, err := s.ListExpired(ctx, 10)
	assert.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, mock.ExpectationsWereMet())
}
