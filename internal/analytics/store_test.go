package analytics

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestNopStoreDiscardsBatches(t *testing.T) {
	s := NopStore{}
	assert.NoError(t, s.BatchInsert(context.Background(), []Record{{ID: "a"}, {ID: "b"}}))
}

func TestNopStoreHandlesEmptyBatch(t *testing.T) {
	s := NopStore{}
	assert.NoError(t, s.BatchInsert(context.Background(), nil))
}

// newMockGormStore wires a GormStore over a sqlmock connection, the same
// pattern the teacher's model package uses for DB-layer unit tests without a
// real server.
func newMockGormStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	t.Cleanup(func() { conn.Close() })

	dialector := mysql.New(mysql.Config{Conn: conn, SkipInitializeWithVersion: true})
	gdb, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	return NewGormStore(gdb), mock
}

func TestGormStoreBatchInsertIssuesSingleStatement(t *testing.T) {
	store, mock := newMockGormStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `analytics_records`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := store.BatchInsert(context.Background(), []Record{{ID: "req-a"}, {ID: "req-b"}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreBatchInsertSkipsEmptyBatchWithoutQuerying(t *testing.T) {
	store, mock := newMockGormStore(t)

	require.NoError(t, store.BatchInsert(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
