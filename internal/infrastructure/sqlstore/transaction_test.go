package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transaction"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestTxManager_Begin(t *testing.T) {
	ctx := context.Background()

	t.Run("コミット後の Close はロールバックしない", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		m := NewTxManager(db, sql.LevelReadCommitted)
		tx, err := m.Begin(ctx)
		require.NoError(t, err)

		require.NoError(t, tx.Commit())
		require.NoError(t, tx.Close())
		assert.Equal(t, transaction.StateCommitted, tx.(*TxWrapper).State())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("未完了の Close はロールバックしてから返却する", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		tx, err := NewTxManager(db, sql.LevelDefault).Begin(ctx)
		require.NoError(t, err)

		require.NoError(t, tx.Close())
		// 2回目の Close は何もしない
		require.NoError(t, tx.Close())
		assert.Equal(t, transaction.StateRolledBack, tx.(*TxWrapper).State())
		assert.Equal(t, 0, db.Stats().InUse)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BEGIN 失敗は ErrConnectionUnavailable", func(t *testing.T) {
		db, mock := newMockDB(t)
		cause := errors.New("too many connections")
		mock.ExpectBegin().WillReturnError(cause)

		_, err := NewTxManager(db, sql.LevelDefault).Begin(ctx)
		assert.ErrorIs(t, err, transaction.ErrConnectionUnavailable)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, 0, db.Stats().InUse)
	})

	t.Run("キャンセル済みコンテキストではコネクションを取得しない", func(t *testing.T) {
		db, _ := newMockDB(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := NewTxManager(db, sql.LevelDefault).Begin(cctx)
		assert.ErrorIs(t, err, transaction.ErrConnectionUnavailable)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("コミット失敗後はロールバック済みとして扱う", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		tx, err := NewTxManager(db, sql.LevelSerializable).Begin(ctx)
		require.NoError(t, err)

		assert.Error(t, tx.Commit())
		assert.ErrorIs(t, tx.Rollback(), transaction.ErrTxDone)
		require.NoError(t, tx.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUnwrapTx(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := NewTxManager(db, sql.LevelDefault).Begin(context.Background())
	require.NoError(t, err)

	sqlTx, err := UnwrapTx(tx)
	require.NoError(t, err)
	assert.NotNil(t, sqlTx)

	require.NoError(t, tx.Rollback())
	_, err = UnwrapTx(tx)
	assert.ErrorIs(t, err, transaction.ErrTxDone)
	require.NoError(t, tx.Close())

	_, err = UnwrapTx(otherTx{})
	assert.ErrorIs(t, err, transaction.ErrUnsupportedTx)
}

type otherTx struct{}

func (otherTx) Commit() error   { return nil }
func (otherTx) Rollback() error { return nil }
func (otherTx) Close() error    { return nil }
