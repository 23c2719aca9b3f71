package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/sijms/go-ora/v2/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/account"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transaction"
)

func beginMockTx(t *testing.T) (transaction.Tx, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	tx, err := NewTxManager(db, sql.LevelDefault).Begin(context.Background())
	require.NoError(t, err)
	return tx, mock
}

func TestAccountRepository_Create(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	query := regexp.QuoteMeta(`INSERT INTO accounts (account_id, balance) VALUES ($1, $2)`)

	t.Run("正常に作成できる", func(t *testing.T) {
		tx, mock := beginMockTx(t)
		mock.ExpectExec(query).WithArgs("memberV1", int64(10000)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Create(ctx, tx, account.NewAccount("memberV1", 10000)))
		require.NoError(t, tx.Commit())
		require.NoError(t, tx.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("一意制約違反は ErrDuplicateAccount", func(t *testing.T) {
		tx, mock := beginMockTx(t)
		mock.ExpectExec(query).WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		err := repo.Create(ctx, tx, account.NewAccount("memberV1", 10000))
		assert.ErrorIs(t, err, account.ErrDuplicateAccount)
		require.NoError(t, tx.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("その他のエラーはラップして返す", func(t *testing.T) {
		tx, mock := beginMockTx(t)
		cause := errors.New("disk full")
		mock.ExpectExec(query).WillReturnError(cause)
		mock.ExpectRollback()

		err := repo.Create(ctx, tx, account.NewAccount("memberV1", 10000))
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, account.ErrDuplicateAccount)
		require.NoError(t, tx.Close())
	})
}

func TestAccountRepository_Find(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	t.Run("FindByID", func(t *testing.T) {
		tx, mock := beginMockTx(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT account_id, balance FROM accounts WHERE account_id = $1`)).
			WithArgs("memberA").
			WillReturnRows(sqlmock.NewRows([]string{"account_id", "balance"}).AddRow("memberA", int64(10000)))
		mock.ExpectRollback()

		a, err := repo.FindByID(ctx, tx, "memberA")
		require.NoError(t, err)
		assert.Equal(t, "memberA", a.ID)
		assert.Equal(t, int64(10000), a.Balance)
		require.NoError(t, tx.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FindByIDForUpdate は行ロックを取る", func(t *testing.T) {
		tx, mock := beginMockTx(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT account_id, balance FROM accounts WHERE account_id = $1 FOR UPDATE`)).
			WithArgs("memberA").
			WillReturnRows(sqlmock.NewRows([]string{"ACCOUNT_ID", "BALANCE"}).AddRow("memberA", int64(500)))
		mock.ExpectRollback()

		a, err := repo.FindByIDForUpdate(ctx, tx, "memberA")
		require.NoError(t, err)
		assert.Equal(t, int64(500), a.Balance)
		require.NoError(t, tx.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("存在しない口座は ErrAccountNotFound", func(t *testing.T) {
		tx, mock := beginMockTx(t)
		mock.ExpectQuery(`SELECT account_id, balance FROM accounts`).
			WillReturnRows(sqlmock.NewRows([]string{"account_id", "balance"}))
		mock.ExpectRollback()

		_, err := repo.FindByID(ctx, tx, "none")
		assert.ErrorIs(t, err, account.ErrAccountNotFound)
		require.NoError(t, tx.Close())
	})
}

func TestAccountRepository_UpdateBalance(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	query := regexp.QuoteMeta(`UPDATE accounts SET balance = $1 WHERE account_id = $2`)

	t.Run("残高を上書きする", func(t *testing.T) {
		tx, mock := beginMockTx(t)
		mock.ExpectExec(query).WithArgs(int64(20000), "memberV1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		require.NoError(t, repo.UpdateBalance(ctx, tx, "memberV1", 20000))
		require.NoError(t, tx.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("対象行がなければ ErrAccountNotFound", func(t *testing.T) {
		tx, mock := beginMockTx(t)
		mock.ExpectExec(query).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.UpdateBalance(ctx, tx, "none", 1)
		assert.ErrorIs(t, err, account.ErrAccountNotFound)
		require.NoError(t, tx.Close())
	})
}

func TestAccountRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	tx, mock := beginMockTx(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM accounts WHERE account_id = $1`)).
		WithArgs("none").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	// 存在しなくてもエラーにしない
	require.NoError(t, repo.Delete(ctx, tx, "none"))
	require.NoError(t, tx.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_ClosedTx(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	tx, mock := beginMockTx(t)
	mock.ExpectCommit()
	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Close())

	_, err := repo.FindByID(ctx, tx, "memberA")
	assert.ErrorIs(t, err, transaction.ErrTxDone)
	assert.ErrorIs(t, repo.UpdateBalance(ctx, tx, "memberA", 1), transaction.ErrTxDone)
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"lib/pq", &pq.Error{Code: "23505"}, true},
		{"lib/pq 他のコード", &pq.Error{Code: "23503"}, false},
		{"pgx", &pgconn.PgError{Code: "23505"}, true},
		{"mysql", &mysql.MySQLError{Number: 1062}, true},
		{"mysql 他のコード", &mysql.MySQLError{Number: 1213}, false},
		{"oracle", &network.OracleError{ErrCode: 1}, true},
		{"ラップされたエラー", errors.Join(errors.New("exec"), &pq.Error{Code: "23505"}), true},
		{"その他", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}
