package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/account"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transaction"
)

func setupRepo(t *testing.T) (*TxManager, *AccountRepository) {
	t.Helper()
	return NewTxManager(NewStore(4)), NewAccountRepository()
}

func TestAccountRepository_CRUD(t *testing.T) {
	m, repo := setupRepo(t)
	ctx := context.Background()

	// save
	err := transaction.RunInTx(ctx, m, func(tx transaction.Tx) error {
		return repo.Create(ctx, tx, account.NewAccount("memberV1", 10000))
	})
	require.NoError(t, err)

	// findById
	err = transaction.RunInTx(ctx, m, func(tx transaction.Tx) error {
		a, err := repo.FindByID(ctx, tx, "memberV1")
		require.NoError(t, err)
		assert.Equal(t, int64(10000), a.Balance)
		return nil
	})
	require.NoError(t, err)

	// update: 10000 -> 20000
	err = transaction.RunInTx(ctx, m, func(tx transaction.Tx) error {
		return repo.UpdateBalance(ctx, tx, "memberV1", 20000)
	})
	require.NoError(t, err)

	err = transaction.RunInTx(ctx, m, func(tx transaction.Tx) error {
		a, err := repo.FindByIDForUpdate(ctx, tx, "memberV1")
		require.NoError(t, err)
		assert.Equal(t, int64(20000), a.Balance)
		return nil
	})
	require.NoError(t, err)

	// delete
	err = transaction.RunInTx(ctx, m, func(tx transaction.Tx) error {
		return repo.Delete(ctx, tx, "memberV1")
	})
	require.NoError(t, err)

	err = transaction.RunInTx(ctx, m, func(tx transaction.Tx) error {
		_, err := repo.FindByID(ctx, tx, "memberV1")
		return err
	})
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
}

func TestAccountRepository_Errors(t *testing.T) {
	m, repo := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, transaction.RunInTx(ctx, m, func(tx transaction.Tx) error {
		return repo.Create(ctx, tx, account.NewAccount("A", 10000))
	}))

	tests := []struct {
		name    string
		fn      func(tx transaction.Tx) error
		wantErr error
	}{
		{
			name:    "既存IDの作成は ErrDuplicateAccount",
			fn:      func(tx transaction.Tx) error { return repo.Create(ctx, tx, account.NewAccount("A", 1)) },
			wantErr: account.ErrDuplicateAccount,
		},
		{
			name:    "存在しない口座の取得は ErrAccountNotFound",
			fn:      func(tx transaction.Tx) error { _, err := repo.FindByID(ctx, tx, "none"); return err },
			wantErr: account.ErrAccountNotFound,
		},
		{
			name:    "存在しない口座の更新は ErrAccountNotFound",
			fn:      func(tx transaction.Tx) error { return repo.UpdateBalance(ctx, tx, "none", 1) },
			wantErr: account.ErrAccountNotFound,
		},
		{
			name:    "存在しない口座の削除はエラーにならない",
			fn:      func(tx transaction.Tx) error { return repo.Delete(ctx, tx, "none") },
			wantErr: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := transaction.RunInTx(ctx, m, tt.fn)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAccountRepository_RollbackDiscardsWrites(t *testing.T) {
	m, repo := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, transaction.RunInTx(ctx, m, func(tx transaction.Tx) error {
		return repo.Create(ctx, tx, account.NewAccount("A", 10000))
	}))

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateBalance(ctx, tx, "A", 0))
	require.NoError(t, repo.Create(ctx, tx, account.NewAccount("B", 500)))

	// 同一トランザクション内では自分の書き込みが見える
	a, err := repo.FindByID(ctx, tx, "A")
	require.NoError(t, err)
	assert.Equal(t, int64(0), a.Balance)

	require.NoError(t, tx.Rollback())
	require.NoError(t, tx.Close())

	require.NoError(t, transaction.RunInTx(ctx, m, func(tx transaction.Tx) error {
		a, err := repo.FindByID(ctx, tx, "A")
		require.NoError(t, err)
		assert.Equal(t, int64(10000), a.Balance)

		_, err = repo.FindByID(ctx, tx, "B")
		assert.ErrorIs(t, err, account.ErrAccountNotFound)
		return nil
	}))
}

func TestAccountRepository_DeleteThenCreateInSameTx(t *testing.T) {
	m, repo := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, transaction.RunInTx(ctx, m, func(tx transaction.Tx) error {
		return repo.Create(ctx, tx, account.NewAccount("A", 10000))
	}))

	require.NoError(t, transaction.RunInTx(ctx, m, func(tx transaction.Tx) error {
		if err := repo.Delete(ctx, tx, "A"); err != nil {
			return err
		}
		return repo.Create(ctx, tx, account.NewAccount("A", 1))
	}))

	require.NoError(t, transaction.RunInTx(ctx, m, func(tx transaction.Tx) error {
		a, err := repo.FindByID(ctx, tx, "A")
		require.NoError(t, err)
		assert.Equal(t, int64(1), a.Balance)
		return nil
	}))
}
