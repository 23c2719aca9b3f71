package memory

import (
	"context"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/account"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transaction"
)

// AccountRepository は Store を使った口座リポジトリ
type AccountRepository struct{}

// NewAccountRepository は新しい AccountRepository を作成する
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{}
}

func (r *AccountRepository) Create(ctx context.Context, tx transaction.Tx, a *account.Account) error {
	mtx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	if _, ok := mtx.lookup(a.ID); ok {
		return account.ErrDuplicateAccount
	}
	mtx.put(a.ID, a.Balance)
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, tx transaction.Tx, id string) (*account.Account, error) {
	mtx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	balance, ok := mtx.lookup(id)
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return account.NewAccount(id, balance), nil
}

// FindByIDForUpdate はトランザクションが直列実行されるため FindByID と同じ
func (r *AccountRepository) FindByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*account.Account, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, tx transaction.Tx, id string, balance int64) error {
	mtx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	if _, ok := mtx.lookup(id); !ok {
		return account.ErrAccountNotFound
	}
	mtx.put(id, balance)
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, tx transaction.Tx, id string) error {
	mtx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	if _, ok := mtx.lookup(id); ok {
		mtx.remove(id)
	}
	return nil
}

var _ account.Repository = (*AccountRepository)(nil)
