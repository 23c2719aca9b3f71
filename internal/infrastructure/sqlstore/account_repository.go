package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/account"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transaction"
)

// クエリは ? で記述し、実行時にドライバーのプレースホルダーへ Rebind する
const (
	insertAccountQuery   = `INSERT INTO accounts (account_id, balance) VALUES (?, ?)`
	selectAccountQuery   = `SELECT account_id, balance FROM accounts WHERE account_id = ?`
	selectForUpdateQuery = `SELECT account_id, balance FROM accounts WHERE account_id = ? FOR UPDATE`
	updateBalanceQuery   = `UPDATE accounts SET balance = ? WHERE account_id = ?`
	deleteAccountQuery   = `DELETE FROM accounts WHERE account_id = ?`
)

// AccountRepository は口座リポジトリの SQL 実装
// コネクションを保持せず、渡されたトランザクション上でのみ動作する
type AccountRepository struct{}

// NewAccountRepository は AccountRepository を作成する
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{}
}

// Create は新しい口座を作成する
func (r *AccountRepository) Create(ctx context.Context, tx transaction.Tx, a *account.Account) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	if _, err := sqlTx.ExecContext(ctx, sqlTx.Rebind(insertAccountQuery), a.ID, a.Balance); err != nil {
		if isUniqueViolation(err) {
			return account.ErrDuplicateAccount
		}
		return fmt.Errorf("口座作成に失敗: %w", err)
	}
	return nil
}

// FindByID はIDから口座を取得する
func (r *AccountRepository) FindByID(ctx context.Context, tx transaction.Tx, id string) (*account.Account, error) {
	return r.find(ctx, tx, selectAccountQuery, id)
}

// FindByIDForUpdate は行ロック付きで口座を取得する
func (r *AccountRepository) FindByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*account.Account, error) {
	return r.find(ctx, tx, selectForUpdateQuery, id)
}

func (r *AccountRepository) find(ctx context.Context, tx transaction.Tx, query, id string) (*account.Account, error) {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	// Oracle は列名を大文字で返すため構造体マッピングは使わない
	var a account.Account
	if err := sqlTx.QueryRowxContext(ctx, sqlTx.Rebind(query), id).Scan(&a.ID, &a.Balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrAccountNotFound
		}
		return nil, fmt.Errorf("口座取得に失敗: %w", err)
	}
	return &a, nil
}

// UpdateBalance は残高を上書きする
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx transaction.Tx, id string, balance int64) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlTx.ExecContext(ctx, sqlTx.Rebind(updateBalanceQuery), balance, id)
	if err != nil {
		return fmt.Errorf("残高更新に失敗: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗: %w", err)
	}
	if rowsAffected == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}

// Delete は口座を削除する
func (r *AccountRepository) Delete(ctx context.Context, tx transaction.Tx, id string) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	if _, err := sqlTx.ExecContext(ctx, sqlTx.Rebind(deleteAccountQuery), id); err != nil {
		return fmt.Errorf("口座削除に失敗: %w", err)
	}
	return nil
}

// インターフェースを満たしているか確認
var _ account.Repository = (*AccountRepository)(nil)
