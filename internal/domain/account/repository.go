package account

import (
	"context"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transaction"
)

// Repository は口座リポジトリのインターフェース
// すべての操作は呼び出し側が開始したトランザクション上で実行され、
// リポジトリ自身はコネクションを開閉しない
type Repository interface {
	// Create は新しい口座を作成する（既存IDは ErrDuplicateAccount）
	Create(ctx context.Context, tx transaction.Tx, a *Account) error

	// FindByID はIDから口座を取得する（存在しなければ ErrAccountNotFound）
	FindByID(ctx context.Context, tx transaction.Tx, id string) (*Account, error)

	// FindByIDForUpdate は行ロックを取得して口座を取得する
	FindByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Account, error)

	// UpdateBalance は残高を無条件に上書きする（存在しなければ ErrAccountNotFound）
	UpdateBalance(ctx context.Context, tx transaction.Tx, id string, balance int64) error

	// Delete は口座を削除する（存在しなくてもエラーにしない）
	Delete(ctx context.Context, tx transaction.Tx, id string) error
}
