package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transaction"
)

// TxWrapper は sqlx.Tx と占有中のコネクションを transaction.Tx としてラップする
type TxWrapper struct {
	*sqlx.Tx
	conn *sqlx.Conn
	lc   transaction.Lifecycle
}

// Commit はトランザクションをコミットする
func (t *TxWrapper) Commit() error {
	return t.lc.Commit(t.Tx.Commit)
}

// Rollback はトランザクションをロールバックする
func (t *TxWrapper) Rollback() error {
	return t.lc.Rollback(t.Tx.Rollback)
}

// Close はコネクションをプールに返却する
// 未完了のトランザクションは返却前にロールバックされる
func (t *TxWrapper) Close() error {
	return t.lc.Release(t.Tx.Rollback, t.conn.Close)
}

// State はトランザクションの状態を返す
func (t *TxWrapper) State() transaction.State {
	return t.lc.State()
}

// TxManager は sqlx.DB を使用したトランザクションマネージャー
type TxManager struct {
	db   *sqlx.DB
	opts *sql.TxOptions
}

// NewTxManager は新しい TxManager を作成する
// level が sql.LevelDefault の場合はドライバーの既定の分離レベルを使う
func NewTxManager(db *sqlx.DB, level sql.IsolationLevel) *TxManager {
	m := &TxManager{db: db}
	if level != sql.LevelDefault {
		m.opts = &sql.TxOptions{Isolation: level}
	}
	return m
}

// Begin はプールからコネクションを1本取得してトランザクションを開始する
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	conn, err := m.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", transaction.ErrConnectionUnavailable, err)
	}
	tx, err := conn.BeginTxx(ctx, m.opts)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %w", transaction.ErrConnectionUnavailable, err)
	}
	return &TxWrapper{Tx: tx, conn: conn}, nil
}

// UnwrapTx は transaction.Tx から sqlx.Tx を取り出す
// リポジトリ実装で使用する
func UnwrapTx(tx transaction.Tx) (*sqlx.Tx, error) {
	wrapper, ok := tx.(*TxWrapper)
	if !ok {
		return nil, transaction.ErrUnsupportedTx
	}
	if err := wrapper.lc.EnsureActive(); err != nil {
		return nil, err
	}
	return wrapper.Tx, nil
}

var _ transaction.Manager = (*TxManager)(nil)
