package transaction

import (
	"context"
	"errors"
)

// トランザクション関連のエラー定義
var (
	ErrConnectionUnavailable = errors.New("コネクションを取得できませんでした")
	ErrTxDone                = errors.New("トランザクションは既に終了しています")
	ErrUnsupportedTx         = errors.New("このリポジトリでは扱えないトランザクションです")
)

// Tx はトランザクションを表すインターフェース
// ドメイン層がインフラ層（sqlx等）に依存しないようにするための抽象化
// 1つの Tx は1本のコネクションを占有する
type Tx interface {
	// Commit はトランザクションをコミットする
	Commit() error
	// Rollback はトランザクションをロールバックする
	Rollback() error
	// Close はコネクションを接続元に返却する
	// Commit/Rollback 前に呼ばれた場合はロールバックしてから返却する
	Close() error
}

// Manager はトランザクションを管理するインターフェース
type Manager interface {
	// Begin はコネクションを取得し、新しいトランザクションを開始する
	Begin(ctx context.Context) (Tx, error)
}
