package transfer

import "errors"

// Transfer ドメインのエラー定義
var (
	// ErrTransferRejected は業務ルールによって送金が拒否されたことを表す（ストレージ障害ではない）
	ErrTransferRejected = errors.New("送金が拒否されました")
	// ErrTransferFailed は送金途中の失敗を表す。ロールバック後に原因をラップして返される
	ErrTransferFailed = errors.New("送金に失敗しました")
	// ErrAccountsBusy は他の送金が同じ口座をロック中で取得を諦めたことを表す
	ErrAccountsBusy = errors.New("口座は他の送金で使用中です")
)
