package account

import "errors"

// Account ドメインのエラー定義
var (
	ErrAccountNotFound   = errors.New("口座が見つかりません")
	ErrDuplicateAccount  = errors.New("口座は既に存在します")
	ErrAccountIDRequired = errors.New("口座IDは必須です")
	ErrAccountIDTooLong  = errors.New("口座IDが長すぎます")
)
