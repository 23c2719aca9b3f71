package application

import "context"

// BalanceCache は口座残高の参照用キャッシュ
// キャッシュに無い場合は redis.ErrCacheMiss を返す
// SetBalance は Version で得た値から無効化が挟まっていない場合のみ保存する
type BalanceCache interface {
	GetBalance(ctx context.Context, accountID string) (int64, error)
	Version(ctx context.Context, accountID string) (int64, error)
	SetBalance(ctx context.Context, accountID string, balance, version int64) (bool, error)
	Invalidate(ctx context.Context, accountIDs ...string) error
}
