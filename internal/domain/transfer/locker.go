package transfer

import "context"

// Locker は複数プロセス間で送金対象の口座を排他する
// ids は LockOrder の順で渡される
// 競合でロックを取得できない場合は ErrAccountsBusy をラップして返す
type Locker interface {
	LockAccounts(ctx context.Context, ids []string) (release func(context.Context) error, err error)
}
