package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transfer"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

// 所有者確認と削除をアトミックに実行する
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// DistributedLock は Redis を使用した分散ロック
type DistributedLock struct {
	client *redis.Client
	key    string
	value  string
}

// LockManager は分散ロックを管理する
type LockManager struct {
	client *redis.Client
}

func NewLockManager(client *redis.Client) *LockManager {
	return &LockManager{client: client}
}

// AcquireLock はロックを取得する
func (m *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*DistributedLock, error) {
	lockKey := fmt.Sprintf("lock:%s", key)
	lockValue := uuid.New().String()

	// SetNX を使用してロックを取得（キーが存在しない場合のみ設定）
	ok, err := m.client.SetNX(ctx, lockKey, lockValue, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	return &DistributedLock{
		client: m.client,
		key:    lockKey,
		value:  lockValue,
	}, nil
}

// AcquireLockWithRetry はリトライ付きでロックを取得する
func (m *LockManager) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (*DistributedLock, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		lock, err := m.AcquireLock(ctx, key, ttl)
		if err == nil {
			return lock, nil
		}
		lastErr = err
		if !errors.Is(err, ErrLockNotAcquired) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, lastErr
}

// Release はロックを解放する
func (l *DistributedLock) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Int()
	if err != nil {
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	if result == 0 {
		return ErrLockNotOwned
	}
	return nil
}

// Key はロックの Redis キーを返す
func (l *DistributedLock) Key() string {
	return l.key
}

const (
	accountLockRetries    = 50
	accountLockRetryDelay = 20 * time.Millisecond
)

// AccountLocker は送金対象の口座の組を1つのキーでロックする
type AccountLocker struct {
	manager *LockManager
	ttl     time.Duration
}

// NewAccountLocker は AccountLocker を作成する
func NewAccountLocker(manager *LockManager, ttl time.Duration) *AccountLocker {
	return &AccountLocker{manager: manager, ttl: ttl}
}

// LockAccounts は ids の組に対するロックを取得し、解放関数を返す
func (l *AccountLocker) LockAccounts(ctx context.Context, ids []string) (func(context.Context) error, error) {
	lock, err := l.manager.AcquireLockWithRetry(ctx, accountsLockKey(ids), l.ttl, accountLockRetries, accountLockRetryDelay)
	if errors.Is(err, ErrLockNotAcquired) {
		return nil, fmt.Errorf("%w: %w", transfer.ErrAccountsBusy, err)
	}
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}

// accountsLockKey は口座IDの組からロックキーを作る
// ID が ":" を含んでも組ごとに一意になるよう各IDに長さを付ける
func accountsLockKey(ids []string) string {
	var b strings.Builder
	b.WriteString("transfer")
	for _, id := range ids {
		fmt.Fprintf(&b, ":%d:%s", len(id), id)
	}
	return b.String()
}

var _ transfer.Locker = (*AccountLocker)(nil)
