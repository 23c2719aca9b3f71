package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// versionTTL はバージョンキーの保持期間（残高キーより十分長くする）
const versionTTL = 24 * time.Hour

// バージョンが読み取り時点から変わっていない場合のみ残高を保存する
// KEYS[1]: 残高キー, KEYS[2]: バージョンキー
// ARGV[1]: 残高, ARGV[2]: 読み取り時のバージョン, ARGV[3]: TTL(ms)
var setIfVersionScript = redis.NewScript(`
local current = redis.call("GET", KEYS[2])
if current == false then
	current = "0"
end
if current ~= ARGV[2] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[1])
end
return 1
`)

// AccountCache は口座残高のキャッシュを管理する
// 口座ごとにバージョンキーを持ち、無効化のたびに進める
type AccountCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAccountCache は新しいAccountCacheインスタンスを作成する
func NewAccountCache(client *redis.Client, ttl time.Duration) *AccountCache {
	return &AccountCache{client: client, ttl: ttl}
}

// GetBalance は口座残高をキャッシュから取得する
func (c *AccountCache) GetBalance(ctx context.Context, accountID string) (int64, error) {
	val, err := c.client.Get(ctx, c.balanceKey(accountID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// Version は口座キャッシュの現在のバージョンを返す（未設定は 0）
// DB を読む前に取得し、SetBalance に渡す
func (c *AccountCache) Version(ctx context.Context, accountID string) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(accountID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("キャッシュバージョン取得に失敗: %w", err)
	}
	return v, nil
}

// SetBalance は version 取得後に無効化されていない場合のみ残高を保存する
// 保存しなかった場合は false を返す
func (c *AccountCache) SetBalance(ctx context.Context, accountID string, balance, version int64) (bool, error) {
	keys := []string{c.balanceKey(accountID), c.versionKey(accountID)}
	stored, err := setIfVersionScript.Run(ctx, c.client, keys, balance, version, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return stored == 1, nil
}

// Invalidate は口座のキャッシュを削除し、バージョンを進める
func (c *AccountCache) Invalidate(ctx context.Context, accountIDs ...string) error {
	if len(accountIDs) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range accountIDs {
			pipe.Incr(ctx, c.versionKey(id))
			pipe.Expire(ctx, c.versionKey(id), versionTTL)
			pipe.Del(ctx, c.balanceKey(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *AccountCache) balanceKey(accountID string) string {
	return fmt.Sprintf("accounts:balance:%s", accountID)
}

func (c *AccountCache) versionKey(accountID string) string {
	return fmt.Sprintf("accounts:balance-version:%s", accountID)
}
