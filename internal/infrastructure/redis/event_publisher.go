package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transfer"
)

// StreamPublisher は送金イベントを Redis Streams に追記する
type StreamPublisher struct {
	client *redis.Client
	stream string
}

// NewStreamPublisher は StreamPublisher を作成する
func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream}
}

// PublishTransferCompleted は送金完了イベントを発行する
func (p *StreamPublisher) PublishTransferCompleted(ctx context.Context, event transfer.CompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":  transfer.CompletedTopic,
			"event": payload,
		},
	}
	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("イベント発行に失敗: %w", err)
	}
	return nil
}

var _ transfer.Publisher = (*StreamPublisher)(nil)
