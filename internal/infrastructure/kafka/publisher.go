package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transfer"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher は送金イベントを Kafka に発行する
type Publisher struct {
	writer messageWriter
}

// batchTimeout は同期書き込みでバッチが埋まるのを待つ上限
const batchTimeout = 10 * time.Millisecond

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: batchTimeout,
		},
	}
}

// PublishTransferCompleted は送金完了イベントを発行する
// 送金元口座IDをキーにして同一口座のイベント順序を保つ
func (p *Publisher) PublishTransferCompleted(ctx context.Context, event transfer.CompletedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.FromID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(transfer.CompletedTopic)},
		},
	})
	if err != nil {
		return fmt.Errorf("イベント発行に失敗: %w", err)
	}
	return nil
}

// Close はライターを閉じる
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ transfer.Publisher = (*Publisher)(nil)
