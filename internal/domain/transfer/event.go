package transfer

import (
	"context"
	"time"
)

// CompletedTopic は送金完了イベントのトピック名
const CompletedTopic = "transfer.completed"

// CompletedEvent はコミット済みの送金を通知するイベント
type CompletedEvent struct {
	TransferID string    `json:"transfer_id"`
	FromID     string    `json:"from_account_id"`
	ToID       string    `json:"to_account_id"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewCompletedEvent は送金から完了イベントを作成する
func NewCompletedEvent(t *Transfer) CompletedEvent {
	return CompletedEvent{
		TransferID: t.ID,
		FromID:     t.FromID,
		ToID:       t.ToID,
		Amount:     t.Amount,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher は送金イベントの発行先
type Publisher interface {
	PublishTransferCompleted(ctx context.Context, event CompletedEvent) error
}
