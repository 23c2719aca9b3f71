package transfer

import (
	"time"

	"github.com/google/uuid"
)

// Transfer は1回の送金（出金と入金の組）を表す
type Transfer struct {
	ID        string
	FromID    string
	ToID      string
	Amount    int64
	CreatedAt time.Time
}

// NewTransfer は新しい送金を作成する
func NewTransfer(fromID, toID string, amount int64) *Transfer {
	return &Transfer{
		ID:        uuid.New().String(),
		FromID:    fromID,
		ToID:      toID,
		Amount:    amount,
		CreatedAt: time.Now(),
	}
}

// IsSelfTransfer は同一口座間の送金かを返す
func (t *Transfer) IsSelfTransfer() bool {
	return t.FromID == t.ToID
}

// LockOrder は行ロックを取得する順序（ID昇順）で口座IDを返す
// 同一口座の場合は1件のみ返す
func (t *Transfer) LockOrder() []string {
	if t.IsSelfTransfer() {
		return []string{t.FromID}
	}
	if t.FromID < t.ToID {
		return []string{t.FromID, t.ToID}
	}
	return []string{t.ToID, t.FromID}
}
