package transfer

import (
	"fmt"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/account"
)

// DefaultBlockedAccountID は既定で入金を停止している口座ID
const DefaultBlockedAccountID = "ex"

// Policy は送金途中に適用される業務ルール
// 違反時は ErrTransferRejected をラップしたエラーを返す
type Policy interface {
	Validate(from, to *account.Account, amount int64) error
}

// BlockedAccountPolicy は入金停止口座への送金を拒否する
type BlockedAccountPolicy struct {
	blocked map[string]struct{}
}

// NewBlockedAccountPolicy は指定IDを入金停止口座とする Policy を作成する
func NewBlockedAccountPolicy(ids ...string) *BlockedAccountPolicy {
	blocked := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			blocked[id] = struct{}{}
		}
	}
	return &BlockedAccountPolicy{blocked: blocked}
}

// IsBlocked は口座が入金停止かを返す
func (p *BlockedAccountPolicy) IsBlocked(id string) bool {
	_, ok := p.blocked[id]
	return ok
}

// Validate は送金先が入金停止口座でないことを確認する
func (p *BlockedAccountPolicy) Validate(from, to *account.Account, amount int64) error {
	if p.IsBlocked(to.ID) {
		return fmt.Errorf("%w: 送金先口座 %s は入金が停止されています", ErrTransferRejected, to.ID)
	}
	return nil
}

var _ Policy = (*BlockedAccountPolicy)(nil)
