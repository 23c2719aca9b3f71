package transaction

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ledger-transfer/internal/pkg/logger"
)

// RunInTx は fn を1つのトランザクション内で実行する
// fn が成功すればコミット、失敗すればロールバックして fn のエラーをそのまま返す。
// コネクションはどの経路でも（panic を含む）一度だけ返却される。
// ロールバックや返却の失敗はログに記録し、元のエラーを上書きしない。
func RunInTx(ctx context.Context, m Manager, fn func(tx Tx) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := tx.Close(); cerr != nil {
			logger.Warn("コネクション返却に失敗", zap.Error(cerr))
		}
	}()

	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			logger.Error("ロールバックに失敗",
				zap.Error(rerr),
				zap.NamedError("cause", err),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}
