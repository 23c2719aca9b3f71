package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/account"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transaction"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transfer"
	"github.com/sanosuguru/go-ledger-transfer/internal/pkg/logger"
	"github.com/sanosuguru/go-ledger-transfer/internal/pkg/metrics"
)

// TransferService は口座間送金のトランザクション境界を持つ
type TransferService struct {
	txManager   transaction.Manager
	accountRepo account.Repository
	policy      transfer.Policy
	locker      transfer.Locker
	cache       BalanceCache
	publisher   transfer.Publisher
	metrics     *metrics.Metrics
}

// TransferOption は TransferService の任意の依存を設定する
type TransferOption func(*TransferService)

// WithLocker は送金前に取得する分散ロックを設定する
func WithLocker(l transfer.Locker) TransferOption {
	return func(s *TransferService) { s.locker = l }
}

// WithBalanceCache はコミット後に無効化する残高キャッシュを設定する
func WithBalanceCache(c BalanceCache) TransferOption {
	return func(s *TransferService) { s.cache = c }
}

// WithPublisher はコミット後に送金完了イベントを発行する先を設定する
func WithPublisher(p transfer.Publisher) TransferOption {
	return func(s *TransferService) { s.publisher = p }
}

// WithMetrics は送金メトリクスの記録先を設定する
func WithMetrics(m *metrics.Metrics) TransferOption {
	return func(s *TransferService) { s.metrics = m }
}

func NewTransferService(tm transaction.Manager, ar account.Repository, policy transfer.Policy, opts ...TransferOption) *TransferService {
	s := &TransferService{txManager: tm, accountRepo: ar, policy: policy}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transfer は fromID から toID へ amount を移す
// 失敗時は両口座とも呼び出し前の残高のまま ErrTransferFailed をラップして返す
func (s *TransferService) Transfer(ctx context.Context, fromID, toID string, amount int64) (*transfer.Transfer, error) {
	t := transfer.NewTransfer(fromID, toID, amount)
	log := logger.With(
		zap.String("transfer_id", t.ID),
		zap.String("from", fromID),
		zap.String("to", toID),
		zap.Int64("amount", amount),
	)

	start := time.Now()
	err := s.run(ctx, t)
	s.observe(err, time.Since(start))
	if err != nil {
		log.Warn("送金に失敗", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", transfer.ErrTransferFailed, err)
	}
	log.Info("送金が完了")

	s.afterCommit(ctx, t)
	return t, nil
}

func (s *TransferService) run(ctx context.Context, t *transfer.Transfer) error {
	if s.locker != nil {
		release, err := s.lock(ctx, t)
		if err != nil {
			return err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("ロック解放に失敗", zap.String("transfer_id", t.ID), zap.Error(err))
			}
		}()
	}
	return transaction.RunInTx(ctx, s.txManager, func(tx transaction.Tx) error {
		return s.execute(ctx, tx, t)
	})
}

func (s *TransferService) lock(ctx context.Context, t *transfer.Transfer) (func(context.Context) error, error) {
	start := time.Now()
	release, err := s.locker.LockAccounts(ctx, t.LockOrder())
	if s.metrics != nil {
		status := "success"
		if err != nil {
			status = "failed"
		}
		s.metrics.DistributedLockDuration.WithLabelValues("acquire", status).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	return release, nil
}

// execute は 読み取り → 出金 → 検証 → 入金 の順で1つのトランザクション内で実行する
func (s *TransferService) execute(ctx context.Context, tx transaction.Tx, t *transfer.Transfer) error {
	from, to, err := s.loadAccounts(ctx, tx, t)
	if err != nil {
		return err
	}

	from.Withdraw(t.Amount)
	if err := s.accountRepo.UpdateBalance(ctx, tx, from.ID, from.Balance); err != nil {
		return err
	}

	if err := s.policy.Validate(from, to, t.Amount); err != nil {
		return err
	}

	to.Deposit(t.Amount)
	return s.accountRepo.UpdateBalance(ctx, tx, to.ID, to.Balance)
}

// loadAccounts は ID 昇順で行ロックを取りながら両口座を読む
// 同一口座の送金では from と to は同じポインタになる
func (s *TransferService) loadAccounts(ctx context.Context, tx transaction.Tx, t *transfer.Transfer) (*account.Account, *account.Account, error) {
	loaded := make(map[string]*account.Account, 2)
	for _, id := range t.LockOrder() {
		a, err := s.accountRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, nil, fmt.Errorf("口座 %s の取得に失敗: %w", id, err)
		}
		loaded[id] = a
	}
	return loaded[t.FromID], loaded[t.ToID], nil
}

func (s *TransferService) afterCommit(ctx context.Context, t *transfer.Transfer) {
	ctx = context.WithoutCancel(ctx)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, t.LockOrder()...); err != nil {
			logger.Warn("キャッシュ無効化エラー", zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishTransferCompleted(ctx, transfer.NewCompletedEvent(t)); err != nil {
			logger.Warn("送金イベントの発行に失敗", zap.String("transfer_id", t.ID), zap.Error(err))
		}
	}
}

func (s *TransferService) observe(err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	status := transferStatus(err)
	s.metrics.TransfersTotal.WithLabelValues(status).Inc()
	s.metrics.TransferDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

func transferStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, transfer.ErrTransferRejected):
		return "rejected"
	case errors.Is(err, account.ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, transaction.ErrConnectionUnavailable):
		return "conn_unavailable"
	case errors.Is(err, transfer.ErrAccountsBusy):
		return "busy"
	default:
		return "error"
	}
}
