package application

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/account"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-ledger-transfer/internal/infrastructure/redis"
	"github.com/sanosuguru/go-ledger-transfer/internal/pkg/logger"
)

type AccountService struct {
	txManager   transaction.Manager
	accountRepo account.Repository
	cache       BalanceCache
}

// NewAccountService は AccountService を作成する（cache は nil 可）
func NewAccountService(tm transaction.Manager, ar account.Repository, cache BalanceCache) *AccountService {
	return &AccountService{txManager: tm, accountRepo: ar, cache: cache}
}

type CreateAccountInput struct {
	ID      string
	Balance int64
}

func (s *AccountService) CreateAccount(ctx context.Context, input CreateAccountInput) (*account.Account, error) {
	a := account.NewAccount(input.ID, input.Balance)
	if err := a.Validate(); err != nil {
		return nil, err
	}
	err := transaction.RunInTx(ctx, s.txManager, func(tx transaction.Tx) error {
		return s.accountRepo.Create(ctx, tx, a)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("口座を作成", zap.String("account_id", a.ID), zap.Int64("balance", a.Balance))
	return a, nil
}

// GetAccount は口座を取得する
// キャッシュの補充は DB を読む前のバージョンが変わっていない場合に限る
func (s *AccountService) GetAccount(ctx context.Context, id string) (*account.Account, error) {
	var (
		version   int64
		cacheable bool
	)
	if s.cache != nil {
		balance, err := s.cache.GetBalance(ctx, id)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.String("account_id", id))
			return account.NewAccount(id, balance), nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
		if version, err = s.cache.Version(ctx, id); err == nil {
			cacheable = true
		} else {
			logger.Warn("キャッシュバージョン取得エラー", zap.Error(err))
		}
	}

	var a *account.Account
	err := transaction.RunInTx(ctx, s.txManager, func(tx transaction.Tx) error {
		var err error
		a, err = s.accountRepo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if cacheable {
		stored, err := s.cache.SetBalance(ctx, id, a.Balance, version)
		if err != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(err))
		} else if !stored {
			logger.Debug("読み取り中に無効化されたためキャッシュしない", zap.String("account_id", id))
		}
	}
	return a, nil
}

func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	err := transaction.RunInTx(ctx, s.txManager, func(tx transaction.Tx) error {
		return s.accountRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			logger.Warn("キャッシュ無効化エラー", zap.Error(err))
		}
	}
	return nil
}
