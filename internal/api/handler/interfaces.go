package handler

import (
	"context"

	"github.com/sanosuguru/go-ledger-transfer/internal/application"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/account"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transfer"
)

// AccountServiceInterface は口座サービスのインターフェース
type AccountServiceInterface interface {
	CreateAccount(ctx context.Context, input application.CreateAccountInput) (*account.Account, error)
	GetAccount(ctx context.Context, id string) (*account.Account, error)
	DeleteAccount(ctx context.Context, id string) error
}

// TransferServiceInterface は送金サービスのインターフェース
type TransferServiceInterface interface {
	Transfer(ctx context.Context, fromID, toID string, amount int64) (*transfer.Transfer, error)
}
