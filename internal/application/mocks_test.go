package application

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/account"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transaction"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transfer"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockAccountRepository implements account.Repository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, tx transaction.Tx, a *account.Account) error {
	args := m.Called(ctx, tx, a)
	return args.Error(0)
}

func (m *MockAccountRepository) FindByID(ctx context.Context, tx transaction.Tx, id string) (*account.Account, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*account.Account, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx transaction.Tx, id string, balance int64) error {
	args := m.Called(ctx, tx, id, balance)
	return args.Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, tx transaction.Tx, id string) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

// MockBalanceCache implements BalanceCache
type MockBalanceCache struct {
	mock.Mock
}

func (m *MockBalanceCache) GetBalance(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBalanceCache) Version(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBalanceCache) SetBalance(ctx context.Context, accountID string, balance, version int64) (bool, error) {
	args := m.Called(ctx, accountID, balance, version)
	return args.Bool(0), args.Error(1)
}

func (m *MockBalanceCache) Invalidate(ctx context.Context, accountIDs ...string) error {
	args := m.Called(ctx, accountIDs)
	return args.Error(0)
}

// MockPublisher implements transfer.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishTransferCompleted(ctx context.Context, event transfer.CompletedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockLocker implements transfer.Locker
type MockLocker struct {
	mock.Mock
	released int
}

func (m *MockLocker) LockAccounts(ctx context.Context, ids []string) (func(context.Context) error, error) {
	args := m.Called(ctx, ids)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func(context.Context) error {
		m.released++
		return nil
	}, nil
}
