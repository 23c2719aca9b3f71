package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transaction"
)

// DefaultMaxConns は Store が同時に貸し出すコネクション数の既定値
const DefaultMaxConns = 10

// Store はプロセス内で口座残高を保持するストア
// コネクション数の上限を持ち、トランザクションは直列に実行される（SERIALIZABLE 相当）
type Store struct {
	mu   sync.RWMutex
	rows map[string]int64

	conns  chan struct{}
	txLock chan struct{}
}

// NewStore は新しい Store を作成する
func NewStore(maxConns int) *Store {
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	return &Store{
		rows:   make(map[string]int64),
		conns:  make(chan struct{}, maxConns),
		txLock: make(chan struct{}, 1),
	}
}

// Stats はコネクションの利用状況を sql.DBStats 形式で返す
func (s *Store) Stats() sql.DBStats {
	inUse := len(s.conns)
	return sql.DBStats{
		MaxOpenConnections: cap(s.conns),
		OpenConnections:    inUse,
		InUse:              inUse,
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.conns <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", transaction.ErrConnectionUnavailable, ctx.Err())
	}
	select {
	case s.txLock <- struct{}{}:
		return nil
	case <-ctx.Done():
		<-s.conns
		return fmt.Errorf("%w: %w", transaction.ErrConnectionUnavailable, ctx.Err())
	}
}

func (s *Store) unlockTx() { <-s.txLock }

func (s *Store) releaseConn() { <-s.conns }

func (s *Store) get(id string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	balance, ok := s.rows[id]
	return balance, ok
}

// apply はトランザクションの書き込みを反映する（nil は削除）
func (s *Store) apply(writes map[string]*int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, balance := range writes {
		if balance == nil {
			delete(s.rows, id)
			continue
		}
		s.rows[id] = *balance
	}
}

// TxManager は Store 上のトランザクションを開始する
type TxManager struct {
	store *Store
}

// NewTxManager は新しい TxManager を作成する
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin はコネクション枠を確保してトランザクションを開始する
// 枠が空くまで待機し、ctx が終了した場合は ErrConnectionUnavailable を返す
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	if err := m.store.acquire(ctx); err != nil {
		return nil, err
	}
	return &Tx{store: m.store, writes: make(map[string]*int64)}, nil
}

// Tx は Store 上のトランザクション
// 書き込みはコミットまで writes に保持され、ロールバック時は破棄される
type Tx struct {
	store  *Store
	lc     transaction.Lifecycle
	writes map[string]*int64
}

// State はトランザクションの状態を返す
func (t *Tx) State() transaction.State {
	return t.lc.State()
}

func (t *Tx) Commit() error {
	return t.lc.Commit(func() error {
		t.store.apply(t.writes)
		t.writes = nil
		t.store.unlockTx()
		return nil
	})
}

func (t *Tx) Rollback() error {
	return t.lc.Rollback(t.discard)
}

// Close はコネクション枠を返却する
func (t *Tx) Close() error {
	return t.lc.Release(t.discard, func() error {
		t.store.releaseConn()
		return nil
	})
}

func (t *Tx) discard() error {
	t.writes = nil
	t.store.unlockTx()
	return nil
}

func (t *Tx) lookup(id string) (int64, bool) {
	if balance, ok := t.writes[id]; ok {
		if balance == nil {
			return 0, false
		}
		return *balance, true
	}
	return t.store.get(id)
}

func (t *Tx) put(id string, balance int64) {
	t.writes[id] = &balance
}

func (t *Tx) remove(id string) {
	t.writes[id] = nil
}

// UnwrapTx は transaction.Tx から memory.Tx を取り出す
// 終了済みのトランザクションには ErrTxDone を返す
func UnwrapTx(tx transaction.Tx) (*Tx, error) {
	mtx, ok := tx.(*Tx)
	if !ok {
		return nil, transaction.ErrUnsupportedTx
	}
	if err := mtx.lc.EnsureActive(); err != nil {
		return nil, err
	}
	return mtx, nil
}

var _ transaction.Manager = (*TxManager)(nil)
var _ transaction.Tx = (*Tx)(nil)
