package transaction

import "sync"

// State はトランザクションの状態
type State int

const (
	StateActive State = iota
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Lifecycle は Tx 実装が共有する状態遷移とコネクション返却の管理
// active → committed | rolled_back の一方向のみ遷移し、返却は一度だけ実行される
type Lifecycle struct {
	mu       sync.Mutex
	state    State
	released bool
}

// State は現在の状態を返す
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// EnsureActive は終端状態なら ErrTxDone を返す
func (l *Lifecycle) EnsureActive() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateActive || l.released {
		return ErrTxDone
	}
	return nil
}

// Commit は fn を実行して committed へ遷移する
// fn が失敗した場合はコミットされなかったものとして rolled_back へ遷移する
func (l *Lifecycle) Commit(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateActive {
		return ErrTxDone
	}
	if err := fn(); err != nil {
		l.state = StateRolledBack
		return err
	}
	l.state = StateCommitted
	return nil
}

// Rollback は fn を実行して rolled_back へ遷移する
func (l *Lifecycle) Rollback(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateActive {
		return ErrTxDone
	}
	l.state = StateRolledBack
	return fn()
}

// Release はコネクション返却 release を一度だけ実行する
// active のまま呼ばれた場合は先に rollback を実行する
func (l *Lifecycle) Release(rollback, release func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return nil
	}
	l.released = true

	var rbErr error
	if l.state == StateActive {
		l.state = StateRolledBack
		rbErr = rollback()
	}
	if err := release(); err != nil {
		return err
	}
	return rbErr
}
