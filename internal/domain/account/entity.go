package account

// MaxIDLength は口座IDの最大長（accounts.account_id の列幅）
const MaxIDLength = 64

// Account は口座エンティティを表す
// 残高は最小通貨単位の整数で保持する
type Account struct {
	ID      string
	Balance int64
}

// NewAccount は新しい口座を作成する
func NewAccount(id string, balance int64) *Account {
	return &Account{ID: id, Balance: balance}
}

// Validate は口座の値を検証する
func (a *Account) Validate() error {
	if a.ID == "" {
		return ErrAccountIDRequired
	}
	if len(a.ID) > MaxIDLength {
		return ErrAccountIDTooLong
	}
	return nil
}

// Withdraw は残高から amount を差し引く
// 残高不足の判定は行わない（呼び出し側の責務）
func (a *Account) Withdraw(amount int64) {
	a.Balance -= amount
}

// Deposit は残高に amount を加算する
func (a *Account) Deposit(amount int64) {
	a.Balance += amount
}
