package ports

import "context"

// WalletUpdate is a signed chip change for one player. Metadata ends up in
// the wallet ledger.
type WalletUpdate struct {
	UserID   string
	Amount   int64
	Metadata map[string]any
}

// EconomyPort reads and settles chip balances for the tables.
type EconomyPort interface {
	GetBalance(ctx context.Context, userID string) (int64, error)

	// UpdateBalances applies all changes of a finished game or none of them.
	UpdateBalances(ctx context.Context, updates []WalletUpdate) error
}
