package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"yaniv/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// NakamaEconomyAdapter implements ports.EconomyPort using Nakama's wallet system.
type NakamaEconomyAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaEconomyAdapter creates a new economy adapter.
func NewNakamaEconomyAdapter(nk runtime.NakamaModule) *NakamaEconomyAdapter {
	return &NakamaEconomyAdapter{
		nk: nk,
	}
}

// GetBalance retrieves the current chip balance for a user.
func (a *NakamaEconomyAdapter) GetBalance(ctx context.Context, userID string) (int64, error) {
	account, err := a.nk.AccountGetId(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get account: %w", err)
	}
	return walletBalance(account.GetWallet())
}

// UpdateBalances applies the settlement of one game. Nakama's MultiUpdate
// applies all wallet changes in a single transaction.
func (a *NakamaEconomyAdapter) UpdateBalances(ctx context.Context, updates []ports.WalletUpdate) error {
	walletUpdates := make([]*runtime.WalletUpdate, 0, len(updates))
	for _, update := range updates {
		if update.Amount == 0 {
			continue
		}
		walletUpdates = append(walletUpdates, &runtime.WalletUpdate{
			UserID:    update.UserID,
			Changeset: map[string]int64{walletCurrency: update.Amount},
			Metadata:  update.Metadata,
		})
	}
	if len(walletUpdates) == 0 {
		return nil
	}

	if _, _, err := a.nk.MultiUpdate(ctx, nil, nil, nil, walletUpdates, true); err != nil {
		return fmt.Errorf("failed to settle %d wallets: %w", len(walletUpdates), err)
	}
	return nil
}

// walletBalance reads the chip balance from an account's wallet JSON.
func walletBalance(wallet string) (int64, error) {
	if wallet == "" {
		return 0, nil
	}
	var balances map[string]int64
	if err := json.Unmarshal([]byte(wallet), &balances); err != nil {
		return 0, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}
	return balances[walletCurrency], nil
}

var _ ports.EconomyPort = (*NakamaEconomyAdapter)(nil)
