package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"yaniv/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	welcomeBonusCollection = "yaniv_onboarding"
	welcomeBonusKey        = "welcome_bonus"
)

// welcomeBonusMarker is stored once per user; its create-only write guards the grant.
type welcomeBonusMarker struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	GrantedAt string `json:"granted_at"`
}

// NakamaWelcomeBonusAdapter grants the welcome chips using Nakama storage + wallet updates.
type NakamaWelcomeBonusAdapter struct {
	nk  runtime.NakamaModule
	now func() time.Time
}

// NewNakamaWelcomeBonusAdapter creates a new welcome bonus adapter.
func NewNakamaWelcomeBonusAdapter(nk runtime.NakamaModule) *NakamaWelcomeBonusAdapter {
	return &NakamaWelcomeBonusAdapter{nk: nk, now: time.Now}
}

// GrantWelcomeBonusOnce credits amount chips and writes the marker in one
// MultiUpdate. A rejected marker write means the bonus was already granted.
func (a *NakamaWelcomeBonusAdapter) GrantWelcomeBonusOnce(ctx context.Context, userID string, amount int64, metadata map[string]any) (bool, error) {
	if userID == "" {
		return false, errors.New("userID is required")
	}
	if amount <= 0 {
		return false, fmt.Errorf("amount must be positive, got %d", amount)
	}

	value, err := json.Marshal(welcomeBonusMarker{
		Amount:    amount,
		Currency:  walletCurrency,
		GrantedAt: a.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal welcome bonus marker: %w", err)
	}

	storageWrites := []*runtime.StorageWrite{{
		Collection:      welcomeBonusCollection,
		Key:             welcomeBonusKey,
		UserID:          userID,
		Value:           string(value),
		Version:         "*", // create only
		PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}}
	walletUpdates := []*runtime.WalletUpdate{{
		UserID:    userID,
		Changeset: map[string]int64{walletCurrency: amount},
		Metadata:  metadata,
	}}

	if _, _, err := a.nk.MultiUpdate(ctx, nil, storageWrites, nil, walletUpdates, true); err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return false, nil
		}
		return false, fmt.Errorf("failed to grant welcome bonus: %w", err)
	}
	return true, nil
}

// NakamaProfileAdapter writes the generated profile of a new player.
type NakamaProfileAdapter struct {
	nk runtime.NakamaModule
}

func (a NakamaProfileAdapter) UpdateProfile(ctx context.Context, userID, username, displayName string) error {
	if err := a.nk.AccountUpdateId(ctx, userID, username, nil, displayName, "", "", "", ""); err != nil {
		return fmt.Errorf("failed to update profile of %s: %w", userID, err)
	}
	return nil
}

var (
	_ ports.WelcomeBonusPort = (*NakamaWelcomeBonusAdapter)(nil)
	_ ports.AccountPort      = NakamaProfileAdapter{}
)
