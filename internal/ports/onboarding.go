package ports

import "context"

// AccountPort renames freshly created player accounts.
type AccountPort interface {
	UpdateProfile(ctx context.Context, userID, username, displayName string) error
}

// WelcomeBonusPort credits the one-off starting chips of a new player.
// granted is false when the user already received them.
type WelcomeBonusPort interface {
	GrantWelcomeBonusOnce(ctx context.Context, userID string, amount int64, metadata map[string]any) (granted bool, err error)
}
