package onboarding

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"yaniv/internal/ports"
)

// WelcomeBonusChips is credited once to every new account.
const WelcomeBonusChips = 5000

var (
	nameAdjectives = []string{"Lucky", "Sharp", "Quiet", "Bold", "Sly", "Steady", "Quick", "Cool", "Keen", "Wild"}
	nameNouns      = []string{"Joker", "Ace", "Dealer", "Shark", "Caller", "Queen", "Knave", "King", "Runner", "Spade"}
)

// Result captures non-fatal onboarding outcomes.
type Result struct {
	DisplayName string
	// ProfileUpdateErr is set when the profile update failed but onboarding continued.
	ProfileUpdateErr    error
	WelcomeBonusGranted bool
}

// Service prepares freshly created accounts for the Yaniv tables.
type Service struct {
	accounts ports.AccountPort
	bonuses  ports.WelcomeBonusPort
	rng      *rand.Rand
}

// NewService constructs an onboarding service. rng may be nil to use a
// time-seeded default.
func NewService(accounts ports.AccountPort, bonuses ports.WelcomeBonusPort, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{accounts: accounts, bonuses: bonuses, rng: rng}
}

// OnboardNewUser gives the account a generated table name and credits the
// welcome chips. A failed profile update is reported in Result; a failed
// bonus grant is returned as an error.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil || s.bonuses == nil {
		return Result{}, fmt.Errorf("onboarding service not configured")
	}

	result := Result{DisplayName: s.tableName()}
	if err := s.accounts.UpdateProfile(ctx, userID, result.DisplayName, result.DisplayName); err != nil {
		result.ProfileUpdateErr = err
	}

	granted, err := s.bonuses.GrantWelcomeBonusOnce(ctx, userID, WelcomeBonusChips, map[string]interface{}{
		"reason": "welcome_bonus",
		"game":   "yaniv",
	})
	if err != nil {
		return result, fmt.Errorf("failed to grant welcome bonus: %w", err)
	}
	result.WelcomeBonusGranted = granted
	return result, nil
}

func (s *Service) tableName() string {
	adj := nameAdjectives[s.rng.Intn(len(nameAdjectives))]
	noun := nameNouns[s.rng.Intn(len(nameNouns))]
	return fmt.Sprintf("%s%s%d", adj, noun, s.rng.Intn(9000)+1000)
}
