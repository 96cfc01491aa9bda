package nakama

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"yaniv/internal/app/onboarding"

	jwt "github.com/form3tech-oss/jwt-go"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// AfterAuthenticateDevice is triggered after an account is authenticated.
// New accounts get a generated profile and the welcome bonus.
func AfterAuthenticateDevice(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateDeviceRequest) error {
	if !out.GetCreated() {
		return nil
	}

	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		resolvedID, err := extractUserIDFromToken(out.GetToken())
		if err != nil {
			logger.Error("AfterAuthenticateDevice: Failed to extract user ID from token: %v", err)
			return err
		}
		userID = resolvedID
	}

	logger.Info("AfterAuthenticateDevice: Onboarding new user %s", userID)

	service := onboarding.NewService(NakamaProfileAdapter{nk: nk}, NewNakamaWelcomeBonusAdapter(nk), nil)
	result, err := service.OnboardNewUser(ctx, userID)
	if result.ProfileUpdateErr != nil {
		logger.Warn("AfterAuthenticateDevice: Failed to update profile for user %s: %v", userID, result.ProfileUpdateErr)
	}
	if !result.WelcomeBonusGranted {
		logger.Info("AfterAuthenticateDevice: Welcome bonus already granted for user %s", userID)
	}
	if err != nil {
		logger.Error("AfterAuthenticateDevice: Onboarding failed for user %s: %v", userID, err)
		return err
	}
	return nil
}

// extractUserIDFromToken reads the uid claim of a Nakama session token. The
// token was just issued by the server, so its signature is not checked here.
func extractUserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse session token: %w", err)
	}

	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return "", errors.New("token claims missing uid")
	}
	return uid, nil
}
