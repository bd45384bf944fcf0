package nakama

import (
	"context"
	"database/sql"
	"fmt"

	"blokus/internal/app/onboarding"
	"blokus/internal/ports"

	"github.com/form3tech-oss/jwt-go"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// names is shared by every onboarding run of the module.
var names = onboarding.NewNameGenerator(nil)

// AfterAuthenticateDevice is triggered after an account is authenticated.
// It gives new accounts a friendly display name.
func AfterAuthenticateDevice(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateDeviceRequest) error {
	if !out.Created {
		return nil
	}
	return onboard(ctx, logger, NewNakamaAccountAdapter(nk), out)
}

func onboard(ctx context.Context, logger runtime.Logger, accounts ports.AccountPort, out *api.Session) error {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		// Resolve User ID from the session token.
		resolvedID, err := extractUserIDFromToken(out.Token)
		if err != nil {
			logger.Error("AfterAuthenticateDevice: Failed to extract user ID from token: %v", err)
			return err
		}
		userID = resolvedID
	}

	service := onboarding.NewService(accounts, names)
	result, err := service.OnboardNewUser(ctx, userID)
	if err != nil {
		logger.Error("AfterAuthenticateDevice: Onboarding failed for user %s: %v", userID, err)
		return err
	}
	logger.Info("Onboarded new user %s as %s", userID, result.DisplayName)
	return nil
}

// extractUserIDFromToken reads the uid claim of a Nakama session token.
// The token was just issued by the server, so its signature is not checked.
func extractUserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return "", fmt.Errorf("token claims missing uid")
	}
	return uid, nil
}
