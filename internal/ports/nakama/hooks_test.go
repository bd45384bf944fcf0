package nakama

import (
	"context"
	"regexp"
	"testing"

	"github.com/form3tech-oss/jwt-go"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var displayNamePattern = regexp.MustCompile(`^[A-Z][a-z]+[A-Z][a-z]+\d{4}$`)

func sessionToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-key"))
	require.NoError(t, err)
	return token
}

func TestExtractUserIDFromToken(t *testing.T) {
	uid, err := extractUserIDFromToken(sessionToken(t, jwt.MapClaims{"uid": "user-1", "usn": "ann"}))
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)

	_, err = extractUserIDFromToken(sessionToken(t, jwt.MapClaims{"usn": "ann"}))
	assert.Error(t, err)

	_, err = extractUserIDFromToken("not-a-token")
	assert.Error(t, err)
}

func TestOnboard(t *testing.T) {
	t.Run("UserFromContext", func(t *testing.T) {
		nk := newFakeNakama()
		ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, "user-ctx")

		require.NoError(t, onboard(ctx, noopLogger{}, NewNakamaAccountAdapter(nk), &api.Session{Created: true}))
		assert.Regexp(t, displayNamePattern, nk.accountUpdates["user-ctx"])
	})

	t.Run("UserFromSessionToken", func(t *testing.T) {
		nk := newFakeNakama()
		session := &api.Session{Created: true, Token: sessionToken(t, jwt.MapClaims{"uid": "user-tok"})}

		require.NoError(t, onboard(context.Background(), noopLogger{}, NewNakamaAccountAdapter(nk), session))
		assert.Regexp(t, displayNamePattern, nk.accountUpdates["user-tok"])
	})

	t.Run("UnreadableToken", func(t *testing.T) {
		nk := newFakeNakama()
		err := onboard(context.Background(), noopLogger{}, NewNakamaAccountAdapter(nk), &api.Session{Token: "garbage"})
		assert.Error(t, err)
		assert.Empty(t, nk.accountUpdates)
	})
}

func TestAfterAuthenticateDevice_SkipsExistingAccounts(t *testing.T) {
	nk := newFakeNakama()
	err := AfterAuthenticateDevice(context.Background(), noopLogger{}, nil, nk, &api.Session{Created: false}, &api.AuthenticateDeviceRequest{})
	require.NoError(t, err)
	assert.Empty(t, nk.accountUpdates)
}
