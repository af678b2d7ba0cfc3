package httpapi

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthManager_LoginVerifyLogout(t *testing.T) {
	auth := newAuthManager("admin", "admin123", "secret")

	_, err := auth.Login("admin", "wrong")
	assert.Error(t, err, "wrong password must be rejected")
	_, err = auth.Login("other", "admin123")
	assert.Error(t, err, "wrong username must be rejected")

	token, err := auth.Login("admin", "admin123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.True(t, auth.Verify(token))

	username, err := auth.validateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", username)

	auth.Logout(token)
	assert.False(t, auth.Verify(token), "logout must revoke the session")
}

func TestAuthManager_RejectsForeignTokens(t *testing.T) {
	auth := newAuthManager("admin", "admin123", "secret")

	assert.False(t, auth.Verify("not-a-token"))

	// Valid JWT signed with a different key.
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Username: "admin"}).
		SignedString([]byte("other-secret"))
	require.NoError(t, err)
	assert.False(t, auth.Verify(forged))

	// Valid signature but no server-side session.
	token, err := auth.Login("admin", "admin123")
	require.NoError(t, err)
	fresh := newAuthManager("admin", "admin123", "secret")
	assert.False(t, fresh.Verify(token), "token without a session must be rejected")
}
