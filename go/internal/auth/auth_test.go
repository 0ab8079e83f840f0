package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator(clock clockwork.Clock) *Authenticator {
	return NewAuthenticator(Config{Secret: "test-secret", Issuer: "playerauction"}, clock)
}

func TestValidateToken_RoundTrip(t *testing.T) {
	a := newTestAuthenticator(clockwork.NewFakeClock())

	token, err := a.Issue("admin-1", "Auctioneer", true, time.Hour)
	require.NoError(t, err)

	claims, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.Subject)
	assert.Equal(t, "Auctioneer", claims.Name)
	assert.True(t, claims.IsAdmin)
}

func TestValidateToken_Rejects(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := newTestAuthenticator(clock)

	expired, err := a.Issue("admin-1", "", true, time.Minute)
	require.NoError(t, err)

	other := NewAuthenticator(Config{Secret: "other-secret", Issuer: "playerauction"}, clock)
	wrongKey, err := other.Issue("admin-1", "", true, time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := NewAuthenticator(Config{Secret: "test-secret", Issuer: "someone-else"}, clock).
		Issue("admin-1", "", true, time.Hour)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{IsAdmin: true}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong key", wrongKey},
		{"wrong issuer", wrongIssuer},
		{"none algorithm", noneAlg},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestValidateToken_NoSecret(t *testing.T) {
	a := NewAuthenticator(Config{}, nil)

	_, err := a.ValidateToken("anything")
	assert.Error(t, err)
	_, err = a.Issue("x", "", true, time.Hour)
	assert.Error(t, err)
}

func TestIdentify(t *testing.T) {
	a := newTestAuthenticator(clockwork.NewFakeClock())
	adminToken, err := a.Issue("admin-1", "Auctioneer", true, time.Hour)
	require.NoError(t, err)
	viewerToken, err := a.Issue("viewer-1", "", false, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name      string
		header    string
		query     string
		wantAdmin bool
		wantSub   string
	}{
		{name: "header admin", header: "Bearer " + adminToken, wantAdmin: true, wantSub: "admin-1"},
		{name: "query admin", query: adminToken, wantAdmin: true, wantSub: "admin-1"},
		{name: "viewer token", header: "Bearer " + viewerToken, wantSub: "viewer-1"},
		{name: "no token"},
		{name: "missing bearer prefix", header: adminToken},
		{name: "invalid token", header: "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/ws/auction"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			r := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			id := a.Identify(r)
			assert.Equal(t, tt.wantAdmin, id.IsAdmin)
			assert.Equal(t, tt.wantSub, id.Subject)
		})
	}
}
