package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/propertymarket/backend/internal/api/middleware"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
)

func whoami(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		_, _ = w.Write([]byte("anonymous"))
		return
	}
	_, _ = w.Write([]byte(claims.UserID + ":" + string(claims.Role)))
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	auth := middleware.NewAuthenticator("test-secret", "propertymarket")
	h := auth.Authenticate(http.HandlerFunc(whoami))

	token, err := auth.Issue("agent-1", "Ada", entities.RoleAgent, time.Hour)
	require.NoError(t, err)

	rec := serve(h, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "agent-1:agent", rec.Body.String())

	rec = serve(h, "")
	assert.Equal(t, "anonymous", rec.Body.String())

	rec = serve(h, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsWrongSecretIssuerAndExpiry(t *testing.T) {
	auth := middleware.NewAuthenticator("test-secret", "propertymarket")
	h := auth.Authenticate(http.HandlerFunc(whoami))

	other, err := middleware.NewAuthenticator("other-secret", "propertymarket").Issue("u-1", "", entities.RoleUser, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(h, other).Code)

	wrongIssuer, err := middleware.NewAuthenticator("test-secret", "someone-else").Issue("u-1", "", entities.RoleUser, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(h, wrongIssuer).Code)

	expired, err := auth.Issue("u-1", "", entities.RoleUser, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(h, expired).Code)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": "u-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(h, none).Code)
}

func TestRequireRole(t *testing.T) {
	auth := middleware.NewAuthenticator("test-secret", "")
	h := auth.Authenticate(middleware.RequireRole(entities.RoleAdmin)(http.HandlerFunc(whoami)))

	assert.Equal(t, http.StatusUnauthorized, serve(h, "").Code)

	userToken, err := auth.Issue("u-1", "", entities.RoleUser, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(h, userToken).Code)

	adminToken, err := auth.Issue("admin-1", "", entities.RoleAdmin, time.Hour)
	require.NoError(t, err)
	rec := serve(h, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin-1:admin", rec.Body.String())
}
