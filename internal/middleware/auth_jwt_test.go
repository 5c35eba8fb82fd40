package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestSignAndVerifyJWT(t *testing.T) {
	token, err := SignJWT(testSecret, "owner-1", "fr", time.Hour)
	require.NoError(t, err)

	claims, err := VerifyJWT(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.Subject)
	assert.Equal(t, "fr", claims.Locale)

	_, err = VerifyJWT("other-secret", token)
	assert.Error(t, err)
}

func TestVerifyJWTRejects(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "owner-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = VerifyJWT(testSecret, expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	noSubject, err := SignJWT(testSecret, "", "", time.Hour)
	require.NoError(t, err)
	_, err = VerifyJWT(testSecret, noSubject)
	assert.Error(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, TokenClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "x"}}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = VerifyJWT(testSecret, none)
	assert.Error(t, err)
}

func TestAuthJWTMiddleware(t *testing.T) {
	token, err := SignJWT(testSecret, "owner-9", "de", time.Hour)
	require.NoError(t, err)

	var owner, locale string
	h := AuthJWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner = OwnerIDFromContext(r.Context())
		locale = LocaleFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, status: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer abc.def.ghi", status: http.StatusUnauthorized},
		{name: "valid", header: "bearer " + token, status: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/campaigns", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)
			}
		})
	}
	assert.Equal(t, "owner-9", owner)
	assert.Equal(t, "de", locale)
}

func TestAuthJWTKeepsExplicitLocale(t *testing.T) {
	token, err := SignJWT(testSecret, "owner-9", "de", time.Hour)
	require.NoError(t, err)

	var locale string
	h := I18N("en-US", nil)(AuthJWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
	})))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Locale", "es")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "es", locale)
}
