package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(expiresIn).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseToken(t *testing.T) {
	t.Parallel()

	t.Run("valid token yields the subject", func(t *testing.T) {
		token := signToken(t, testSecret, "alice", time.Hour)
		sub, err := ParseToken(testSecret, token)
		require.NoError(t, err)
		assert.Equal(t, "alice", sub)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		token := signToken(t, "other-secret", "alice", time.Hour)
		_, err := ParseToken(testSecret, token)
		assert.Error(t, err)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token := signToken(t, testSecret, "alice", -time.Minute)
		_, err := ParseToken(testSecret, token)
		assert.Error(t, err)
	})

	t.Run("missing subject is rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = ParseToken(testSecret, signed)
		assert.Error(t, err)
	})
}

func TestJWTAuth(t *testing.T) {
	t.Parallel()

	newContext := func(authorization string) (echo.Context, *httptest.ResponseRecorder) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		rec := httptest.NewRecorder()
		return e.NewContext(req, rec), rec
	}

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, UserID(c))
	}

	t.Run("authenticated request passes user id through", func(t *testing.T) {
		token := signToken(t, testSecret, "alice", time.Hour)
		c, rec := newContext("Bearer " + token)

		err := JWTAuth(testSecret)(handler)(c)
		require.NoError(t, err)
		assert.Equal(t, "alice", rec.Body.String())
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		c, _ := newContext("")
		err := JWTAuth(testSecret)(handler)(c)

		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})

	t.Run("non-bearer header is unauthorized", func(t *testing.T) {
		c, _ := newContext("Basic abc")
		err := JWTAuth(testSecret)(handler)(c)

		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		c, _ := newContext("Bearer not-a-token")
		err := JWTAuth(testSecret)(handler)(c)

		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})
}
