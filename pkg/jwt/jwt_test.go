package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbsaiuk/DatesHub-sub003/pkg/jwt"
)

type stateClaims struct {
	jwt.Claims
	Redirect string `json:"redirect"`
}

func (c *stateClaims) Registered() *jwt.Claims { return &c.Claims }

func TestService(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	svc, err := jwt.New([]byte("secret"), jwt.WithIssuer("dateshub"), jwt.WithClock(clock))
	require.NoError(t, err)

	t.Run("round trip subject", func(t *testing.T) {
		t.Parallel()
		token, err := svc.Issue("user_2abc", time.Hour)
		require.NoError(t, err)

		sub, err := svc.Subject(token)
		require.NoError(t, err)
		assert.Equal(t, "user_2abc", sub)
	})

	t.Run("custom claims", func(t *testing.T) {
		t.Parallel()
		claims := &stateClaims{Claims: svc.NewClaims("", time.Minute), Redirect: "/bookmarks"}
		token, err := svc.Sign(claims)
		require.NoError(t, err)

		var got stateClaims
		require.NoError(t, svc.Parse(token, &got))
		assert.Equal(t, "/bookmarks", got.Redirect)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		past, err := jwt.New([]byte("secret"), jwt.WithClock(func() time.Time { return now.Add(-2 * time.Hour) }))
		require.NoError(t, err)
		token, err := past.Issue("user_1", time.Hour)
		require.NoError(t, err)

		_, err = svc.Subject(token)
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()
		other, _ := jwt.New([]byte("other"), jwt.WithClock(clock))
		token, _ := other.Issue("user_1", time.Hour)
		_, err := svc.Subject(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		t.Parallel()
		other, _ := jwt.New([]byte("secret"), jwt.WithIssuer("someone-else"), jwt.WithClock(clock))
		token, _ := other.Issue("user_1", time.Hour)
		_, err := svc.Subject(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		t.Parallel()
		token, _ := svc.Issue("", time.Hour)
		_, err := svc.Subject(token)
		assert.ErrorIs(t, err, jwt.ErrMissingSubject)
	})

	t.Run("rejects other algorithms", func(t *testing.T) {
		t.Parallel()
		token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS512, svc.NewClaims("user_1", time.Hour)).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = svc.Subject(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Subject("not.a.token")
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}

func TestNew_MissingKey(t *testing.T) {
	t.Parallel()
	_, err := jwt.New(nil)
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)
}

func TestExtractors(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, jwt.BearerToken(r))
	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", jwt.BearerToken(r))
	r.Header.Set("Authorization", "Basic xyz")
	assert.Empty(t, jwt.BearerToken(r))

	assert.Empty(t, jwt.CookieToken(r, "__session"))
	r.AddCookie(&http.Cookie{Name: "__session", Value: "tok"})
	assert.Equal(t, "tok", jwt.CookieToken(r, "__session"))
}
