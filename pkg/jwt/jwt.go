// Package jwt signs and verifies HS256 tokens.
//
// Session tokens carry the identity provider's user id in "sub". The
// sign-in flow also uses short-lived tokens as OAuth state.
package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v4"
)

var (
	ErrMissingSigningKey = errors.New("jwt: missing signing key")
	ErrInvalidToken      = errors.New("jwt: invalid token")
	ErrExpiredToken      = errors.New("jwt: token is expired")
	ErrMissingSubject    = errors.New("jwt: token has no subject")
)

// Claims are the registered claims plus nothing else; embed it to add
// fields.
type Claims = gojwt.RegisteredClaims

// Service signs and parses tokens with a single HMAC key.
type Service struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer sets "iss" on issued tokens and requires it on parsed ones.
func WithIssuer(issuer string) Option {
	return func(s *Service) { s.issuer = issuer }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(key []byte, opts ...Option) (*Service, error) {
	if len(key) == 0 {
		return nil, ErrMissingSigningKey
	}
	s := &Service{key: key, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for subject valid for ttl.
func (s *Service) Issue(subject string, ttl time.Duration) (string, error) {
	claims := s.NewClaims(subject, ttl)
	return s.Sign(&claims)
}

// NewClaims fills the registered claims for subject.
func (s *Service) NewClaims(subject string, ttl time.Duration) Claims {
	now := s.now()
	return Claims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		NotBefore: gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
	}
}

// Sign encodes claims with HS256.
func (s *Service) Sign(claims gojwt.Claims) (string, error) {
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return token, nil
}

// Parse verifies token and decodes it into claims.
func (s *Service) Parse(token string, claims gojwt.Claims) error {
	parser := gojwt.NewParser(gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))

	// golang-jwt v4 reads the clock from a package variable; validate
	// ourselves so tests can inject time.
	parser.SkipClaimsValidation = true

	if _, err := parser.ParseWithClaims(token, claims, func(*gojwt.Token) (any, error) {
		return s.key, nil
	}); err != nil {
		return errors.Join(ErrInvalidToken, err)
	}

	rc, ok := registered(claims)
	if !ok {
		return nil
	}
	now := s.now()
	if !rc.VerifyExpiresAt(now, true) {
		return ErrExpiredToken
	}
	if !rc.VerifyNotBefore(now, false) {
		return ErrInvalidToken
	}
	if s.issuer != "" && !rc.VerifyIssuer(s.issuer, true) {
		return ErrInvalidToken
	}
	return nil
}

// Subject parses token and returns its non-empty "sub".
func (s *Service) Subject(token string) (string, error) {
	var claims Claims
	if err := s.Parse(token, &claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}

type registeredClaimer interface {
	Registered() *Claims
}

func registered(claims gojwt.Claims) (*Claims, bool) {
	switch c := claims.(type) {
	case *Claims:
		return c, true
	case registeredClaimer:
		return c.Registered(), true
	default:
		return nil, false
	}
}

// BearerToken returns the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// CookieToken returns the value of the named cookie.
func CookieToken(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
