// Package auth issues and verifies the identity token carried in the
// "token" cookie. Tokens are stateless: nothing is recorded server side, so
// revoking one only tells the client to drop its cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/diagnosis/turneja/internal/domain"
	jwtauth "github.com/diagnosis/turneja/pkg/auth"
)

var (
	ErrTokenMissing = errors.New("token missing")
	ErrTokenInvalid = errors.New("token invalid")
)

type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CookiePolicy decides the attributes of the token cookie. Production runs
// cross-site behind TLS, so it needs Secure and SameSite=None.
type CookiePolicy struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
}

func NewCookiePolicy(name string, production bool) CookiePolicy {
	if production {
		return CookiePolicy{Name: name, Secure: true, SameSite: http.SameSiteNoneMode}
	}
	return CookiePolicy{Name: name, SameSite: http.SameSiteStrictMode}
}

// Session returns the cookie carrying token. No MaxAge is set; expiry is
// enforced when the token is verified.
func (p CookiePolicy) Session(token string) *http.Cookie {
	return &http.Cookie{
		Name:     p.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	}
}

func (p CookiePolicy) Cleared() *http.Cookie {
	return &http.Cookie{
		Name:     p.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	}
}

type TokenService struct {
	users  UserLookup
	secret string
	ttl    time.Duration
	cookie CookiePolicy
}

func NewTokenService(users UserLookup, secret string, ttl time.Duration, cookie CookiePolicy) *TokenService {
	return &TokenService{users: users, secret: secret, ttl: ttl, cookie: cookie}
}

// Issue signs a token for an existing user. A nil user with a nil error
// means no such user is registered; nothing is signed in that case.
func (s *TokenService) Issue(ctx context.Context, email, name string) (string, *domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return "", nil, nil
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return "", nil, nil
	}

	token, err := jwtauth.NewToken(user.Email, name, s.secret, s.ttl)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *TokenService) Verify(token string) (*jwtauth.Claims, error) {
	if token == "" {
		return nil, ErrTokenMissing
	}
	claims, err := jwtauth.Parse(token, s.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: no email claim", ErrTokenInvalid)
	}
	return claims, nil
}

// FromRequest reads the token cookie, falling back to a Bearer header for
// non-browser clients.
func (s *TokenService) FromRequest(r *http.Request) string {
	if c, err := r.Cookie(s.cookie.Name); err == nil && c.Value != "" {
		return c.Value
	}
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return ""
}

func (s *TokenService) Cookie(token string) *http.Cookie { return s.cookie.Session(token) }

// Revoke returns the cookie that clears the client's token. The token
// itself stays valid until it expires.
func (s *TokenService) Revoke() *http.Cookie { return s.cookie.Cleared() }
