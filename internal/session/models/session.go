package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Platform identifies which credential bundle a cookie belongs to.
type Platform string

const (
	PlatformIdentity Platform = "identity"
	PlatformRegistry Platform = "registry"
)

// Cookie is one entry of an opaque credential bundle. The gateway never
// interprets cookie values; it only replays them.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"http_only"`
	Secure   bool    `json:"secure"`
}

// Session records the authentication state against the identity portal and
// the registry. Credential bundles are owned exclusively by the Session and
// replaced wholesale by the reauthentication flow.
type Session struct {
	ID uuid.UUID

	// Subject fields extracted from the identity token.
	CPF  string
	Name string

	// IdentityToken is the raw JWT issued by the identity portal. Kept for
	// claim inspection only; the gateway never verifies or issues tokens.
	IdentityToken string

	IdentityCookies []Cookie
	RegistryCookies []Cookie

	CreatedAt  time.Time
	ExpiresAt  *time.Time
	LastUsedAt *time.Time

	IdentityAuthenticated bool
	RegistryAuthenticated bool
}

// New creates an empty, unauthenticated session with a fresh identifier.
func New() *Session {
	return &Session{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
	}
}

// IsExpired reports whether the session passed its expiry timestamp. A
// session without an expiry never expires by clock.
func (s *Session) IsExpired(now time.Time) bool {
	if s.ExpiresAt == nil {
		return false
	}
	return now.After(*s.ExpiresAt)
}

// IsValid reports whether the session can be used as the base for registry
// operations: identity-authenticated and not expired.
func (s *Session) IsValid(now time.Time) bool {
	return s.IdentityAuthenticated && !s.IsExpired(now)
}

// Touch updates the last-used timestamp.
func (s *Session) Touch(now time.Time) {
	t := now.UTC()
	s.LastUsedAt = &t
}

// Cookies returns the bundle for a platform. PlatformRegistry includes the
// identity bundle as well, since the registry's cookie domain sits behind the
// identity portal's.
func (s *Session) Cookies(platform Platform) []Cookie {
	switch platform {
	case PlatformIdentity:
		return s.IdentityCookies
	case PlatformRegistry:
		out := make([]Cookie, 0, len(s.IdentityCookies)+len(s.RegistryCookies))
		out = append(out, s.IdentityCookies...)
		out = append(out, s.RegistryCookies...)
		return out
	default:
		return nil
	}
}

// CookieHeader renders a bundle as a Cookie request header value.
func (s *Session) CookieHeader(platform Platform) string {
	cookies := s.Cookies(platform)
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}

// ApplyIdentityToken extracts subject and expiry claims from the identity
// token. The signature is not verified: the gateway consumes tokens issued
// by the external portal, it is not a party to their trust chain.
func (s *Session) ApplyIdentityToken(token string) error {
	s.IdentityToken = token

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return err
	}

	if cpf, ok := claims["cpf"].(string); ok {
		s.CPF = cpf
	} else if sub, ok := claims["sub"].(string); ok {
		s.CPF = sub
	}
	if name, ok := claims["name"].(string); ok {
		s.Name = name
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.UTC()
		s.ExpiresAt = &t
	}
	return nil
}
