package models

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionValidity(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	t.Run("expired session is invalid regardless of flags", func(t *testing.T) {
		session := New()
		session.IdentityAuthenticated = true
		session.RegistryAuthenticated = true
		past := now.Add(-time.Second)
		session.ExpiresAt = &past

		assert.False(t, session.IsValid(now))
	})

	t.Run("unauthenticated session is invalid", func(t *testing.T) {
		session := New()
		future := now.Add(time.Hour)
		session.ExpiresAt = &future

		assert.False(t, session.IsValid(now))
	})

	t.Run("session without expiry never expires by clock", func(t *testing.T) {
		session := New()
		session.IdentityAuthenticated = true

		assert.True(t, session.IsValid(now.Add(1000*time.Hour)))
	})

	t.Run("authenticated unexpired session is valid", func(t *testing.T) {
		session := New()
		session.IdentityAuthenticated = true
		future := now.Add(time.Hour)
		session.ExpiresAt = &future

		assert.True(t, session.IsValid(now))
	})
}

func TestSessionTouch(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	session := New()
	require.Nil(t, session.LastUsedAt)

	session.Touch(now)
	require.NotNil(t, session.LastUsedAt)
	assert.Equal(t, now, *session.LastUsedAt)
}

func TestCookieHeader(t *testing.T) {
	session := New()
	session.IdentityCookies = []Cookie{
		{Name: "sso_token", Value: "abc", Domain: "sso.example.gov"},
	}
	session.RegistryCookies = []Cookie{
		{Name: "sessionid", Value: "xyz", Domain: "registry.example.gov"},
		{Name: "", Value: "dropped"},
	}

	assert.Equal(t, "sso_token=abc", session.CookieHeader(PlatformIdentity))
	// Registry requests replay both bundles.
	assert.Equal(t, "sso_token=abc; sessionid=xyz", session.CookieHeader(PlatformRegistry))
}

func TestApplyIdentityToken(t *testing.T) {
	expires := time.Date(2026, 3, 14, 16, 0, 0, 0, time.UTC)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"cpf":  "00000000191",
		"name": "Fulano de Tal",
		"exp":  expires.Unix(),
	})
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)

	session := New()
	require.NoError(t, session.ApplyIdentityToken(signed))

	assert.Equal(t, "00000000191", session.CPF)
	assert.Equal(t, "Fulano de Tal", session.Name)
	require.NotNil(t, session.ExpiresAt)
	assert.Equal(t, expires, *session.ExpiresAt)

	t.Run("garbage token is rejected", func(t *testing.T) {
		assert.Error(t, New().ApplyIdentityToken("not-a-jwt"))
	})
}
