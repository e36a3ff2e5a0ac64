//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sigefgate/internal/session/models"
	"sigefgate/internal/session/store"
	"sigefgate/pkg/fault"
	"sigefgate/pkg/testutil/containers"
)

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    id                     UUID PRIMARY KEY,
    cpf                    TEXT NOT NULL DEFAULT '',
    name                   TEXT NOT NULL DEFAULT '',
    identity_token         TEXT NOT NULL DEFAULT '',
    identity_cookies       JSONB NOT NULL DEFAULT '[]',
    registry_cookies       JSONB NOT NULL DEFAULT '[]',
    created_at             TIMESTAMPTZ NOT NULL,
    expires_at             TIMESTAMPTZ,
    last_used_at           TIMESTAMPTZ,
    identity_authenticated BOOLEAN NOT NULL DEFAULT FALSE,
    registry_authenticated BOOLEAN NOT NULL DEFAULT FALSE
)`

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	_, err := s.postgres.DB.Exec(sessionsSchema)
	s.Require().NoError(err)
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "sessions"))
}

func (s *PostgresStoreSuite) TestLoadLatestEmpty() {
	_, err := s.store.LoadLatest(context.Background())
	s.Require().ErrorIs(err, fault.ErrNoSession)
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()

	session := models.New()
	session.CPF = "00000000191"
	session.Name = "Fulano de Tal"
	session.IdentityAuthenticated = true
	session.RegistryAuthenticated = true
	session.IdentityCookies = []models.Cookie{{Name: "sso", Value: "v1", Domain: "sso.example.gov", Path: "/"}}
	session.RegistryCookies = []models.Cookie{{Name: "sessionid", Value: "v2", Domain: "registry.example.gov", Path: "/", HTTPOnly: true}}
	expires := time.Now().Add(4 * time.Hour).UTC().Truncate(time.Microsecond)
	session.ExpiresAt = &expires

	s.Require().NoError(s.store.Save(ctx, session))

	loaded, err := s.store.LoadLatest(ctx)
	s.Require().NoError(err)
	s.Equal(session.ID, loaded.ID)
	s.Equal(session.CPF, loaded.CPF)
	s.Equal(session.IdentityCookies, loaded.IdentityCookies)
	s.Equal(session.RegistryCookies, loaded.RegistryCookies)
	s.Require().NotNil(loaded.ExpiresAt)
	s.True(expires.Equal(*loaded.ExpiresAt))
	s.True(loaded.IdentityAuthenticated)
	s.True(loaded.RegistryAuthenticated)
}

func (s *PostgresStoreSuite) TestLatestIsMostRecentlyCreated() {
	ctx := context.Background()

	older := models.New()
	older.CreatedAt = time.Now().Add(-time.Hour).UTC()
	newer := models.New()
	newer.CreatedAt = time.Now().UTC()

	s.Require().NoError(s.store.Save(ctx, newer))
	s.Require().NoError(s.store.Save(ctx, older))

	loaded, err := s.store.LoadLatest(ctx)
	s.Require().NoError(err)
	s.Equal(newer.ID, loaded.ID)
}

func (s *PostgresStoreSuite) TestSaveIsUpsert() {
	ctx := context.Background()

	session := models.New()
	s.Require().NoError(s.store.Save(ctx, session))

	session.RegistryAuthenticated = true
	session.RegistryCookies = []models.Cookie{{Name: "sessionid", Value: "rotated"}}
	s.Require().NoError(s.store.Save(ctx, session))

	loaded, err := s.store.LoadLatest(ctx)
	s.Require().NoError(err)
	s.True(loaded.RegistryAuthenticated)
	s.Equal("rotated", loaded.RegistryCookies[0].Value)
}
