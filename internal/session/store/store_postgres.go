package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"sigefgate/internal/session/models"
	"sigefgate/pkg/fault"
)

// PostgresStore persists sessions in PostgreSQL. A save is a single upsert
// statement, so a concurrent LoadLatest sees either the old or the new row,
// never a partial one.
//
// Schema:
//
//	CREATE TABLE sessions (
//	    id                     UUID PRIMARY KEY,
//	    cpf                    TEXT NOT NULL DEFAULT '',
//	    name                   TEXT NOT NULL DEFAULT '',
//	    identity_token         TEXT NOT NULL DEFAULT '',
//	    identity_cookies       JSONB NOT NULL DEFAULT '[]',
//	    registry_cookies       JSONB NOT NULL DEFAULT '[]',
//	    created_at             TIMESTAMPTZ NOT NULL,
//	    expires_at             TIMESTAMPTZ,
//	    last_used_at           TIMESTAMPTZ,
//	    identity_authenticated BOOLEAN NOT NULL DEFAULT FALSE,
//	    registry_authenticated BOOLEAN NOT NULL DEFAULT FALSE
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed session store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LoadLatest(ctx context.Context) (*models.Session, error) {
	query := `
		SELECT id, cpf, name, identity_token, identity_cookies, registry_cookies,
		       created_at, expires_at, last_used_at,
		       identity_authenticated, registry_authenticated
		FROM sessions
		ORDER BY created_at DESC
		LIMIT 1
	`
	var (
		session         models.Session
		identityCookies []byte
		registryCookies []byte
		expiresAt       sql.NullTime
		lastUsedAt      sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query).Scan(
		&session.ID, &session.CPF, &session.Name, &session.IdentityToken,
		&identityCookies, &registryCookies,
		&session.CreatedAt, &expiresAt, &lastUsedAt,
		&session.IdentityAuthenticated, &session.RegistryAuthenticated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fault.ErrNoSession
		}
		return nil, fmt.Errorf("load latest session: %w", err)
	}

	if err := json.Unmarshal(identityCookies, &session.IdentityCookies); err != nil {
		return nil, fmt.Errorf("decode identity cookies: %w", err)
	}
	if err := json.Unmarshal(registryCookies, &session.RegistryCookies); err != nil {
		return nil, fmt.Errorf("decode registry cookies: %w", err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		session.ExpiresAt = &t
	}
	if lastUsedAt.Valid {
		t := lastUsedAt.Time
		session.LastUsedAt = &t
	}
	return &session, nil
}

func (s *PostgresStore) Save(ctx context.Context, session *models.Session) error {
	identityCookies, err := json.Marshal(session.IdentityCookies)
	if err != nil {
		return fmt.Errorf("encode identity cookies: %w", err)
	}
	registryCookies, err := json.Marshal(session.RegistryCookies)
	if err != nil {
		return fmt.Errorf("encode registry cookies: %w", err)
	}

	query := `
		INSERT INTO sessions (
			id, cpf, name, identity_token, identity_cookies, registry_cookies,
			created_at, expires_at, last_used_at,
			identity_authenticated, registry_authenticated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			cpf = EXCLUDED.cpf,
			name = EXCLUDED.name,
			identity_token = EXCLUDED.identity_token,
			identity_cookies = EXCLUDED.identity_cookies,
			registry_cookies = EXCLUDED.registry_cookies,
			expires_at = EXCLUDED.expires_at,
			last_used_at = EXCLUDED.last_used_at,
			identity_authenticated = EXCLUDED.identity_authenticated,
			registry_authenticated = EXCLUDED.registry_authenticated
	`
	_, err = s.db.ExecContext(ctx, query,
		session.ID, session.CPF, session.Name, session.IdentityToken,
		identityCookies, registryCookies,
		session.CreatedAt, nullTime(session.ExpiresAt), nullTime(session.LastUsedAt),
		session.IdentityAuthenticated, session.RegistryAuthenticated,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
