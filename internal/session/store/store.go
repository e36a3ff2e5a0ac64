// Package store persists authenticated sessions. The lifecycle manager only
// ever needs the most recently created identity-authenticated record, so the
// interface stays deliberately narrow.
package store

import (
	"context"

	"sigefgate/internal/session/models"
)

// Store loads and saves session records. Save must be crash-consistent: a
// concurrent LoadLatest never observes a partial record.
type Store interface {
	// LoadLatest returns the most recently created session, or
	// fault.ErrNoSession when none has been persisted.
	LoadLatest(ctx context.Context) (*models.Session, error)

	// Save persists the session, replacing any previous record with the same
	// ID. The newest saved session becomes "latest".
	Save(ctx context.Context, session *models.Session) error
}
