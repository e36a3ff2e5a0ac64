package lifecycle

import (
	"context"

	"sigefgate/internal/session/models"
)

//go:generate mockgen -source=auth.go -destination=mocks/mocks.go -package=mocks

// IdentityAuthenticator runs the external identity-portal login flow. The
// flow is browser-driven automation against a third party; it is treated as a
// black box that either produces an identity-authenticated session or fails
// with fault.KindLoginFailed.
type IdentityAuthenticator interface {
	Login(ctx context.Context) (*models.Session, error)
}

// RegistryAuthenticator layers the registry login on top of an
// identity-authenticated session, replacing the registry credential bundle.
type RegistryAuthenticator interface {
	Authenticate(ctx context.Context, session *models.Session) (*models.Session, error)
}
