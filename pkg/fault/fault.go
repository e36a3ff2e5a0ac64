// Package fault defines the normalized failure taxonomy shared by the session
// lifecycle, the spatial query engine, and the registry document client.
// Components translate raw transport errors into one of these kinds at their
// boundary so callers can branch on kind instead of parsing messages.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	// KindSessionExpired indicates the registry rejected the session. Retryable
	// exactly once by the lifecycle manager after a forced re-login.
	KindSessionExpired Kind = "session_expired"

	// KindLoginFailed indicates the identity portal rejected or timed out the
	// login flow. Terminal, never retried.
	KindLoginFailed Kind = "login_failed"

	// KindParcelNotFound indicates the target parcel does not exist.
	KindParcelNotFound Kind = "parcel_not_found"

	// KindRegistry indicates a registry transport/server fault distinct from
	// expiry.
	KindRegistry Kind = "registry"

	// KindInvalidIdentifier indicates a parcel identifier failed the lexical
	// grammar. Raised before any network access.
	KindInvalidIdentifier Kind = "invalid_identifier"

	// KindSpatialBackend indicates a spatial backend query failure. Triggers
	// fallback under auto mode, terminal under an explicit single-backend mode.
	KindSpatialBackend Kind = "spatial_backend"
)

// Error wraps a failure with its normalized kind and the backend or component
// that produced it.
type Error struct {
	Kind       Kind
	Source     string // which backend/component produced this
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Source, e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Source, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// New creates a normalized error.
func New(kind Kind, source, message string, underlying error) *Error {
	return &Error{
		Kind:       kind,
		Source:     source,
		Message:    message,
		Underlying: underlying,
	}
}

// KindOf extracts the kind from an error, or "" if it carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsSessionExpired reports whether err is the one kind the lifecycle manager
// repairs.
func IsSessionExpired(err error) bool {
	return Is(err, KindSessionExpired)
}

// Sentinel errors for aggregate states.
var (
	// ErrAllBackendsFailed is returned when both the primary and the fallback
	// spatial backends were attempted and both failed.
	ErrAllBackendsFailed = errors.New("all spatial backends failed")

	// ErrNoSession is returned by stores when no persisted session exists.
	ErrNoSession = errors.New("no session")
)
