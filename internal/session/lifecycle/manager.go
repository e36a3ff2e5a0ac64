// Package lifecycle guarantees that registry operations execute against a
// valid, registry-authenticated session, transparently repairing expired
// sessions with a bounded retry.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	platformmetrics "sigefgate/internal/platform/metrics"
	"sigefgate/internal/session/metrics"
	"sigefgate/internal/session/models"
	"sigefgate/internal/session/store"
	"sigefgate/pkg/fault"
)

// Operation is a registry call executed under a managed session.
type Operation func(ctx context.Context, session *models.Session) error

// Clock is injected for testability (defaults to time.Now).
type Clock func() time.Time

// Manager wraps registry operations with session acquisition, expiry
// detection, and a single forced re-login retry.
type Manager struct {
	store    store.Store
	identity IdentityAuthenticator
	registry RegistryAuthenticator

	logger        *slog.Logger
	metrics       *metrics.Metrics
	process       *platformmetrics.Metrics
	clock         Clock
	reauthTimeout time.Duration

	// Concurrent operations hitting expiry simultaneously share one login
	// attempt per layer instead of each triggering a browser flow.
	reauth singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mx
	}
}

// WithProcessMetrics wires the process-wide bundle so every session created
// by an identity login is counted alongside the per-domain series.
func WithProcessMetrics(mx *platformmetrics.Metrics) Option {
	return func(m *Manager) {
		m.process = mx
	}
}

func WithClock(clock Clock) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithReauthTimeout bounds each external login flow. Zero disables the bound.
func WithReauthTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.reauthTimeout = d
	}
}

// New constructs a Manager. Store and both authenticators are required.
func New(st store.Store, identity IdentityAuthenticator, registry RegistryAuthenticator, opts ...Option) (*Manager, error) {
	if st == nil {
		return nil, errors.New("session store is required")
	}
	if identity == nil {
		return nil, errors.New("identity authenticator is required")
	}
	if registry == nil {
		return nil, errors.New("registry authenticator is required")
	}

	m := &Manager{
		store:    st,
		identity: identity,
		registry: registry,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Run executes op against a valid, registry-authenticated session. If op
// signals session expiry, the manager forces a registry re-login (restarting
// from the identity login when the identity layer itself is invalid) and
// retries exactly once. A second expiry, or any login failure, surfaces to
// the caller; there is never a third attempt.
func (m *Manager) Run(ctx context.Context, op Operation) error {
	session, err := m.acquire(ctx, false)
	if err != nil {
		return err
	}

	err = op(ctx, session)
	if err == nil {
		return m.touch(ctx, session)
	}
	if !fault.IsSessionExpired(err) {
		return err
	}

	if m.metrics != nil {
		m.metrics.ExpiryRetries.Inc()
	}
	if m.logger != nil {
		m.logger.WarnContext(ctx, "session expired, forcing re-login",
			"session_id", session.ID,
		)
	}

	session, reauthErr := m.acquire(ctx, true)
	if reauthErr != nil {
		return reauthErr
	}

	err = op(ctx, session)
	if err == nil {
		return m.touch(ctx, session)
	}
	// Second expiry is terminal; the login portal is stateful and blind
	// retries risk lockout.
	return err
}

// acquire loads the latest session, rebuilding whichever authentication
// layers are missing. forceRegistry re-runs the registry login even when the
// session claims to be registry-authenticated.
func (m *Manager) acquire(ctx context.Context, forceRegistry bool) (*models.Session, error) {
	session, err := m.store.LoadLatest(ctx)
	if err != nil && !errors.Is(err, fault.ErrNoSession) {
		return nil, err
	}

	if session == nil || !session.IsValid(m.clock()) {
		session, err = m.loginIdentity(ctx)
		if err != nil {
			return nil, err
		}
		// A fresh identity session never carries registry credentials.
		forceRegistry = true
	}

	if forceRegistry || !session.RegistryAuthenticated {
		session, err = m.loginRegistry(ctx, session)
		if err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (m *Manager) loginIdentity(ctx context.Context) (*models.Session, error) {
	v, err, _ := m.reauth.Do("identity", func() (interface{}, error) {
		ctx, cancel := m.boundReauth(ctx)
		defer cancel()

		start := m.clock()
		session, err := m.identity.Login(ctx)
		if m.metrics != nil {
			m.metrics.ObserveLogin(m.clock().Sub(start))
			m.metrics.IncrementReauth("identity", outcome(err))
		}
		if err != nil {
			return nil, err
		}
		if err := m.store.Save(ctx, session); err != nil {
			return nil, err
		}
		if m.process != nil {
			m.process.IncrementSessionsCreated()
		}
		return session, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Session), nil
}

func (m *Manager) loginRegistry(ctx context.Context, session *models.Session) (*models.Session, error) {
	v, err, _ := m.reauth.Do("registry", func() (interface{}, error) {
		ctx, cancel := m.boundReauth(ctx)
		defer cancel()

		updated, err := m.registry.Authenticate(ctx, session)
		if m.metrics != nil {
			m.metrics.IncrementReauth("registry", outcome(err))
		}
		if err != nil {
			return nil, err
		}
		if err := m.store.Save(ctx, updated); err != nil {
			return nil, err
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Session), nil
}

func (m *Manager) boundReauth(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.reauthTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.reauthTimeout)
}

// touch persists the last-used timestamp. Persistence here is best-effort: a
// failed save is logged and never surfaced, because the operation itself has
// already succeeded. The record is copied before mutation; concurrent
// completions can hold the same re-logged session.
func (m *Manager) touch(ctx context.Context, session *models.Session) error {
	touched := *session
	touched.Touch(m.clock())
	if err := m.store.Save(ctx, &touched); err != nil {
		if m.logger != nil {
			m.logger.WarnContext(ctx, "failed to persist last-used timestamp",
				"session_id", session.ID,
				"error", err,
			)
		}
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
