// Package batch fans document retrieval out across many parcel identifiers,
// continuing past individual failures and reporting per-identifier outcomes.
package batch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"sigefgate/internal/registry/documents"
	"sigefgate/internal/registry/metrics"
	"sigefgate/internal/session/lifecycle"
	sessionmodels "sigefgate/internal/session/models"
)

const defaultConcurrency = 3

// Fetcher retrieves one artifact under a session.
type Fetcher interface {
	Fetch(ctx context.Context, parcelID string, kind documents.ArtifactKind, session *sessionmodels.Session) (*documents.Artifact, error)
}

// Runner executes a registry operation under session lifecycle management.
type Runner interface {
	Run(ctx context.Context, op lifecycle.Operation) error
}

// ItemResult is the outcome for one parcel identifier: either every requested
// artifact, or the failure that stopped it.
type ItemResult struct {
	ParcelID  string
	Artifacts []*documents.Artifact
	Err       error
}

// Succeeded reports whether every requested kind was retrieved.
func (r ItemResult) Succeeded() bool {
	return r.Err == nil
}

// Result aggregates a batch. Counts are computed over identifiers: an
// identifier succeeds only if all requested kinds for it succeeded.
type Result struct {
	Total     int
	Succeeded int
	Failed    int
	Items     []ItemResult
}

// Orchestrator runs batch downloads through the lifecycle manager.
type Orchestrator struct {
	runner  Runner
	fetcher Fetcher

	logger      *slog.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = mx
	}
}

// WithConcurrency bounds how many identifiers are processed in parallel. The
// registry throttles aggressive clients, so the default is deliberately low.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// New constructs an Orchestrator.
func New(runner Runner, fetcher Fetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		runner:      runner,
		fetcher:     fetcher,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Download retrieves every requested kind for every identifier. Identifiers
// run in parallel under the concurrency bound; kinds within one identifier
// run sequentially to keep the per-session request rate down. A terminal
// failure on one identifier never aborts the others.
func (o *Orchestrator) Download(ctx context.Context, ids []string, kinds []documents.ArtifactKind) (*Result, error) {
	if len(kinds) == 0 {
		kinds = documents.Kinds()
	}

	start := time.Now()
	items := make([]ItemResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			items[i] = o.downloadOne(gctx, id, kinds)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Total: len(ids), Items: items}
	for _, item := range items {
		if item.Succeeded() {
			result.Succeeded++
		} else {
			result.Failed++
		}
		if o.metrics != nil {
			o.metrics.IncrementBatchItem(outcome(item.Err))
		}
	}
	if o.metrics != nil {
		o.metrics.BatchDurations.Observe(time.Since(start).Seconds())
	}
	if o.logger != nil {
		o.logger.InfoContext(ctx, "batch download completed",
			"total", result.Total,
			"succeeded", result.Succeeded,
			"failed", result.Failed,
		)
	}
	return result, nil
}

func (o *Orchestrator) downloadOne(ctx context.Context, id string, kinds []documents.ArtifactKind) ItemResult {
	item := ItemResult{ParcelID: id}

	for _, kind := range kinds {
		var artifact *documents.Artifact
		err := o.runner.Run(ctx, func(ctx context.Context, session *sessionmodels.Session) error {
			var fetchErr error
			artifact, fetchErr = o.fetcher.Fetch(ctx, id, kind, session)
			return fetchErr
		})
		if err != nil {
			if o.logger != nil {
				o.logger.WarnContext(ctx, "artifact download failed",
					"parcel", id,
					"kind", string(kind),
					"error", err,
				)
			}
			// The original failure reason is what callers report per item.
			if item.Err == nil {
				item.Err = err
			}
			continue
		}
		item.Artifacts = append(item.Artifacts, artifact)
	}
	return item
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
