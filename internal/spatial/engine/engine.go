// Package engine orchestrates the two spatial backends: per-region fan-out on
// the partitioned primary, single national query on the fallback, and the
// auto policy that falls back only on backend failure, never on zero results.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sigefgate/internal/spatial/metrics"
	"sigefgate/internal/spatial/models"
	"sigefgate/internal/spatial/normalize"
	"sigefgate/internal/spatial/partition"
	"sigefgate/pkg/fault"
)

const (
	defaultLimit             = 1000
	defaultRegionConcurrency = 4
)

// PrimaryBackend is the regionally partitioned server: one call per
// (region, layer) shard.
type PrimaryBackend interface {
	FetchRegion(ctx context.Context, region string, layer models.Layer, box models.BoundingBox) ([]models.RawFeature, error)
}

// FallbackBackend is the national server: one call covers the whole box.
type FallbackBackend interface {
	Fetch(ctx context.Context, layer models.Layer, box models.BoundingBox) ([]models.RawFeature, error)
}

// Request describes one spatial query.
type Request struct {
	Box   models.BoundingBox
	Layer models.Layer
	Mode  models.QueryMode // defaults to ModeAuto
	Limit int              // maximum merged features; 0 uses the engine default
}

// Result is a deduplicated, normalized feature list plus which backend served
// it. Regions lists the primary partitions queried; FailedRegions the subset
// whose queries failed while others succeeded.
type Result struct {
	Features      []models.ParcelFeature
	ServedBy      models.Backend
	Regions       []string
	FailedRegions []string
}

// Engine executes spatial queries against the configured backends.
type Engine struct {
	index      *partition.Index
	primary    PrimaryBackend
	fallback   FallbackBackend
	normalizer *normalize.Normalizer

	logger            *slog.Logger
	metrics           *metrics.Metrics
	regionConcurrency int
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = mx
	}
}

// WithRegionConcurrency bounds how many per-region primary queries run in
// parallel.
func WithRegionConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.regionConcurrency = n
		}
	}
}

// New constructs an Engine. Index, both backends, and the normalizer are
// required.
func New(index *partition.Index, primary PrimaryBackend, fallback FallbackBackend, normalizer *normalize.Normalizer, opts ...Option) (*Engine, error) {
	if index == nil {
		return nil, errors.New("partition index is required")
	}
	if primary == nil || fallback == nil {
		return nil, errors.New("both spatial backends are required")
	}
	if normalizer == nil {
		return nil, errors.New("normalizer is required")
	}

	e := &Engine{
		index:             index,
		primary:           primary,
		fallback:          fallback,
		normalizer:        normalizer,
		regionConcurrency: defaultRegionConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Query executes the request under its mode and returns the merged,
// normalized result. The limit is applied after merging across regions and
// backends, not per backend.
func (e *Engine) Query(ctx context.Context, req Request) (*Result, error) {
	if err := req.Box.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bounding box: %w", err)
	}
	if _, ok := models.LayerCatalog(req.Layer); !ok {
		return nil, fmt.Errorf("unknown layer %q", req.Layer)
	}
	if req.Mode == "" {
		req.Mode = models.ModeAuto
	}
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}

	start := time.Now()
	result, err := e.query(ctx, req)
	if e.metrics != nil {
		backend := "none"
		if result != nil {
			backend = string(result.ServedBy)
		}
		e.metrics.ObserveQuery(backend, outcome(err), time.Since(start))
	}
	return result, err
}

func (e *Engine) query(ctx context.Context, req Request) (*Result, error) {
	switch req.Mode {
	case models.ModePrimary:
		return e.queryPrimary(ctx, req)
	case models.ModeFallback:
		return e.queryFallback(ctx, req)
	case models.ModeAuto:
		result, primaryErr := e.queryPrimary(ctx, req)
		if primaryErr == nil {
			return result, nil
		}
		// A cancelled caller gets the primary failure back; the fallback
		// attempt would inherit the dead context.
		if ctx.Err() != nil {
			return nil, primaryErr
		}

		if e.logger != nil {
			e.logger.WarnContext(ctx, "primary backend failed, falling back",
				"layer", string(req.Layer),
				"error", primaryErr,
			)
		}
		if e.metrics != nil {
			e.metrics.Fallbacks.Inc()
		}

		result, fallbackErr := e.queryFallback(ctx, req)
		if fallbackErr != nil {
			return nil, fault.New(fault.KindSpatialBackend, "engine", "both backends failed",
				errors.Join(fault.ErrAllBackendsFailed, primaryErr, fallbackErr))
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unknown query mode %q", req.Mode)
	}
}

// queryPrimary fans out one query per intersecting partition. Zero
// intersecting partitions is a valid empty result and issues no queries.
// Individual regional failures are tolerated as long as at least one region
// answers; all regions failing is a backend failure.
func (e *Engine) queryPrimary(ctx context.Context, req Request) (*Result, error) {
	partitions := e.index.Intersecting(req.Box)
	if len(partitions) == 0 {
		return &Result{ServedBy: models.BackendPrimary}, nil
	}

	var (
		mu         sync.Mutex
		byRegion   = make(map[int][]models.RawFeature, len(partitions))
		regionErrs = make(map[int]error)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.regionConcurrency)
	for i, p := range partitions {
		g.Go(func() error {
			if e.metrics != nil {
				e.metrics.RegionQueries.Inc()
			}
			features, err := e.primary.FetchRegion(gctx, p.QueryCode(), req.Layer, req.Box)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				regionErrs[i] = err
				return nil
			}
			byRegion[i] = features
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(regionErrs) == len(partitions) {
		errs := make([]error, 0, len(regionErrs))
		for _, err := range regionErrs {
			errs = append(errs, err)
		}
		return nil, fault.New(fault.KindSpatialBackend, "primary",
			fmt.Sprintf("all %d regional queries failed", len(partitions)), errors.Join(errs...))
	}

	result := &Result{ServedBy: models.BackendPrimary}
	var raw []models.RawFeature
	indices := make([]int, 0, len(byRegion))
	for i := range byRegion {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	for _, i := range indices {
		raw = append(raw, byRegion[i]...)
	}
	for i, p := range partitions {
		result.Regions = append(result.Regions, p.Code)
		if _, failed := regionErrs[i]; failed {
			result.FailedRegions = append(result.FailedRegions, p.Code)
			if e.logger != nil {
				e.logger.WarnContext(ctx, "regional query failed",
					"region", p.Code,
					"layer", string(req.Layer),
					"error", regionErrs[i],
				)
			}
		}
	}

	result.Features = e.merge(ctx, models.BackendPrimary, raw, req.Limit)
	return result, nil
}

func (e *Engine) queryFallback(ctx context.Context, req Request) (*Result, error) {
	raw, err := e.fallback.Fetch(ctx, req.Layer, req.Box)
	if err != nil {
		return nil, err
	}
	return &Result{
		ServedBy: models.BackendFallback,
		Features: e.merge(ctx, models.BackendFallback, raw, req.Limit),
	}, nil
}

// merge normalizes raw features, deduplicates by parcel code, and truncates
// to the limit. Features without a code cannot be matched across regions and
// are kept as-is.
func (e *Engine) merge(ctx context.Context, backend models.Backend, raw []models.RawFeature, limit int) []models.ParcelFeature {
	seen := make(map[string]struct{}, len(raw))
	var features []models.ParcelFeature
	for _, r := range raw {
		f := e.normalizer.Feature(ctx, backend, r)
		if f.ParcelCode != "" {
			if _, dup := seen[f.ParcelCode]; dup {
				continue
			}
			seen[f.ParcelCode] = struct{}{}
		}
		features = append(features, f)
		if len(features) == limit {
			break
		}
	}
	return features
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
