package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sigefgate/internal/platform/config"
	"sigefgate/internal/platform/httpserver"
	"sigefgate/internal/platform/logger"
	platformmetrics "sigefgate/internal/platform/metrics"
	"sigefgate/internal/platform/postgres"
	"sigefgate/internal/platform/redis"
	registrybatch "sigefgate/internal/registry/batch"
	"sigefgate/internal/registry/documents"
	registrymetrics "sigefgate/internal/registry/metrics"
	"sigefgate/internal/session/lifecycle"
	sessionmetrics "sigefgate/internal/session/metrics"
	sessionmodels "sigefgate/internal/session/models"
	sessionstore "sigefgate/internal/session/store"
	"sigefgate/internal/spatial/engine"
	"sigefgate/internal/spatial/geocode"
	spatialmetrics "sigefgate/internal/spatial/metrics"
	"sigefgate/internal/spatial/normalize"
	"sigefgate/internal/spatial/partition"
	"sigefgate/internal/spatial/wfs"
	"sigefgate/pkg/fault"
)

// main wires the dependency graph and serves the gateway's operational
// endpoints plus /metrics. The interactive login flows are external
// collaborators: sessions are seeded into the store by the login tooling, and
// this process consumes them.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var sessions sessionstore.Store
	if db != nil {
		sessions = sessionstore.NewPostgres(db)
	} else {
		log.Warn("postgres not configured, using in-memory session store")
		sessions = sessionstore.NewMemory()
	}

	var geocodeStore geocode.Store
	if redisClient != nil {
		geocodeStore = geocode.NewRedis(redisClient.Client, cfg.GeocodeTTL)
	} else {
		geocodeStore = geocode.NewMemory()
	}
	geocoder := geocode.New(cfg.GeocodeBaseURL, geocodeStore, geocode.WithLogger(log))

	manager, err := lifecycle.New(sessions,
		externalLogin{layer: "identity"},
		externalLogin{layer: "registry"},
		lifecycle.WithLogger(log),
		lifecycle.WithMetrics(sessionmetrics.New()),
		lifecycle.WithProcessMetrics(platformmetrics.New()),
		lifecycle.WithReauthTimeout(cfg.ReauthTimeout),
	)
	if err != nil {
		log.Error("building session lifecycle manager", "error", err)
		os.Exit(1)
	}

	spatialEngine, err := engine.New(
		partition.Default(),
		wfs.NewPrimary(cfg.PrimaryWFSBaseURL, cfg.SpatialTimeout,
			wfs.WithPrimaryLogger(log),
			wfs.WithPrimaryMaxFeatures(cfg.MaxFeatures)),
		wfs.NewFallback(cfg.FallbackWFSBaseURL, cfg.SpatialTimeout,
			wfs.WithFallbackLogger(log),
			wfs.WithFallbackMaxFeatures(cfg.MaxFeatures)),
		normalize.New(geocoder, cfg.RegistryBaseURL),
		engine.WithLogger(log),
		engine.WithMetrics(spatialmetrics.New()),
		engine.WithRegionConcurrency(cfg.RegionConcurrency),
	)
	if err != nil {
		log.Error("building spatial engine", "error", err)
		os.Exit(1)
	}

	registryMetrics := registrymetrics.New()
	docs := documents.New(cfg.RegistryBaseURL, cfg.RegistryTimeout,
		documents.WithLogger(log),
		documents.WithMetrics(registryMetrics),
	)
	orchestrator := registrybatch.New(manager, docs,
		registrybatch.WithLogger(log),
		registrybatch.WithMetrics(registryMetrics),
		registrybatch.WithConcurrency(cfg.BatchConcurrency),
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	h := &handlers{engine: spatialEngine, orchestrator: orchestrator, logger: log}
	h.register(mux)
	srv := httpserver.New(cfg.Addr, mux)

	log.Info("sigefgate ready", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// externalLogin stands in for the interactive login collaborator. This
// process never drives the login portal itself; when no seeded session is
// usable the failure is surfaced as a login fault.
type externalLogin struct {
	layer string
}

func (e externalLogin) Login(context.Context) (*sessionmodels.Session, error) {
	return nil, fault.New(fault.KindLoginFailed, e.layer,
		"no interactive login flow configured; seed a session through the session store", nil)
}

func (e externalLogin) Authenticate(context.Context, *sessionmodels.Session) (*sessionmodels.Session, error) {
	return nil, fault.New(fault.KindLoginFailed, e.layer,
		"no interactive login flow configured; seed a session through the session store", nil)
}
