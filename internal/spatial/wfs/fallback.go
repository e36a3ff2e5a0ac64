package wfs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sigefgate/internal/spatial/models"
	"sigefgate/pkg/fault"
)

// FallbackClient queries the national fallback server. Its layers are not
// partitioned, so one query covers the whole box, and it uses its own layer
// vocabulary rather than the primary's.
type FallbackClient struct {
	baseURL     string
	client      httpDoer
	maxFeatures int
	logger      *slog.Logger
}

// FallbackOption configures a FallbackClient.
type FallbackOption func(*FallbackClient)

func WithFallbackHTTPClient(client httpDoer) FallbackOption {
	return func(c *FallbackClient) {
		if client != nil {
			c.client = client
		}
	}
}

func WithFallbackLogger(logger *slog.Logger) FallbackOption {
	return func(c *FallbackClient) {
		c.logger = logger
	}
}

func WithFallbackMaxFeatures(n int) FallbackOption {
	return func(c *FallbackClient) {
		if n > 0 {
			c.maxFeatures = n
		}
	}
}

// NewFallback constructs a client for the fallback server's WFS endpoint.
func NewFallback(baseURL string, timeout time.Duration, opts ...FallbackOption) *FallbackClient {
	c := &FallbackClient{
		baseURL:     baseURL,
		client:      defaultHTTPClient(timeout),
		maxFeatures: defaultMaxFeatures,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch issues a single national GetFeature query for the layer. Unlike the
// primary, a body that is not a feature collection is a backend fault here:
// the fallback server answers every configured layer with JSON.
func (c *FallbackClient) Fetch(ctx context.Context, layer models.Layer, box models.BoundingBox) ([]models.RawFeature, error) {
	info, ok := models.LayerCatalog(layer)
	if !ok {
		return nil, fault.New(fault.KindSpatialBackend, "fallback", fmt.Sprintf("unknown layer %q", layer), nil)
	}

	params := url.Values{}
	params.Set("service", "WFS")
	params.Set("version", "2.0.0")
	params.Set("request", "GetFeature")
	params.Set("typeName", info.FallbackTypeName())
	params.Set("bbox", box.WFS()+",EPSG:4326")
	params.Set("outputFormat", "application/json")
	params.Set("srsName", "EPSG:4326")
	params.Set("maxFeatures", strconv.Itoa(c.maxFeatures))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fault.New(fault.KindSpatialBackend, "fallback", "building request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fault.New(fault.KindSpatialBackend, "fallback", "query failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fault.New(fault.KindSpatialBackend, "fallback",
			fmt.Sprintf("returned status %d", resp.StatusCode), nil)
	}

	features, parsed, err := decodeFeatureCollection(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fault.New(fault.KindSpatialBackend, "fallback", "response malformed", err)
	}
	if !parsed {
		return nil, fault.New(fault.KindSpatialBackend, "fallback", "response is not a feature collection", nil)
	}

	if c.logger != nil {
		c.logger.InfoContext(ctx, "fallback query completed",
			"layer", string(layer),
			"features", len(features),
		)
	}
	return features, nil
}
