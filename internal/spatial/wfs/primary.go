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

// PrimaryClient queries the regionally partitioned primary server. Each call
// targets one (region, layer) shard; callers aggregate across regions.
type PrimaryClient struct {
	baseURL     string
	client      httpDoer
	maxFeatures int
	logger      *slog.Logger
}

// PrimaryOption configures a PrimaryClient.
type PrimaryOption func(*PrimaryClient)

func WithPrimaryHTTPClient(client httpDoer) PrimaryOption {
	return func(c *PrimaryClient) {
		if client != nil {
			c.client = client
		}
	}
}

func WithPrimaryLogger(logger *slog.Logger) PrimaryOption {
	return func(c *PrimaryClient) {
		c.logger = logger
	}
}

func WithPrimaryMaxFeatures(n int) PrimaryOption {
	return func(c *PrimaryClient) {
		if n > 0 {
			c.maxFeatures = n
		}
	}
}

// NewPrimary constructs a client for the primary server's OGC endpoint.
func NewPrimary(baseURL string, timeout time.Duration, opts ...PrimaryOption) *PrimaryClient {
	c := &PrimaryClient{
		baseURL:     baseURL,
		client:      defaultHTTPClient(timeout),
		maxFeatures: defaultMaxFeatures,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRegion issues one GetFeature query for a layer's shard in the given
// region (lowercase code). An empty or non-JSON body is a valid zero-feature
// answer: the server responds that way for regions where a layer has no data.
func (c *PrimaryClient) FetchRegion(ctx context.Context, region string, layer models.Layer, box models.BoundingBox) ([]models.RawFeature, error) {
	info, ok := models.LayerCatalog(layer)
	if !ok {
		return nil, fault.New(fault.KindSpatialBackend, "primary", fmt.Sprintf("unknown layer %q", layer), nil)
	}

	params := url.Values{}
	params.Set("tema", info.PrimaryTheme(region))
	params.Set("service", "WFS")
	params.Set("version", "1.1.0")
	params.Set("request", "GetFeature")
	params.Set("typename", info.PrimaryTypeName(region))
	params.Set("bbox", box.WFS()+",EPSG:4326")
	params.Set("outputFormat", "application/json")
	params.Set("maxFeatures", strconv.Itoa(c.maxFeatures))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fault.New(fault.KindSpatialBackend, "primary", "building request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fault.New(fault.KindSpatialBackend, "primary", fmt.Sprintf("region %s query failed", region), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fault.New(fault.KindSpatialBackend, "primary",
			fmt.Sprintf("region %s returned status %d", region, resp.StatusCode), nil)
	}

	features, parsed, err := decodeFeatureCollection(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fault.New(fault.KindSpatialBackend, "primary", fmt.Sprintf("region %s response malformed", region), err)
	}
	if !parsed {
		if c.logger != nil {
			c.logger.DebugContext(ctx, "primary region returned no feature collection",
				"region", region,
				"layer", string(layer),
			)
		}
		return nil, nil
	}

	if c.logger != nil {
		c.logger.InfoContext(ctx, "primary region query completed",
			"region", region,
			"layer", string(layer),
			"features", len(features),
		)
	}
	return features, nil
}
