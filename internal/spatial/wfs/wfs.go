// Package wfs implements the protocol clients for the two spatial backends.
// The primary server shards cadastral layers per region and speaks WFS 1.1.0;
// the fallback server holds national layers and speaks WFS 2.0.0. Both return
// structured feature collections. Transport, status, and parse failures are
// translated into the spatial-backend fault kind at this boundary.
package wfs

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"sigefgate/internal/spatial/models"
)

const defaultMaxFeatures = 10000

// httpDoer is the subset of http.Client the WFS clients need.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

func defaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// decodeFeatureCollection parses a feature-collection body. Empty and non-JSON
// bodies return ok=false: the primary server answers some regional layers
// with an empty page or an XML service exception, which counts as zero
// features rather than a failure.
func decodeFeatureCollection(body io.Reader, contentType string) ([]models.RawFeature, bool, error) {
	payload, err := io.ReadAll(body)
	if err != nil {
		return nil, false, err
	}
	if len(strings.TrimSpace(string(payload))) == 0 {
		return nil, false, nil
	}
	if contentType != "" && !strings.Contains(contentType, "json") {
		return nil, false, nil
	}

	var collection models.FeatureCollection
	if err := json.Unmarshal(payload, &collection); err != nil {
		return nil, false, err
	}
	return collection.Features, true, nil
}
