package wfs_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigefgate/internal/spatial/models"
	"sigefgate/internal/spatial/wfs"
	"sigefgate/pkg/fault"
)

var testBox = models.BoundingBox{West: -49.17, South: -25.17, East: -49.15, North: -25.14}

const featureBody = `{
	"type": "FeatureCollection",
	"features": [
		{"id": "layer.1", "geometry": {"type": "Point", "coordinates": [-49.16, -25.15]},
		 "properties": {"parcela_co": "aaaa", "nome_area": "Fazenda Um"}},
		{"id": "layer.2", "geometry": {"type": "Point", "coordinates": [-49.16, -25.16]},
		 "properties": {"parcela_co": "bbbb"}}
	]
}`

func TestPrimaryFetchRegion(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(featureBody))
	}))
	defer server.Close()

	client := wfs.NewPrimary(server.URL, 5*time.Second, wfs.WithPrimaryMaxFeatures(500))
	features, err := client.FetchRegion(context.Background(), "pr", models.LayerCertifiedPrivate, testBox)
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, "layer.1", features[0].FeatureID())

	assert.Equal(t, "WFS", gotQuery["service"])
	assert.Equal(t, "1.1.0", gotQuery["version"])
	assert.Equal(t, "GetFeature", gotQuery["request"])
	assert.Equal(t, "certificada_sigef_particular_pr", gotQuery["tema"])
	assert.Equal(t, "ms:certificada_sigef_particular_pr", gotQuery["typename"])
	assert.Equal(t, "-49.17,-25.17,-49.15,-25.14,EPSG:4326", gotQuery["bbox"])
	assert.Equal(t, "application/json", gotQuery["outputFormat"])
	assert.Equal(t, "500", gotQuery["maxFeatures"])
}

func TestPrimaryTreatsNonJSONBodyAsZeroFeatures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(`<ServiceExceptionReport>layer not found</ServiceExceptionReport>`))
	}))
	defer server.Close()

	client := wfs.NewPrimary(server.URL, 5*time.Second)
	features, err := client.FetchRegion(context.Background(), "ac", models.LayerSettlement, testBox)
	require.NoError(t, err)
	assert.Empty(t, features)
}

func TestPrimaryTreatsEmptyBodyAsZeroFeatures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
	}))
	defer server.Close()

	client := wfs.NewPrimary(server.URL, 5*time.Second)
	features, err := client.FetchRegion(context.Background(), "ac", models.LayerSettlement, testBox)
	require.NoError(t, err)
	assert.Empty(t, features)
}

func TestPrimaryTranslatesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := wfs.NewPrimary(server.URL, 5*time.Second)
	_, err := client.FetchRegion(context.Background(), "pr", models.LayerCertifiedPrivate, testBox)
	require.Error(t, err)
	assert.Equal(t, fault.KindSpatialBackend, fault.KindOf(err))
}

func TestPrimaryTranslatesTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := wfs.NewPrimary(server.URL, time.Second)
	_, err := client.FetchRegion(context.Background(), "pr", models.LayerCertifiedPrivate, testBox)
	require.Error(t, err)
	assert.Equal(t, fault.KindSpatialBackend, fault.KindOf(err))
}

func TestFallbackFetch(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(featureBody))
	}))
	defer server.Close()

	client := wfs.NewFallback(server.URL, 5*time.Second)
	features, err := client.Fetch(context.Background(), models.LayerCertifiedPrivate, testBox)
	require.NoError(t, err)
	assert.Len(t, features, 2)

	assert.Equal(t, "2.0.0", gotQuery["version"])
	assert.Equal(t, "GeoINCRA:certificado_sigef_privado", gotQuery["typeName"])
	assert.Equal(t, "EPSG:4326", gotQuery["srsName"])
	assert.Equal(t, "-49.17,-25.17,-49.15,-25.14,EPSG:4326", gotQuery["bbox"])
}

func TestFallbackRejectsNonCollectionBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	client := wfs.NewFallback(server.URL, 5*time.Second)
	_, err := client.Fetch(context.Background(), models.LayerQuilombola, testBox)
	require.Error(t, err)
	assert.Equal(t, fault.KindSpatialBackend, fault.KindOf(err))
}

func TestFallbackTranslatesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := wfs.NewFallback(server.URL, 5*time.Second)
	_, err := client.Fetch(context.Background(), models.LayerCertifiedPrivate, testBox)
	require.Error(t, err)
	assert.Equal(t, fault.KindSpatialBackend, fault.KindOf(err))
}

func TestUnknownLayerRejectedWithoutNetworkCall(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	primary := wfs.NewPrimary(server.URL, 5*time.Second)
	_, err := primary.FetchRegion(context.Background(), "pr", models.Layer("bogus"), testBox)
	require.Error(t, err)

	fallback := wfs.NewFallback(server.URL, 5*time.Second)
	_, err = fallback.Fetch(context.Background(), models.Layer("bogus"), testBox)
	require.Error(t, err)

	assert.Zero(t, calls)
}
