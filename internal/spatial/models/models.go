// Package models holds the data types shared by the spatial query engine, the
// WFS protocol clients, and the feature normalizer.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Backend identifies which spatial server produced a response. The two
// backends label the same fields differently, so the normalizer is keyed by
// this value.
type Backend string

const (
	BackendPrimary  Backend = "primary"
	BackendFallback Backend = "fallback"
)

// QueryMode selects the backend strategy for a spatial query.
type QueryMode string

const (
	// ModePrimary queries only the regionally partitioned primary server.
	ModePrimary QueryMode = "primary"

	// ModeFallback queries only the single national fallback server.
	ModeFallback QueryMode = "fallback"

	// ModeAuto tries the primary first and falls back on transport or server
	// failure. Zero results from the primary is a valid outcome and does not
	// trigger the fallback.
	ModeAuto QueryMode = "auto"
)

// BoundingBox is an axis-aligned geographic box in EPSG:4326 coordinates.
type BoundingBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Validate rejects degenerate boxes before they reach a backend.
func (b BoundingBox) Validate() error {
	if b.West >= b.East {
		return fmt.Errorf("bounding box west (%v) must be less than east (%v)", b.West, b.East)
	}
	if b.South >= b.North {
		return fmt.Errorf("bounding box south (%v) must be less than north (%v)", b.South, b.North)
	}
	return nil
}

// Intersects reports axis-aligned overlap. Boxes sharing only a boundary edge
// or corner count as intersecting.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return !(b.East < other.West ||
		b.West > other.East ||
		b.North < other.South ||
		b.South > other.North)
}

// WFS renders the box in the "west,south,east,north" order the WFS bbox
// parameter expects.
func (b BoundingBox) WFS() string {
	return fmt.Sprintf("%s,%s,%s,%s",
		strconv.FormatFloat(b.West, 'f', -1, 64),
		strconv.FormatFloat(b.South, 'f', -1, 64),
		strconv.FormatFloat(b.East, 'f', -1, 64),
		strconv.FormatFloat(b.North, 'f', -1, 64))
}

// Layer names a cadastral data layer. The primary and fallback servers use
// different vocabularies for the same layer, so each entry in the catalog
// carries both.
type Layer string

const (
	LayerCertifiedPrivate Layer = "sigef_particular"
	LayerCertifiedPublic  Layer = "sigef_publico"
	LayerLegacyPrivate    Layer = "snci_privado"
	LayerLegacyPublic     Layer = "snci_publico"
	LayerSettlement       Layer = "assentamentos"
	LayerQuilombola       Layer = "quilombolas"
	LayerPendingTitle     Layer = "pendentes_titulacao"
)

// LayerInfo describes one layer's naming on each backend. The primary server
// partitions layers per region, so its names carry a region placeholder.
type LayerInfo struct {
	Title string

	primaryTheme    string // i3geo theme, per region
	primaryTypeName string // WFS typename on the primary, per region
	fallbackName    string // WFS typeName on the fallback, national
}

// PrimaryTheme returns the primary server's theme parameter for a region code
// (lowercase).
func (l LayerInfo) PrimaryTheme(region string) string {
	return fmt.Sprintf(l.primaryTheme, region)
}

// PrimaryTypeName returns the primary server's typename for a region code.
func (l LayerInfo) PrimaryTypeName(region string) string {
	return fmt.Sprintf(l.primaryTypeName, region)
}

// FallbackTypeName returns the fallback server's national layer name.
func (l LayerInfo) FallbackTypeName() string {
	return l.fallbackName
}

var layerCatalog = map[Layer]LayerInfo{
	LayerCertifiedPrivate: {
		Title:           "Imóveis Certificados SIGEF - Particular",
		primaryTheme:    "certificada_sigef_particular_%s",
		primaryTypeName: "ms:certificada_sigef_particular_%s",
		fallbackName:    "GeoINCRA:certificado_sigef_privado",
	},
	LayerCertifiedPublic: {
		Title:           "Imóveis Certificados SIGEF - Público",
		primaryTheme:    "certificada_sigef_publico_%s",
		primaryTypeName: "ms:certificada_sigef_publico_%s",
		fallbackName:    "GeoINCRA:certificado_sigef_publico",
	},
	LayerLegacyPrivate: {
		Title:           "SNCI Privado",
		primaryTheme:    "snci_privado_%s",
		primaryTypeName: "ms:snci_privado_%s",
		fallbackName:    "GeoINCRA:snci_privado",
	},
	LayerLegacyPublic: {
		Title:           "SNCI Público",
		primaryTheme:    "snci_publico_%s",
		primaryTypeName: "ms:snci_publico_%s",
		fallbackName:    "GeoINCRA:snci_publico",
	},
	LayerSettlement: {
		Title:           "Assentamentos",
		primaryTheme:    "assentamentos_%s",
		primaryTypeName: "ms:assentamentos_%s",
		fallbackName:    "GeoINCRA:assentamentos",
	},
	LayerQuilombola: {
		Title:           "Quilombolas",
		primaryTheme:    "quilombolas_%s",
		primaryTypeName: "ms:quilombolas_%s",
		fallbackName:    "GeoINCRA:quilombolas",
	},
	LayerPendingTitle: {
		Title:           "Pendentes de Titulação",
		primaryTheme:    "pendentes_titulacao_%s",
		primaryTypeName: "ms:pendentes_titulacao_%s",
		fallbackName:    "GeoINCRA:pendentes_titulacao",
	},
}

// LayerCatalog returns the info for a known layer.
func LayerCatalog(l Layer) (LayerInfo, bool) {
	info, ok := layerCatalog[l]
	return info, ok
}

// Layers lists every known layer.
func Layers() []Layer {
	return []Layer{
		LayerCertifiedPrivate,
		LayerCertifiedPublic,
		LayerLegacyPrivate,
		LayerLegacyPublic,
		LayerSettlement,
		LayerQuilombola,
		LayerPendingTitle,
	}
}

// RawFeature is one feature as returned by either backend: geometry passed
// through untouched and a property bag whose keys vary by backend.
type RawFeature struct {
	ID         any             `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

// FeatureID renders the feature-level id, which backends emit as either a
// string or a number.
func (f RawFeature) FeatureID() string {
	switch v := f.ID.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FeatureCollection is the structured response shape both backends share.
type FeatureCollection struct {
	Features []RawFeature `json:"features"`
}

// DownloadLinks carries the registry's public export URLs for a parcel.
type DownloadLinks struct {
	VertexCSV   string `json:"vertex_csv,omitempty"`
	BoundarySHP string `json:"boundary_shp,omitempty"`
	ParcelSHP   string `json:"parcel_shp,omitempty"`
	DetailPage  string `json:"detail_page,omitempty"`
}

// NewDownloadLinks builds the export links for a parcel code against a
// registry base URL.
func NewDownloadLinks(registryBaseURL, parcelCode string) DownloadLinks {
	return DownloadLinks{
		VertexCSV:   fmt.Sprintf("%s/geo/exportar/vertice/csv/%s/", registryBaseURL, parcelCode),
		BoundarySHP: fmt.Sprintf("%s/geo/exportar/limite/shp/%s/", registryBaseURL, parcelCode),
		ParcelSHP:   fmt.Sprintf("%s/geo/exportar/parcela/shp/%s/", registryBaseURL, parcelCode),
		DetailPage:  fmt.Sprintf("%s/geo/parcela/detalhe/%s/", registryBaseURL, parcelCode),
	}
}

// ParcelFeature is the normalized record produced by merging heterogeneous
// backend responses. Optional fields are nil when no candidate property
// matched.
type ParcelFeature struct {
	ID            string          `json:"id"`
	ParcelCode    string          `json:"parcel_code"`
	Name          *string         `json:"name,omitempty"`
	Municipality  *string         `json:"municipality,omitempty"`
	Region        *string         `json:"region,omitempty"`
	AreaHa        *float64        `json:"area_ha,omitempty"`
	Status        *string         `json:"status,omitempty"`
	CertifiedAt   *string         `json:"certified_at,omitempty"`
	Geometry      json.RawMessage `json:"geometry,omitempty"`
	DownloadLinks *DownloadLinks  `json:"download_links,omitempty"`
	Properties    map[string]any  `json:"properties,omitempty"`
}
