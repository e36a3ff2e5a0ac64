// Package normalize merges the two spatial backends' heterogeneous feature
// shapes into one record type. Each backend labels the same field differently
// (the primary truncates property names to DBF column limits, the fallback
// uses full names), so every normalized field is resolved through an ordered
// candidate list declared per backend: first non-empty property wins.
package normalize

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"sigefgate/internal/spatial/geocode"
	"sigefgate/internal/spatial/models"
)

// mapping declares, per normalized field, the property names to try in order.
type mapping struct {
	identifier   []string
	name         []string
	municipality []string
	region       []string
	area         []string
	status       []string
	certifiedAt  []string
}

var mappings = map[models.Backend]mapping{
	models.BackendPrimary: {
		identifier:   []string{"parcela_co", "codigo", "cod_imovel", "id"},
		name:         []string{"nome_area", "denominacao", "nome"},
		municipality: []string{"municipio_", "nome_munic", "nm_municip", "municipio"},
		region:       []string{"uf_id", "sigla_uf", "sg_uf", "uf"},
		area:         []string{"area_hecta", "area_calc", "area_ha", "area"},
		status:       []string{"situacao_i", "situacao", "status"},
		certifiedAt:  []string{"dt_certifi", "data_cert", "data_certificacao"},
	},
	models.BackendFallback: {
		identifier:   []string{"parcela_codigo", "codigo", "cod_imovel", "id"},
		name:         []string{"nome_imovel", "nome_area", "denominacao", "nome"},
		municipality: []string{"municipio", "nome_munic", "municipio_"},
		region:       []string{"uf", "sigla_uf", "uf_id"},
		area:         []string{"area_ha", "area", "area_calc"},
		status:       []string{"situacao", "status"},
		certifiedAt:  []string{"data_certificacao", "data_cert"},
	},
}

// Normalizer converts raw backend features into ParcelFeatures. The geocode
// resolver is optional; without one, numeric municipality codes pass through
// unresolved.
type Normalizer struct {
	geocoder        geocode.Resolver
	registryBaseURL string
}

// New constructs a Normalizer. registryBaseURL seeds per-parcel download
// links; empty disables them.
func New(geocoder geocode.Resolver, registryBaseURL string) *Normalizer {
	return &Normalizer{geocoder: geocoder, registryBaseURL: registryBaseURL}
}

// Feature normalizes one raw feature from the given backend. Geometry and the
// original property bag pass through untouched.
func (n *Normalizer) Feature(ctx context.Context, backend models.Backend, raw models.RawFeature) models.ParcelFeature {
	m, ok := mappings[backend]
	if !ok {
		m = mappings[models.BackendFallback]
	}

	code := firstString(raw.Properties, m.identifier)
	if code == "" {
		code = raw.FeatureID()
	}

	feature := models.ParcelFeature{
		ID:          raw.FeatureID(),
		ParcelCode:  code,
		Name:        optional(firstString(raw.Properties, m.name)),
		Region:      optional(regionCode(firstValue(raw.Properties, m.region))),
		AreaHa:      parseArea(firstValue(raw.Properties, m.area)),
		Status:      optional(firstString(raw.Properties, m.status)),
		CertifiedAt: optional(firstString(raw.Properties, m.certifiedAt)),
		Geometry:    raw.Geometry,
		Properties:  raw.Properties,
	}

	feature.Municipality = optional(n.municipality(ctx, firstString(raw.Properties, m.municipality)))

	if code != "" && n.registryBaseURL != "" {
		links := models.NewDownloadLinks(n.registryBaseURL, code)
		feature.DownloadLinks = &links
	}
	return feature
}

// municipality resolves seven-digit statistical codes to names when a
// resolver is available; anything else passes through.
func (n *Normalizer) municipality(ctx context.Context, value string) string {
	if n.geocoder == nil || !isMunicipalityCode(value) {
		return value
	}
	name, err := n.geocoder.MunicipalityName(ctx, value)
	if err != nil {
		return value
	}
	return name
}

func isMunicipalityCode(value string) bool {
	if len(value) != 7 {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Two-digit statistical region codes, as the primary backend emits them.
var regionCodes = map[int]string{
	11: "RO", 12: "AC", 13: "AM", 14: "RR", 15: "PA", 16: "AP", 17: "TO",
	21: "MA", 22: "PI", 23: "CE", 24: "RN", 25: "PB", 26: "PE", 27: "AL", 28: "SE", 29: "BA",
	31: "MG", 32: "ES", 33: "RJ", 35: "SP",
	41: "PR", 42: "SC", 43: "RS",
	50: "MS", 51: "MT", 52: "GO", 53: "DF",
}

func regionCode(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			if code, ok := regionCodes[n]; ok {
				return code
			}
		}
		return v
	case float64:
		if code, ok := regionCodes[int(v)]; ok {
			return code
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// parseArea extracts an area in hectares. Values over a million are assumed
// to be square meters and converted.
func parseArea(value any) *float64 {
	var area float64
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		area = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		area = parsed
	default:
		return nil
	}

	if area > 1_000_000 {
		area = area / 10_000
	}
	area = math.Round(area*10_000) / 10_000
	return &area
}

func firstValue(props map[string]any, candidates []string) any {
	for _, key := range candidates {
		if v, ok := props[key]; ok && v != nil {
			if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
				continue
			}
			return v
		}
	}
	return nil
}

func firstString(props map[string]any, candidates []string) string {
	v := firstValue(props, candidates)
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		// Integral codes arrive as JSON numbers.
		if s == math.Trunc(s) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
