// Package documents retrieves per-parcel artifacts from the cadastral
// registry: tabular exports, the descriptive memorial, and the parcel detail
// page. The registry signals an expired session by silently redirecting to a
// login page with a 200 status, so every response is validated by content
// type as well as status code.
package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sigefgate/internal/registry/metrics"
	sessionmodels "sigefgate/internal/session/models"
	"sigefgate/pkg/fault"
)

// ArtifactKind names one downloadable artifact for a parcel.
type ArtifactKind string

const (
	// KindVertexTable is the CSV export of parcel vertices.
	KindVertexTable ArtifactKind = "tabular-vertex"

	// KindBoundaryTable is the CSV export of parcel boundary segments.
	KindBoundaryTable ArtifactKind = "tabular-boundary"

	// KindParcelTable is the CSV export of the parcel summary.
	KindParcelTable ArtifactKind = "tabular-parcel-summary"

	// KindMemorial is the descriptive memorial PDF.
	KindMemorial ArtifactKind = "descriptive-document"
)

// Kinds lists every artifact kind.
func Kinds() []ArtifactKind {
	return []ArtifactKind{KindVertexTable, KindBoundaryTable, KindParcelTable, KindMemorial}
}

// exportSegment maps a tabular kind to its path segment in the registry's
// export URLs.
var exportSegment = map[ArtifactKind]string{
	KindVertexTable:   "vertice",
	KindBoundaryTable: "limite",
	KindParcelTable:   "parcela",
}

// Artifact is one retrieved payload. Storage is the caller's concern.
type Artifact struct {
	ParcelID    string
	Kind        ArtifactKind
	ContentType string
	Payload     []byte
}

// Parcel is the summary extracted from a parcel's detail page.
type Parcel struct {
	Code         string
	Denomination *string
	AreaHa       *float64
	Municipality *string
	Region       *string
	Status       *string
}

// Parcel identifiers are lowercase hyphenated hex, 8-4-4-4-12.
var parcelCodePattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// NormalizeParcelID validates a parcel identifier against the registry's
// lexical grammar, returning the normalized (trimmed, lowercased) form.
// Malformed identifiers fail before any network access.
func NormalizeParcelID(id string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(id))
	if !parcelCodePattern.MatchString(normalized) {
		return "", fault.New(fault.KindInvalidIdentifier, "documents",
			fmt.Sprintf("malformed parcel identifier %q", id), nil)
	}
	return normalized, nil
}

// Client fetches parcel artifacts using a session's registry credentials.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = mx
	}
}

// New constructs a Client for the registry at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves one artifact for one parcel. The session's registry cookie
// bundle is replayed on the request together with browser-profile headers and
// a referer pointing at the parcel's detail page; the registry rejects bare
// programmatic fetches.
func (c *Client) Fetch(ctx context.Context, parcelID string, kind ArtifactKind, session *sessionmodels.Session) (*Artifact, error) {
	code, err := NormalizeParcelID(parcelID)
	if err != nil {
		return nil, err
	}

	var url string
	switch kind {
	case KindVertexTable, KindBoundaryTable, KindParcelTable:
		url = fmt.Sprintf("%s/geo/exportar/%s/csv/%s/", c.baseURL, exportSegment[kind], code)
	case KindMemorial:
		url = fmt.Sprintf("%s/geo/parcela/memorial/%s/", c.baseURL, code)
	default:
		return nil, fmt.Errorf("unknown artifact kind %q", kind)
	}

	body, contentType, err := c.get(ctx, url, code, kind, session)
	if err != nil {
		if c.metrics != nil {
			c.metrics.IncrementDownload(string(kind), "failure")
		}
		return nil, err
	}

	// An expired session is answered with the login page at status 200, so a
	// markup content type where a tabular or binary payload was expected
	// means the session is gone, not that the download succeeded.
	if strings.Contains(contentType, "text/html") {
		if c.metrics != nil {
			c.metrics.IncrementDownload(string(kind), "expired")
		}
		return nil, fault.New(fault.KindSessionExpired, "registry",
			fmt.Sprintf("received markup instead of %s payload", kind), nil)
	}

	if c.metrics != nil {
		c.metrics.IncrementDownload(string(kind), "success")
	}
	if c.logger != nil {
		c.logger.InfoContext(ctx, "artifact downloaded",
			"parcel", code,
			"kind", string(kind),
			"bytes", len(body),
		)
	}
	return &Artifact{
		ParcelID:    code,
		Kind:        kind,
		ContentType: contentType,
		Payload:     body,
	}, nil
}

// FetchParcel retrieves the parcel detail page and extracts its summary
// fields from the HTML tables.
func (c *Client) FetchParcel(ctx context.Context, parcelID string, session *sessionmodels.Session) (*Parcel, error) {
	code, err := NormalizeParcelID(parcelID)
	if err != nil {
		return nil, err
	}

	url := c.detailURL(code)
	body, _, err := c.get(ctx, url, code, "", session)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fault.New(fault.KindRegistry, "registry", "parsing parcel detail page", err)
	}

	parcel := &Parcel{
		Code:         code,
		Denomination: optional(tableField(doc, "denominação")),
		Status:       optional(tableField(doc, "situação")),
		AreaHa:       parseAreaText(tableField(doc, "área")),
	}
	municipality, region := municipalityField(doc)
	parcel.Municipality = optional(municipality)
	parcel.Region = optional(region)
	return parcel, nil
}

func (c *Client) detailURL(code string) string {
	return fmt.Sprintf("%s/geo/parcela/detalhe/%s/", c.baseURL, code)
}

func (c *Client) get(ctx context.Context, url, code string, kind ArtifactKind, session *sessionmodels.Session) ([]byte, string, error) {
	cookies := session.CookieHeader(sessionmodels.PlatformRegistry)
	if cookies == "" {
		return nil, "", fault.New(fault.KindSessionExpired, "registry", "session carries no registry cookies", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fault.New(fault.KindRegistry, "registry", "building request", err)
	}

	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cookie", cookies)
	req.Header.Set("Referer", c.detailURL(code))
	if kind == KindMemorial {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/pdf,*/*")
	} else {
		req.Header.Set("Accept", "text/csv,text/plain,*/*")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fault.New(fault.KindRegistry, "registry", "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", fault.New(fault.KindParcelNotFound, "registry",
			fmt.Sprintf("parcel %s does not exist", code), nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, "", fault.New(fault.KindSessionExpired, "registry",
			fmt.Sprintf("registry rejected session with status %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, "", fault.New(fault.KindRegistry, "registry",
			fmt.Sprintf("registry returned status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fault.New(fault.KindRegistry, "registry", "reading response body", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// tableField finds a <th> whose text contains the label and returns the text
// of the <td> in the same row.
func tableField(doc *goquery.Document, label string) string {
	var out string
	doc.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(th.Text()), label) {
			return true
		}
		out = strings.TrimSpace(th.Parent().Find("td").First().Text())
		return false
	})
	return out
}

// municipalityField reads the row after the "Municípios" header, which holds
// "Name - XX".
func municipalityField(doc *goquery.Document) (string, string) {
	var municipality, region string
	doc.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(th.Text()), "municípios") {
			return true
		}
		text := strings.TrimSpace(th.Parent().Next().Find("td").First().Text())
		if idx := strings.LastIndex(text, " - "); idx >= 0 {
			municipality = strings.TrimSpace(text[:idx])
			region = strings.TrimSpace(text[idx+3:])
		} else {
			municipality = text
		}
		return false
	})
	return municipality, region
}

var areaPattern = regexp.MustCompile(`([\d.,]+)\s*ha`)

// parseAreaText extracts hectares from text like "327,8232 ha" (Brazilian
// decimal formatting).
func parseAreaText(text string) *float64 {
	match := areaPattern.FindStringSubmatch(strings.ToLower(text))
	if match == nil {
		return nil
	}
	normalized := strings.ReplaceAll(match[1], ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")

	var area float64
	if _, err := fmt.Sscanf(normalized, "%f", &area); err != nil {
		return nil
	}
	return &area
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
