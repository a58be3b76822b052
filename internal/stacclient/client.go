// Package stacclient reads scenes from a remote STAC API catalog server.
package stacclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/planetlabs/go-ogc/filter"

	"github.com/robert-malhotra/landsat-lst/internal/catalog"
	"github.com/robert-malhotra/landsat-lst/internal/imagery"
	"github.com/robert-malhotra/landsat-lst/internal/stac"
	"github.com/robert-malhotra/landsat-lst/internal/translate"
)

// DefaultPageLimit is the page size requested when none is configured.
const DefaultPageLimit = 100

// maxPages bounds how many next links a single search follows.
const maxPages = 10000

// Client implements catalog.Source over a STAC API. Catalog IDs are STAC
// collection IDs.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	pageLimit  int
	logger     *slog.Logger
}

var _ catalog.Source = (*Client)(nil)

// NewClient creates a new STAC API client.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid STAC URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid STAC URL %q: scheme and host are required", baseURL)
	}
	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		pageLimit: DefaultPageLimit,
		logger:    slog.Default(),
	}, nil
}

// WithLogger sets a custom logger for the client
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// WithPageLimit sets the number of items requested per page.
func (c *Client) WithPageLimit(n int) *Client {
	if n > 0 {
		c.pageLimit = n
	}
	return c
}

// WithHTTPClient replaces the HTTP client, e.g. with a test server's.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// searchBody is the POST /search request.
type searchBody struct {
	Collections []string          `json:"collections"`
	Intersects  json.RawMessage   `json:"intersects"`
	DateTime    string            `json:"datetime"`
	Sortby      []stac.SortbyItem `json:"sortby"`
	Limit       int               `json:"limit"`
	Filter      *filter.Filter    `json:"filter,omitempty"`
	FilterLang  string            `json:"filter-lang,omitempty"`
}

// Search lists the items matching q page by page, then returns a collection
// that downloads each item's bands asset as it is iterated.
func (c *Client) Search(ctx context.Context, q catalog.Query) (imagery.Collection, error) {
	if err := q.Validate(); err != nil {
		return imagery.Collection{}, err
	}

	items, err := c.searchItems(ctx, q)
	if err != nil {
		return imagery.Collection{}, err
	}

	c.logger.DebugContext(ctx, "STAC search completed",
		slog.String("collection", q.Catalog),
		slog.Int("item_count", len(items)),
	)

	seq := func(yield func(imagery.Scene, error) bool) {
		for _, item := range items {
			scene, err := c.fetchScene(ctx, q.Catalog, item)
			if err != nil {
				yield(imagery.Scene{}, err)
				return
			}
			if !yield(scene, nil) {
				return
			}
		}
	}
	return imagery.FromSeq(seq), nil
}

func (c *Client) searchItems(ctx context.Context, q catalog.Query) ([]*stac.Item, error) {
	geom, err := json.Marshal(q.Geometry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode geometry: %w", err)
	}

	body := searchBody{
		Collections: []string{q.Catalog},
		Intersects:  geom,
		// The query end is exclusive, STAC datetime ends are inclusive.
		DateTime: translate.FormatSTACTime(q.Start) + "/" + translate.FormatSTACTime(q.End.Add(-time.Millisecond)),
		Sortby:   []stac.SortbyItem{{Field: "datetime", Direction: stac.SortAsc}},
		Limit:    c.pageLimit,
	}
	if q.Platform != "" {
		body.Filter = PlatformFilter(q.Platform)
		body.FilterLang = "cql2-json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	page, err := c.do(ctx, http.MethodPost, c.resolve("/search"), payload)
	if err != nil {
		return nil, err
	}

	var items []*stac.Item
	seen := map[string]bool{}
	for pages := 1; ; pages++ {
		var ic stac.ItemCollection
		if err := json.Unmarshal(page, &ic); err != nil {
			return nil, fmt.Errorf("failed to decode search response: %w", err)
		}
		for _, item := range ic.Features {
			if at, err := translate.ParseSTACTime(item.Properties["datetime"]); err == nil && !q.Contains(at) {
				continue
			}
			items = append(items, item)
		}

		next := ic.NextLink()
		if next == "" || len(ic.Features) == 0 || seen[next] || pages >= maxPages {
			break
		}
		seen[next] = true

		if page, err = c.do(ctx, http.MethodGet, c.resolve(next), nil); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, _ := translate.ParseSTACTime(items[i].Properties["datetime"])
		b, _ := translate.ParseSTACTime(items[j].Properties["datetime"])
		return a.Before(b)
	})
	return items, nil
}

// PlatformFilter builds the CQL2 expression platform = name.
func PlatformFilter(platform string) *filter.Filter {
	return &filter.Filter{
		Expression: &filter.Comparison{
			Name:  "=",
			Left:  &filter.Property{Name: "platform"},
			Right: &filter.String{Value: strings.ToLower(platform)},
		},
	}
}

func (c *Client) fetchScene(ctx context.Context, catalogID string, item *stac.Item) (imagery.Scene, error) {
	asset, ok := item.Assets[stac.AssetBands]
	if !ok || asset.Href == "" {
		return imagery.Scene{}, fmt.Errorf("%w: %s", ErrMissingBands, item.Id)
	}

	data, err := c.do(ctx, http.MethodGet, c.resolve(asset.Href), nil)
	if err != nil {
		return imagery.Scene{}, fmt.Errorf("item %s: %w", item.Id, err)
	}
	var bg stac.BandGrid
	if err := json.Unmarshal(data, &bg); err != nil {
		return imagery.Scene{}, fmt.Errorf("item %s: failed to decode bands: %w", item.Id, err)
	}

	platform, _ := item.Properties["platform"].(string)
	scene, err := translate.BandGridToScene(&bg, catalogID, platform)
	if err != nil {
		return imagery.Scene{}, fmt.Errorf("item %s: %w", item.Id, err)
	}
	if scene.ID == "" {
		scene.ID = item.Id
	}
	if cloud, ok := item.Properties["eo:cloud_cover"].(float64); ok {
		scene = scene.WithCloudiness(cloud)
	}
	return scene, nil
}

// resolve makes href absolute against the base URL. Relative paths are
// taken relative to the API root.
func (c *Client) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() {
		return href
	}
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return u.String()
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "landsat-lst/1.0")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.DebugContext(ctx, "STAC request", slog.String("method", method), slog.String("url", target))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "STAC API request failed",
			slog.String("error", err.Error()),
			slog.String("url", target),
		)
		return nil, fmt.Errorf("STAC API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read STAC response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.ErrorContext(ctx, "STAC API returned non-200 status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("url", target),
			slog.String("response_body", string(data)),
		)
		return nil, fmt.Errorf("%w: %d from %s: %s", ErrUnexpectedStatus, resp.StatusCode, target, strings.TrimSpace(string(data)))
	}
	return data, nil
}
