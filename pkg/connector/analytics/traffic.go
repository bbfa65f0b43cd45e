package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/tabular-dev/data-api-connector/pkg/client"
	"github.com/tabular-dev/data-api-connector/pkg/connector"
	"github.com/tabular-dev/data-api-connector/pkg/normalize"
	"github.com/tabular-dev/data-api-connector/pkg/pagination"
)

const trafficBaseURL = "https://api.similarweb.com/v1"

// TrafficConnector fetches traffic estimates from a Similarweb-style
// API keyed by website domain.
type TrafficConnector struct {
	client *client.Client
}

var _ connector.Connector = (*TrafficConnector)(nil)

// NewTraffic creates a traffic connector. The provider allows 100
// requests per hour on standard keys.
func NewTraffic(apiKey string) (*TrafficConnector, error) {
	cfg := client.DefaultConfig(trafficBaseURL)
	cfg.APIKey = apiKey
	cfg.MaxRequests = 100
	cfg.Window = time.Hour

	c, err := client.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create traffic client: %w", err)
	}

	return NewTrafficWithClient(c), nil
}

// NewTrafficWithClient creates a traffic connector over an existing
// client.
func NewTrafficWithClient(c *client.Client) *TrafficConnector {
	return &TrafficConnector{client: c}
}

// VisitsQuery selects a domain and reporting period. Dates use the
// provider's YYYY-MM format.
type VisitsQuery struct {
	Domain      string
	StartDate   string
	EndDate     string
	Country     string // defaults to "world"
	Granularity string // defaults to "monthly"
}

// WebsiteVisits fetches total visits for a domain over the query
// period. Every row carries the queried domain so results from several
// domains can be concatenated.
func (t *TrafficConnector) WebsiteVisits(ctx context.Context, q VisitsQuery) (*normalize.Table, error) {
	return t.fetchVisits(ctx, "total-traffic-and-engagement/visits", q)
}

// TrafficSources fetches the visit share per marketing channel for a
// domain over the query period.
func (t *TrafficConnector) TrafficSources(ctx context.Context, q VisitsQuery) (*normalize.Table, error) {
	return t.fetchVisits(ctx, "traffic-sources/overview-share", q)
}

// fetchVisits queries one visits-shaped report for a domain and
// normalizes the "visits" list into a table.
func (t *TrafficConnector) fetchVisits(ctx context.Context, report string, q VisitsQuery) (*normalize.Table, error) {
	if q.Domain == "" {
		return nil, fmt.Errorf("domain is required")
	}
	if q.Country == "" {
		q.Country = "world"
	}
	if q.Granularity == "" {
		q.Granularity = "monthly"
	}

	params := url.Values{}
	params.Set("start_date", q.StartDate)
	params.Set("end_date", q.EndDate)
	params.Set("country", q.Country)
	params.Set("granularity", q.Granularity)
	params.Set("main_domain_only", "false")

	endpoint := fmt.Sprintf("website/%s/%s", q.Domain, report)
	resp, err := t.client.Get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	body, ok := resp.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %T", normalize.ErrUnsupportedShape, resp)
	}

	visits, ok := body["visits"].([]any)
	if !ok {
		return &normalize.Table{}, nil
	}

	table, err := normalize.Normalize(visits)
	if err != nil {
		return nil, err
	}
	for _, row := range table.Rows {
		row["domain"] = q.Domain
	}

	return normalize.Clean(table), nil
}

// TopPages fetches the paginated top-pages listing for a domain,
// fanning out over all pages in parallel.
func (t *TrafficConnector) TopPages(ctx context.Context, domain string) (*normalize.Table, error) {
	if domain == "" {
		return nil, fmt.Errorf("domain is required")
	}

	endpoint := fmt.Sprintf("website/%s/top-pages", domain)
	fetcher := pagination.NewBatchFetcher(t.client, pagination.DefaultConfig())

	pages, err := fetcher.FetchAllPages(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	pageNums := make([]int, 0, len(pages))
	for num := range pages {
		pageNums = append(pageNums, num)
	}
	sort.Ints(pageNums)

	table := &normalize.Table{}
	for _, num := range pageNums {
		var body any
		if err := json.Unmarshal(pages[num], &body); err != nil {
			return nil, fmt.Errorf("decode page %d: %w", num, err)
		}

		pageTable, err := normalize.Normalize(body)
		if err != nil {
			return nil, fmt.Errorf("normalize page %d: %w", num, err)
		}
		table.Rows = append(table.Rows, pageTable.Rows...)
	}

	for _, row := range table.Rows {
		row["domain"] = domain
	}

	return normalize.Clean(table), nil
}

// GetData implements the connector contract. Recognized parameters:
// "domain", "start_date", "end_date", "country", "granularity".
func (t *TrafficConnector) GetData(ctx context.Context, params map[string]any) (*normalize.Table, error) {
	return t.WebsiteVisits(ctx, VisitsQuery{
		Domain:      stringValue(params["domain"]),
		StartDate:   stringValue(params["start_date"]),
		EndDate:     stringValue(params["end_date"]),
		Country:     stringValue(params["country"]),
		Granularity: stringValue(params["granularity"]),
	})
}

// ListAvailableDatasets enumerates the endpoints this connector wraps.
func (t *TrafficConnector) ListAvailableDatasets(ctx context.Context) ([]connector.DatasetDescriptor, error) {
	return []connector.DatasetDescriptor{
		{Name: "website_overview", Description: "Total traffic and engagement for a domain"},
		{Name: "traffic_sources", Description: "Traffic share per marketing channel"},
		{Name: "audience_interests", Description: "Categories the audience also visits"},
		{Name: "similar_sites", Description: "Domains with overlapping audiences"},
		{Name: "top_pages", Description: "Most visited pages of a domain"},
	}, nil
}
