package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tabular-dev/data-api-connector/pkg/client"
	"github.com/tabular-dev/data-api-connector/pkg/connector"
	"github.com/tabular-dev/data-api-connector/pkg/normalize"
)

const reportingBaseURL = "https://analyticsdata.googleapis.com/v1beta"

// ReportingConnector fetches report data from a GA4-style reporting
// API: dataset queries are POSTed as metric/dimension selections and
// results come back as a header-described value matrix.
type ReportingConnector struct {
	client     *client.Client
	propertyID string
}

var _ connector.Connector = (*ReportingConnector)(nil)

// NewReporting creates a reporting connector for one property.
func NewReporting(accessToken, propertyID string) (*ReportingConnector, error) {
	cfg := client.DefaultConfig(reportingBaseURL)
	cfg.APIKey = accessToken
	cfg.MaxRequests = 100
	cfg.Window = 100 * time.Second

	c, err := client.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create reporting client: %w", err)
	}

	return NewReportingWithClient(c, propertyID), nil
}

// NewReportingWithClient creates a reporting connector over an existing
// client, e.g. one with a shared rate limit window.
func NewReportingWithClient(c *client.Client, propertyID string) *ReportingConnector {
	return &ReportingConnector{
		client:     c,
		propertyID: propertyID,
	}
}

// ReportQuery selects metrics and dimensions over a date range. Dates
// may be absolute (YYYY-MM-DD) or relative ("30daysAgo", "today").
type ReportQuery struct {
	Metrics    []string
	Dimensions []string
	StartDate  string
	EndDate    string
}

// Report runs one report query and returns a validated table with one
// column per selected dimension and metric.
func (r *ReportingConnector) Report(ctx context.Context, q ReportQuery) (*normalize.Table, error) {
	if len(q.Metrics) == 0 {
		return nil, fmt.Errorf("at least one metric is required")
	}
	if len(q.Dimensions) == 0 {
		q.Dimensions = []string{"date"}
	}
	if q.StartDate == "" {
		q.StartDate = "30daysAgo"
	}
	if q.EndDate == "" {
		q.EndDate = "today"
	}

	body := map[string]any{
		"dateRanges": []map[string]string{
			{"startDate": q.StartDate, "endDate": q.EndDate},
		},
		"metrics":    namedList(q.Metrics),
		"dimensions": namedList(q.Dimensions),
	}

	endpoint := fmt.Sprintf("properties/%s:runReport", r.propertyID)
	resp, err := r.client.Post(ctx, endpoint, body)
	if err != nil {
		return nil, err
	}

	table, err := flattenReport(resp)
	if err != nil {
		return nil, err
	}

	return normalize.Clean(table), nil
}

// GetData implements the connector contract. Recognized parameters:
// "metrics" and "dimensions" (string lists), "start_date", "end_date".
func (r *ReportingConnector) GetData(ctx context.Context, params map[string]any) (*normalize.Table, error) {
	return r.Report(ctx, ReportQuery{
		Metrics:    stringList(params["metrics"]),
		Dimensions: stringList(params["dimensions"]),
		StartDate:  stringValue(params["start_date"]),
		EndDate:    stringValue(params["end_date"]),
	})
}

// ListAvailableDatasets enumerates the metrics and dimensions this
// connector can report on.
func (r *ReportingConnector) ListAvailableDatasets(ctx context.Context) ([]connector.DatasetDescriptor, error) {
	return []connector.DatasetDescriptor{
		{Name: "sessions", Type: "metric", Description: "Total number of sessions"},
		{Name: "users", Type: "metric", Description: "Total number of users"},
		{Name: "pageviews", Type: "metric", Description: "Total number of pageviews"},
		{Name: "bounceRate", Type: "metric", Description: "Bounce rate percentage"},
		{Name: "sessionDuration", Type: "metric", Description: "Average session duration"},
		{Name: "date", Type: "dimension", Description: "Date dimension"},
		{Name: "country", Type: "dimension", Description: "Country dimension"},
		{Name: "deviceCategory", Type: "dimension", Description: "Device category"},
		{Name: "source", Type: "dimension", Description: "Traffic source"},
		{Name: "medium", Type: "dimension", Description: "Traffic medium"},
	}, nil
}

// TrafficOverview fetches the standard per-day traffic report.
func (r *ReportingConnector) TrafficOverview(ctx context.Context, startDate, endDate string) (*normalize.Table, error) {
	return r.Report(ctx, ReportQuery{
		Metrics:    []string{"sessions", "users", "pageviews", "bounceRate", "averageSessionDuration"},
		Dimensions: []string{"date"},
		StartDate:  startDate,
		EndDate:    endDate,
	})
}

// TrafficSources fetches sessions and users grouped by source and
// medium.
func (r *ReportingConnector) TrafficSources(ctx context.Context, startDate, endDate string) (*normalize.Table, error) {
	return r.Report(ctx, ReportQuery{
		Metrics:    []string{"sessions", "users"},
		Dimensions: []string{"source", "medium"},
		StartDate:  startDate,
		EndDate:    endDate,
	})
}

// flattenReport turns the header-described value matrix of a report
// response into table rows. Dimension values stay strings; metric
// values are parsed as float64 where possible.
func flattenReport(resp any) (*normalize.Table, error) {
	report, ok := resp.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %T", normalize.ErrUnsupportedShape, resp)
	}

	rows, ok := report["rows"].([]any)
	if !ok {
		// A report without rows is a valid empty result.
		return &normalize.Table{}, nil
	}

	dimHeaders := headerNames(report["dimensionHeaders"])
	metHeaders := headerNames(report["metricHeaders"])

	out := make([]normalize.Row, 0, len(rows))
	for _, elem := range rows {
		matrix, ok := elem.(map[string]any)
		if !ok {
			continue
		}

		row := normalize.Row{}
		for i, v := range cellValues(matrix["dimensionValues"]) {
			if i >= len(dimHeaders) {
				break
			}
			row[dimHeaders[i]] = v
		}
		for i, v := range cellValues(matrix["metricValues"]) {
			if i >= len(metHeaders) {
				break
			}
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				row[metHeaders[i]] = f
			} else {
				row[metHeaders[i]] = v
			}
		}

		out = append(out, row)
	}

	return &normalize.Table{Rows: out}, nil
}

// headerNames extracts the "name" field of each header object.
func headerNames(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}

	names := make([]string, 0, len(list))
	for _, elem := range list {
		if m, ok := elem.(map[string]any); ok {
			if name, ok := m["name"].(string); ok {
				names = append(names, name)
			}
		}
	}
	return names
}

// cellValues extracts the "value" field of each cell object.
func cellValues(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}

	values := make([]string, 0, len(list))
	for _, elem := range list {
		if m, ok := elem.(map[string]any); ok {
			if value, ok := m["value"].(string); ok {
				values = append(values, value)
			}
		}
	}
	return values
}

// namedList wraps names in {"name": ...} objects as the reporting API
// expects.
func namedList(names []string) []map[string]string {
	out := make([]map[string]string, 0, len(names))
	for _, name := range names {
		out = append(out, map[string]string{"name": name})
	}
	return out
}
