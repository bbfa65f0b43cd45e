package analytics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/tabular-dev/data-api-connector/internal/testutil"
	"github.com/tabular-dev/data-api-connector/pkg/client"
	"github.com/tabular-dev/data-api-connector/pkg/connector"
	"github.com/tabular-dev/data-api-connector/pkg/normalize"
)

const sampleReport = `{
	"dimensionHeaders": [{"name": "date"}],
	"metricHeaders": [{"name": "sessions", "type": "TYPE_INTEGER"}, {"name": "bounceRate", "type": "TYPE_FLOAT"}],
	"rows": [
		{"dimensionValues": [{"value": "20260101"}], "metricValues": [{"value": "120"}, {"value": "0.42"}]},
		{"dimensionValues": [{"value": "20260102"}], "metricValues": [{"value": "95"}, {"value": "0.38"}]}
	]
}`

func newTestReporting(t *testing.T, baseURL string) *ReportingConnector {
	t.Helper()

	cfg := client.DefaultConfig(baseURL)
	cfg.APIKey = "test-token"
	cfg.MaxRequests = 1000
	cfg.Window = time.Second
	cfg.CacheResponses = false

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("New client failed: %v", err)
	}

	return NewReportingWithClient(c, "123456")
}

func TestReport(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/properties/123456:runReport", testutil.NewJSONResponse(sampleReport))

	conn := newTestReporting(t, mock.URL())

	table, err := conn.Report(context.Background(), ReportQuery{
		Metrics:    []string{"sessions", "bounceRate"},
		Dimensions: []string{"date"},
		StartDate:  "2026-01-01",
		EndDate:    "2026-01-02",
	})
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	if table.Len() != 2 {
		t.Fatalf("Expected 2 rows, got %d", table.Len())
	}

	row := table.Rows[0]
	if row["date"] != "20260101" {
		t.Errorf("Expected dimension value '20260101', got %v", row["date"])
	}
	if row["sessions"] != float64(120) {
		t.Errorf("Expected sessions 120, got %v", row["sessions"])
	}
	if row["bounceRate"] != 0.42 {
		t.Errorf("Expected bounceRate 0.42, got %v", row["bounceRate"])
	}
	if _, ok := row[normalize.RetrievedAtColumn].(time.Time); !ok {
		t.Error("Expected rows to carry a retrieved_at timestamp")
	}
}

func TestReport_RequestBody(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/properties/123456:runReport", testutil.NewJSONResponse(`{"rows": []}`))

	conn := newTestReporting(t, mock.URL())

	_, err := conn.Report(context.Background(), ReportQuery{
		Metrics:    []string{"sessions"},
		Dimensions: []string{"country"},
		StartDate:  "7daysAgo",
		EndDate:    "today",
	})
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(mock.GetLastRequestBody(), &body); err != nil {
		t.Fatalf("Request body is not JSON: %v", err)
	}

	ranges, ok := body["dateRanges"].([]any)
	if !ok || len(ranges) != 1 {
		t.Fatalf("Expected one date range, got %v", body["dateRanges"])
	}
	r := ranges[0].(map[string]any)
	if r["startDate"] != "7daysAgo" || r["endDate"] != "today" {
		t.Errorf("Unexpected date range: %v", r)
	}

	metrics := body["metrics"].([]any)
	if len(metrics) != 1 || metrics[0].(map[string]any)["name"] != "sessions" {
		t.Errorf("Unexpected metrics: %v", metrics)
	}
	dimensions := body["dimensions"].([]any)
	if len(dimensions) != 1 || dimensions[0].(map[string]any)["name"] != "country" {
		t.Errorf("Unexpected dimensions: %v", dimensions)
	}

	if got := mock.LastRequestHeader.Get("Authorization"); got != "Bearer test-token" {
		t.Errorf("Expected bearer auth header, got %q", got)
	}
}

func TestReport_Defaults(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/properties/123456:runReport", testutil.NewJSONResponse(`{"rows": []}`))

	conn := newTestReporting(t, mock.URL())

	if _, err := conn.Report(context.Background(), ReportQuery{Metrics: []string{"sessions"}}); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(mock.GetLastRequestBody(), &body); err != nil {
		t.Fatalf("Request body is not JSON: %v", err)
	}

	r := body["dateRanges"].([]any)[0].(map[string]any)
	if r["startDate"] != "30daysAgo" || r["endDate"] != "today" {
		t.Errorf("Expected default date range, got %v", r)
	}
	dimensions := body["dimensions"].([]any)
	if len(dimensions) != 1 || dimensions[0].(map[string]any)["name"] != "date" {
		t.Errorf("Expected default date dimension, got %v", dimensions)
	}
}

func TestReport_NoMetrics(t *testing.T) {
	conn := newTestReporting(t, "http://unused.invalid")

	if _, err := conn.Report(context.Background(), ReportQuery{}); err == nil {
		t.Error("Expected error without metrics")
	}
}

func TestReport_EmptyResult(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/properties/123456:runReport", testutil.NewJSONResponse(`{"rowCount": 0}`))

	conn := newTestReporting(t, mock.URL())

	table, err := conn.Report(context.Background(), ReportQuery{Metrics: []string{"sessions"}})
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if !table.Empty() {
		t.Errorf("Expected an empty table, got %d rows", table.Len())
	}
}

func TestReporting_GetData(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/properties/123456:runReport", testutil.NewJSONResponse(sampleReport))

	conn := newTestReporting(t, mock.URL())

	// Params arrive as decoded JSON: string lists are []any.
	table, err := conn.GetData(context.Background(), map[string]any{
		"metrics":    []any{"sessions", "bounceRate"},
		"dimensions": []any{"date"},
		"start_date": "2026-01-01",
		"end_date":   "2026-01-02",
	})
	if err != nil {
		t.Fatalf("GetData failed: %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("Expected 2 rows, got %d", table.Len())
	}
}

func TestReporting_ListAvailableDatasets(t *testing.T) {
	conn := newTestReporting(t, "http://unused.invalid")

	datasets, err := conn.ListAvailableDatasets(context.Background())
	if err != nil {
		t.Fatalf("ListAvailableDatasets failed: %v", err)
	}
	if len(datasets) == 0 {
		t.Fatal("Expected a non-empty dataset catalogue")
	}

	if !connector.TestConnection(context.Background(), conn) {
		t.Error("Expected the connection test to pass on a static catalogue")
	}
}
