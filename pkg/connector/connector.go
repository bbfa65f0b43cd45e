// Package connector defines the contract every concrete data-source
// connector implements, plus generic helpers built on that contract.
package connector

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/tabular-dev/data-api-connector/pkg/normalize"
)

// DatasetDescriptor describes one dataset a connector can serve.
type DatasetDescriptor struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description"`
}

// Connector is the capability set every concrete data source provides.
type Connector interface {
	// GetData fetches one dataset as a normalized table. The parameter
	// keys are connector-specific.
	GetData(ctx context.Context, params map[string]any) (*normalize.Table, error)

	// ListAvailableDatasets enumerates the datasets this connector can
	// serve.
	ListAvailableDatasets(ctx context.Context) ([]DatasetDescriptor, error)
}

// TestConnection reports whether the connector can reach its provider:
// true iff listing datasets succeeds with a non-empty result. This is
// the one place a propagated error is deliberately downgraded to a
// status; the error itself is logged.
func TestConnection(ctx context.Context, c Connector) bool {
	datasets, err := c.ListAvailableDatasets(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Connection test failed")
		return false
	}

	return len(datasets) > 0
}
