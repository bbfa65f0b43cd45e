package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached response by endpoint and query parameters.
type Key struct {
	// Endpoint is the API endpoint path (e.g. "website/example.com/visits").
	Endpoint string

	// Params are the query parameters of the request.
	Params url.Values
}

// String generates a deterministic cache key string.
// Format: connector:endpoint:param1=val1:param2=val2
func (k Key) String() string {
	parts := []string{"connector"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.Params) > 0 {
		keys := make([]string, 0, len(k.Params))
		for key := range k.Params {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.Params.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
