package client

import "net/http"

// BuildHeaders derives the request headers for a connector from its
// configuration. Pure function of the config; the Authorization bearer
// header is only set when an API key is present.
func BuildHeaders(cfg Config) http.Header {
	h := http.Header{}
	h.Set("User-Agent", cfg.UserAgent)
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")

	if cfg.APIKey != "" {
		h.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	return h
}
