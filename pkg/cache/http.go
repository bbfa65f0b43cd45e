package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTTL is the fallback TTL when no freshness header is present.
	DefaultTTL = 5 * time.Minute
)

// ParseExpires derives an expiry instant from response headers. It
// prefers Cache-Control max-age over the Expires header. The second
// return value is false when neither header yields a usable instant.
func ParseExpires(headers http.Header) (time.Time, bool) {
	if maxAge, ok := parseMaxAge(headers.Get("Cache-Control")); ok {
		return time.Now().Add(maxAge), true
	}

	expiresStr := headers.Get("Expires")
	if expiresStr == "" {
		return time.Time{}, false
	}

	expires, err := http.ParseTime(expiresStr)
	if err != nil {
		return time.Time{}, false
	}

	// Already in the past: treat as immediately stale rather than absent.
	if expires.Before(time.Now()) {
		return time.Now(), true
	}

	return expires, true
}

// parseMaxAge extracts a max-age directive from a Cache-Control value.
func parseMaxAge(cacheControl string) (time.Duration, bool) {
	if cacheControl == "" {
		return 0, false
	}

	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(directive, "max-age=") {
			continue
		}

		secs, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age="))
		if err != nil || secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}

	return 0, false
}

// ShouldRevalidate reports whether a stale entry can be refreshed with
// a conditional request instead of a full refetch.
func ShouldRevalidate(entry *Entry) bool {
	if entry == nil {
		return false
	}
	return entry.ETag != "" || !entry.LastModified.IsZero()
}

// AddConditionalHeaders adds If-None-Match (ETag) or If-Modified-Since
// headers to the request when the entry supports conditional requests.
func AddConditionalHeaders(req *http.Request, entry *Entry) {
	if entry == nil || req == nil {
		return
	}

	// Prefer ETag over Last-Modified (more accurate).
	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	} else if !entry.LastModified.IsZero() {
		req.Header.Set("If-Modified-Since", entry.LastModified.Format(http.TimeFormat))
	}
}
