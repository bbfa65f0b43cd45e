package cache

import (
	"net/http"
	"time"
)

// Entry is a cached response.
type Entry struct {
	// Data is the response body.
	Data []byte

	// ETag for conditional requests (If-None-Match).
	ETag string

	// LastModified for conditional requests (If-Modified-Since).
	LastModified time.Time

	// Expires is when the entry becomes stale.
	Expires time.Time

	// StatusCode of the cached response.
	StatusCode int

	// Header of the cached response.
	Header http.Header

	// CachedAt is when the entry was stored.
	CachedAt time.Time
}

// NewEntry builds an entry from a fully-read response. Expiry comes
// from the Expires or Cache-Control max-age headers, falling back to
// DefaultTTL.
func NewEntry(statusCode int, header http.Header, body []byte) *Entry {
	entry := &Entry{
		Data:       body,
		ETag:       header.Get("ETag"),
		StatusCode: statusCode,
		Header:     header.Clone(),
		CachedAt:   time.Now(),
	}

	if expires, ok := ParseExpires(header); ok {
		entry.Expires = expires
	} else {
		entry.Expires = time.Now().Add(DefaultTTL)
	}

	if lastModStr := header.Get("Last-Modified"); lastModStr != "" {
		if lastMod, err := http.ParseTime(lastModStr); err == nil {
			entry.LastModified = lastMod
		}
	}

	return entry
}

// IsExpired returns true if the entry has gone stale.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until the entry goes stale, 0 when already
// stale.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
