package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseExpires(t *testing.T) {
	t.Run("max_age_preferred", func(t *testing.T) {
		h := http.Header{}
		h.Set("Cache-Control", "public, max-age=120")
		h.Set("Expires", time.Now().Add(time.Hour).Format(http.TimeFormat))

		expires, ok := ParseExpires(h)
		if !ok {
			t.Fatal("Expected an expiry")
		}

		until := time.Until(expires)
		if until < time.Minute || until > 2*time.Minute {
			t.Errorf("Expected roughly 2m from max-age, got %v", until)
		}
	})

	t.Run("expires_header", func(t *testing.T) {
		h := http.Header{}
		h.Set("Expires", time.Now().Add(time.Hour).Format(http.TimeFormat))

		expires, ok := ParseExpires(h)
		if !ok {
			t.Fatal("Expected an expiry")
		}
		if time.Until(expires) < 50*time.Minute {
			t.Errorf("Expected roughly an hour, got %v", time.Until(expires))
		}
	})

	t.Run("past_expires_is_immediately_stale", func(t *testing.T) {
		h := http.Header{}
		h.Set("Expires", time.Now().Add(-time.Hour).Format(http.TimeFormat))

		expires, ok := ParseExpires(h)
		if !ok {
			t.Fatal("Expected an expiry")
		}
		if expires.After(time.Now().Add(time.Second)) {
			t.Errorf("Expected an immediate expiry, got %v", expires)
		}
	})

	t.Run("absent", func(t *testing.T) {
		if _, ok := ParseExpires(http.Header{}); ok {
			t.Error("Expected no expiry from empty headers")
		}
	})

	t.Run("malformed_expires", func(t *testing.T) {
		h := http.Header{}
		h.Set("Expires", "not a date")
		if _, ok := ParseExpires(h); ok {
			t.Error("Expected no expiry from a malformed header")
		}
	})
}

func TestParseMaxAge(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Duration
		ok       bool
	}{
		{"simple", "max-age=60", time.Minute, true},
		{"with_directives", "public, max-age=300, must-revalidate", 5 * time.Minute, true},
		{"zero", "max-age=0", 0, true},
		{"negative", "max-age=-5", 0, false},
		{"missing", "no-store", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseMaxAge(tt.value)
			if ok != tt.ok {
				t.Fatalf("parseMaxAge(%q) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if got != tt.expected {
				t.Errorf("parseMaxAge(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestShouldRevalidate(t *testing.T) {
	if ShouldRevalidate(nil) {
		t.Error("nil entry must not be revalidatable")
	}
	if ShouldRevalidate(&Entry{}) {
		t.Error("Entry without validators must not be revalidatable")
	}
	if !ShouldRevalidate(&Entry{ETag: `"v1"`}) {
		t.Error("Entry with ETag must be revalidatable")
	}
	if !ShouldRevalidate(&Entry{LastModified: time.Now()}) {
		t.Error("Entry with Last-Modified must be revalidatable")
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	t.Run("etag_preferred", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
		entry := &Entry{ETag: `"v1"`, LastModified: time.Now()}

		AddConditionalHeaders(req, entry)

		if got := req.Header.Get("If-None-Match"); got != `"v1"` {
			t.Errorf("Expected If-None-Match, got %q", got)
		}
		if req.Header.Get("If-Modified-Since") != "" {
			t.Error("Expected ETag to win over Last-Modified")
		}
	})

	t.Run("last_modified_fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
		lastMod := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		entry := &Entry{LastModified: lastMod}

		AddConditionalHeaders(req, entry)

		if got := req.Header.Get("If-Modified-Since"); got != lastMod.Format(http.TimeFormat) {
			t.Errorf("Expected If-Modified-Since %q, got %q", lastMod.Format(http.TimeFormat), got)
		}
	})

	t.Run("no_validators", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
		AddConditionalHeaders(req, &Entry{})

		if len(req.Header.Get("If-None-Match"))+len(req.Header.Get("If-Modified-Since")) != 0 {
			t.Error("Expected no conditional headers without validators")
		}
	})
}
