// Package analytics provides concrete web-analytics connectors built on
// the shared client and normalize foundation: a reporting connector for
// GA4-style report APIs and a traffic connector for Similarweb-style
// domain traffic APIs.
package analytics
