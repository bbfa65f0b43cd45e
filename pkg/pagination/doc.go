// Package pagination fetches paginated API endpoints through a bounded
// worker pool.
//
// Data APIs commonly split large result sets over numbered pages and
// advertise the total page count on the first response. BatchFetcher
// fetches page 1 to learn that count, then fans the remaining pages out
// over a configurable number of workers. Each worker goes through the
// shared client, so rate limiting and retries apply to every page.
//
// Usage:
//
//	fetcher := pagination.NewBatchFetcher(client, pagination.DefaultConfig())
//	pages, err := fetcher.FetchAllPages(ctx, "website/example.com/top-pages")
//
// The result maps page numbers to raw response bodies. On a worker
// error the pages fetched so far are returned alongside the error, so
// callers can decide whether partial data is usable.
package pagination
