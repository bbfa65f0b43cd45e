package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PageFetcher fetches a single page of an endpoint and reports the
// total page count advertised by the API.
type PageFetcher interface {
	FetchPage(ctx context.Context, endpoint string, pageNum int) (data []byte, totalPages int, err error)
}

// Config controls the fan-out of a BatchFetcher.
type Config struct {
	// MaxConcurrency is the number of parallel page workers.
	MaxConcurrency int

	// Timeout bounds one FetchAllPages call end to end.
	Timeout time.Duration

	// BufferSize is the capacity of the internal work and result
	// channels.
	BufferSize int
}

// DefaultConfig returns a fan-out suited to rate-limited APIs: modest
// concurrency so the limiter stays the bottleneck, not the pool.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
		BufferSize:     64,
	}
}

// pageResult carries one fetched page from a worker to the collector.
type pageResult struct {
	pageNum int
	data    []byte
	err     error
}

// BatchFetcher fetches all pages of an endpoint in parallel.
type BatchFetcher struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewBatchFetcher creates a batch fetcher over the given page source.
// Non-positive config values fall back to the defaults.
func NewBatchFetcher(fetcher PageFetcher, config Config) *BatchFetcher {
	defaults := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}

	return &BatchFetcher{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "pagination").Logger(),
	}
}

// FetchAllPages fetches every page of the endpoint, keyed by page
// number. Page 1 is fetched first to learn the total count; the rest
// fan out over the worker pool. On error the pages collected so far are
// returned alongside the error.
func (bf *BatchFetcher) FetchAllPages(ctx context.Context, endpoint string) (map[int][]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()

	first, totalPages, err := bf.fetcher.FetchPage(ctx, endpoint, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	results := map[int][]byte{1: first}
	if totalPages <= 1 {
		return results, nil
	}

	bf.logger.Debug().
		Str("endpoint", endpoint).
		Int("total_pages", totalPages).
		Int("workers", bf.config.MaxConcurrency).
		Msg("Fetching remaining pages")

	work := make(chan int, bf.config.BufferSize)
	out := make(chan pageResult, bf.config.BufferSize)

	var wg sync.WaitGroup
	for i := 0; i < bf.config.MaxConcurrency; i++ {
		wg.Add(1)
		go bf.worker(ctx, &wg, endpoint, work, out)
	}

	go func() {
		defer close(work)
		for page := 2; page <= totalPages; page++ {
			select {
			case work <- page:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	var firstErr error
	for res := range out {
		if res.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("fetch page %d: %w", res.pageNum, res.err)
				cancel()
			}
			continue
		}
		results[res.pageNum] = res.data
	}

	if firstErr != nil {
		return results, firstErr
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	return results, nil
}

// worker drains page numbers from the work channel until it closes or
// the context ends.
func (bf *BatchFetcher) worker(ctx context.Context, wg *sync.WaitGroup, endpoint string, work <-chan int, out chan<- pageResult) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case pageNum, ok := <-work:
			if !ok {
				return
			}

			data, _, err := bf.fetcher.FetchPage(ctx, endpoint, pageNum)
			select {
			case out <- pageResult{pageNum: pageNum, data: data, err: err}:
			case <-ctx.Done():
				return
			}
		}
	}
}
