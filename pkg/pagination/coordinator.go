package pagination

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Concurrency bounds for the fan-out phase.
const (
	// DefaultMaxConcurrency is used when Config.MaxConcurrency is not set.
	DefaultMaxConcurrency = 10

	// MaxConcurrencyCeiling is the most parallel requests Sight accepts.
	MaxConcurrencyCeiling = 20
)

// Sentinels reported by FetchAll. Both the standard library's errors.Is and
// cockroachdb/errors.Is match them through the Is methods of ProbeError and
// PageError.
var (
	// ErrProbeFailed matches failures of the total-count probe.
	ErrProbeFailed = errors.New("pagination probe failed")

	// ErrPageFetchFailed matches failures of a fan-out page fetch.
	ErrPageFetchFailed = errors.New("pagination page fetch failed")
)

// PageFetcher fetches a single page. Implementations must be safe for
// concurrent use.
type PageFetcher interface {
	FetchPage(ctx context.Context, offset, limit int, filters url.Values) (*Page, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, offset, limit int, filters url.Values) (*Page, error)

// FetchPage implements PageFetcher.
func (f PageFetcherFunc) FetchPage(ctx context.Context, offset, limit int, filters url.Values) (*Page, error) {
	return f(ctx, offset, limit, filters)
}

// ProbeError reports a failed total-count probe.
type ProbeError struct {
	Err error
}

// Error implements the error interface.
func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe total: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ProbeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrProbeFailed.
func (e *ProbeError) Is(target error) bool {
	return target == ErrProbeFailed
}

// PageError reports the page whose fetch failed.
type PageError struct {
	Offset int
	Limit  int
	Err    error
}

// Error implements the error interface.
func (e *PageError) Error() string {
	return fmt.Sprintf("fetch page (offset %d, limit %d): %v", e.Offset, e.Limit, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrPageFetchFailed.
func (e *PageError) Is(target error) bool {
	return target == ErrPageFetchFailed
}

// Config holds coordinator configuration.
type Config struct {
	// MaxConcurrency is the maximum number of page fetches in flight.
	// Values above MaxConcurrencyCeiling are clamped.
	MaxConcurrency int

	// PageTimeout bounds each fan-out fetch. Zero disables the timeout.
	PageTimeout time.Duration

	// Executor runs the fan-out phase (default: WorkerPool).
	Executor Executor
}

// DefaultConfig returns the default coordinator configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: DefaultMaxConcurrency,
		PageTimeout:    30 * time.Second,
		Executor:       WorkerPool{},
	}
}

// Coordinator aggregates paginated listings. It holds no per-call state and
// can be shared between goroutines.
type Coordinator struct {
	config Config
	logger zerolog.Logger
}

// NewCoordinator creates a coordinator, clamping the concurrency budget.
func NewCoordinator(config Config) *Coordinator {
	logger := log.With().Str("component", "pagination").Logger()

	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultMaxConcurrency
	}
	if config.MaxConcurrency > MaxConcurrencyCeiling {
		logger.Warn().
			Int("requested", config.MaxConcurrency).
			Int("ceiling", MaxConcurrencyCeiling).
			Msg("Concurrency limit above ceiling, clamping")
		config.MaxConcurrency = MaxConcurrencyCeiling
	}
	if config.Executor == nil {
		config.Executor = WorkerPool{}
	}

	return &Coordinator{
		config: config,
		logger: logger,
	}
}

// MaxConcurrency returns the effective concurrency budget.
func (c *Coordinator) MaxConcurrency() int {
	return c.config.MaxConcurrency
}

// FetchAll fetches every page of a listing and returns them in offset order.
// A zero total returns an empty slice after the probe alone.
func (c *Coordinator) FetchAll(ctx context.Context, fetcher PageFetcher, params Params) ([]Page, error) {
	start := time.Now()
	filters := RemoveReservedKeys(params.Filters, ReservedKeys...)

	if params.Offset != 0 {
		c.logger.Debug().
			Int("offset", params.Offset).
			Msg("Ignoring caller offset, aggregation starts at 0")
	}

	probe, err := fetcher.FetchPage(ctx, 0, 1, filters)
	if err != nil {
		probesTotal.WithLabelValues("error").Inc()
		return nil, &ProbeError{Err: err}
	}
	probesTotal.WithLabelValues("ok").Inc()

	total := 0
	if probe != nil {
		total = probe.Total
	}
	if total <= 0 {
		c.logger.Debug().Msg("Probe reported no records")
		return []Page{}, nil
	}

	limit := params.PageLimit()
	offsets := Offsets(params.EffectiveTotal(total), limit)

	c.logger.Info().
		Int("total", total).
		Int("total_safe_limit", params.TotalSafeLimit).
		Int("limit", limit).
		Int("pages", len(offsets)).
		Int("max_concurrency", c.config.MaxConcurrency).
		Msg("Starting parallel page fetch")

	pages := make([]Page, len(offsets))
	errs := make([]error, len(offsets))

	runErr := c.config.Executor.Run(ctx, len(offsets), c.config.MaxConcurrency, func(ctx context.Context, i int) {
		pagesInFlight.Inc()
		defer pagesInFlight.Dec()

		pageCtx := ctx
		if c.config.PageTimeout > 0 {
			var cancel context.CancelFunc
			pageCtx, cancel = context.WithTimeout(ctx, c.config.PageTimeout)
			defer cancel()
		}

		page, err := fetcher.FetchPage(pageCtx, offsets[i], limit, filters)
		if err != nil {
			pageErrorsTotal.Inc()
			c.logger.Warn().
				Err(err).
				Int("offset", offsets[i]).
				Msg("Page fetch failed")
			errs[i] = err
			return
		}

		pagesFetchedTotal.Inc()
		if page != nil {
			pages[i] = *page
		}
	})

	for i, err := range errs {
		if err != nil {
			return nil, &PageError{Offset: offsets[i], Limit: limit, Err: err}
		}
	}
	if runErr != nil {
		return nil, errors.Wrap(runErr, "fan-out interrupted")
	}

	fetchDuration.Observe(time.Since(start).Seconds())
	c.logger.Info().
		Int("pages", len(pages)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return pages, nil
}
