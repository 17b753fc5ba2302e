// Package sight exposes the Inspectorio Sight endpoints on top of the
// transport in pkg/client.
//
// Every listing has a List method returning one page and a ListAll method
// that fetches every page concurrently through a pagination.Coordinator:
//
//	c, _ := client.New(client.DefaultConfig())
//	s := sight.New(c, sight.Options{ConcurrentFetchesLimit: 15})
//	if err := s.Login(ctx, user, pass); err != nil {
//		return err
//	}
//	pages, err := s.ListAllBookings(ctx, sight.BookingsFilter{Status: sight.BookingStatusNew},
//		pagination.Params{Limit: 100, TotalSafeLimit: 5000})
//	records := pagination.Records(pages)
//
// ListAll methods ignore Params.Offset: pages always tile the listing from
// offset 0.
package sight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/sight-client/pkg/client"
	"github.com/Sternrassler/sight-client/pkg/pagination"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// Options configures a Sight API handle.
type Options struct {
	// ConcurrentFetchesLimit caps in-flight page fetches in ListAll methods.
	// Values above 20 are clamped to 20; values below 1 become 10.
	ConcurrentFetchesLimit int

	// Executor selects the fan-out strategy (default: pagination.WorkerPool).
	Executor pagination.Executor

	// PageTimeout bounds each page fetch. Zero disables the timeout.
	PageTimeout time.Duration
}

// Sight is the endpoint surface of the Inspectorio Sight API.
type Sight struct {
	client *client.Client
	pager  *pagination.Coordinator
	logger zerolog.Logger
}

// New wraps c with the Sight endpoints.
func New(c *client.Client, opts Options) *Sight {
	return &Sight{
		client: c,
		pager: pagination.NewCoordinator(pagination.Config{
			MaxConcurrency: opts.ConcurrentFetchesLimit,
			PageTimeout:    opts.PageTimeout,
			Executor:       opts.Executor,
		}),
		logger: log.With().Str("component", "sight").Logger(),
	}
}

// Client returns the underlying transport.
func (s *Sight) Client() *client.Client {
	return s.client
}

// ConcurrentFetchesLimit returns the effective fan-out budget.
func (s *Sight) ConcurrentFetchesLimit() int {
	return s.pager.MaxConcurrency()
}

// Login authenticates and stores the session token.
func (s *Sight) Login(ctx context.Context, username, password string) error {
	return s.client.Login(ctx, username, password)
}

// Close releases the transport.
func (s *Sight) Close() error {
	return s.client.Close()
}

// list fetches a single page of path.
func (s *Sight) list(ctx context.Context, path string, filters url.Values, p pagination.Params) (*pagination.Page, error) {
	query := mergeFilters(filters, p.Filters)
	query.Set(pagination.KeyOffset, strconv.Itoa(max(p.Offset, 0)))
	query.Set(pagination.KeyLimit, strconv.Itoa(p.PageLimit()))

	var page pagination.Page
	if err := s.client.Do(ctx, http.MethodGet, path, query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// listAll fetches every page of path in offset order.
func (s *Sight) listAll(ctx context.Context, path string, filters url.Values, p pagination.Params) ([]pagination.Page, error) {
	p.Filters = mergeFilters(filters, p.Filters)

	fetcher := pagination.PageFetcherFunc(func(ctx context.Context, offset, limit int, f url.Values) (*pagination.Page, error) {
		return s.list(ctx, path, f, pagination.Params{Offset: offset, Limit: limit})
	})

	pages, err := s.pager.FetchAll(ctx, fetcher, p)
	if err != nil {
		return nil, errors.Wrapf(err, "list all %s", path)
	}

	s.logger.Debug().
		Str("path", path).
		Int("pages", len(pages)).
		Msg("Listing aggregated")
	return pages, nil
}

func (s *Sight) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	var out json.RawMessage
	if err := s.client.Do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Sight) send(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var out json.RawMessage
	if err := s.client.Do(ctx, method, path, nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Sight) remove(ctx context.Context, path string) error {
	return s.client.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// mergeFilters overlays extra on base and strips pagination keys.
func mergeFilters(base, extra url.Values) url.Values {
	merged := url.Values{}
	for key, values := range base {
		merged[key] = append([]string(nil), values...)
	}
	for key, values := range extra {
		merged[key] = append([]string(nil), values...)
	}
	return pagination.RemoveReservedKeys(merged, pagination.ReservedKeys...)
}

// setIf sets key only when value is non-empty.
func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

// orDefault returns value, or fallback when value is empty.
func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// resource joins a collection path and an escaped identifier.
func resource(collection string, ids ...string) string {
	path := collection
	for _, id := range ids {
		path += "/" + url.PathEscape(id)
	}
	return path
}

// requireID rejects empty identifiers before a request is sent.
func requireID(name, id string) error {
	if err := validate.Var(id, "required"); err != nil {
		return errors.Newf("%s is required", name)
	}
	return nil
}
