package pagination

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCall records the arguments of one FetchPage call.
type fakeCall struct {
	Offset  int
	Limit   int
	Filters url.Values
}

// fakeFetcher serves pages from an in-memory record set.
type fakeFetcher struct {
	total    int
	delays   map[int]time.Duration
	errs     map[int]error
	probeErr error

	mu          sync.Mutex
	calls       []fakeCall
	completed   []int
	inFlight    int
	maxInFlight int
}

func newFakeFetcher(total int) *fakeFetcher {
	return &fakeFetcher{
		total:  total,
		delays: map[int]time.Duration{},
		errs:   map[int]error{},
	}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, offset, limit int, filters url.Values) (*Page, error) {
	f.mu.Lock()
	probe := len(f.calls) == 0
	f.calls = append(f.calls, fakeCall{Offset: offset, Limit: limit, Filters: filters})
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		if !probe {
			f.completed = append(f.completed, offset)
		}
		f.mu.Unlock()
	}()

	if probe && f.probeErr != nil {
		return nil, f.probeErr
	}

	if !probe {
		if d := f.delays[offset]; d > 0 {
			time.Sleep(d)
		}
		if err := f.errs[offset]; err != nil {
			return nil, err
		}
	}

	page := &Page{Total: f.total}
	for i := offset; i < offset+limit && i < f.total; i++ {
		page.Data = append(page.Data, json.RawMessage(fmt.Sprintf(`{"id":%d}`, i)))
	}
	return page, nil
}

// fanOutOffsets returns the offsets of every call after the probe.
func (f *fakeFetcher) fanOutOffsets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	offsets := []int{}
	for _, call := range f.calls[1:] {
		offsets = append(offsets, call.Offset)
	}
	return offsets
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func executors() map[string]Executor {
	return map[string]Executor{
		"worker_pool": WorkerPool{},
		"gather":      Gather{},
	}
}

func newTestCoordinator(executor Executor, maxConcurrency int) *Coordinator {
	return NewCoordinator(Config{
		MaxConcurrency: maxConcurrency,
		Executor:       executor,
	})
}

func pageOffsets(t *testing.T, pages []Page) []int {
	t.Helper()

	offsets := make([]int, 0, len(pages))
	for _, page := range pages {
		require.NotEmpty(t, page.Data)
		var record struct {
			ID int `json:"id"`
		}
		require.NoError(t, json.Unmarshal(page.Data[0], &record))
		offsets = append(offsets, record.ID)
	}
	return offsets
}

func TestFetchAll_ZeroTotal(t *testing.T) {
	for name, executor := range executors() {
		t.Run(name, func(t *testing.T) {
			fetcher := newFakeFetcher(0)
			coordinator := newTestCoordinator(executor, 5)

			pages, err := coordinator.FetchAll(context.Background(), fetcher, Params{Limit: 5})
			require.NoError(t, err)
			assert.NotNil(t, pages)
			assert.Empty(t, pages)
			assert.Equal(t, 1, fetcher.callCount())
		})
	}
}

func TestFetchAll_Tiling(t *testing.T) {
	tests := []struct {
		name           string
		total          int
		limit          int
		totalSafeLimit int
		wantOffsets    []int
	}{
		{
			name:        "exact multiple",
			total:       20,
			limit:       5,
			wantOffsets: []int{0, 5, 10, 15},
		},
		{
			name:        "partial last page",
			total:       12,
			limit:       5,
			wantOffsets: []int{0, 5, 10},
		},
		{
			name:        "single record",
			total:       1,
			limit:       100,
			wantOffsets: []int{0},
		},
		{
			name:        "default limit",
			total:       25,
			limit:       0,
			wantOffsets: []int{0, 10, 20},
		},
		{
			name:           "safe limit below total",
			total:          12,
			limit:          5,
			totalSafeLimit: 7,
			wantOffsets:    []int{0, 5},
		},
		{
			name:           "safe limit above total",
			total:          12,
			limit:          5,
			totalSafeLimit: 1000,
			wantOffsets:    []int{0, 5, 10},
		},
		{
			name:           "safe limit on page boundary",
			total:          30,
			limit:          10,
			totalSafeLimit: 20,
			wantOffsets:    []int{0, 10},
		},
	}

	for name, executor := range executors() {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				fetcher := newFakeFetcher(tt.total)
				coordinator := newTestCoordinator(executor, 3)

				pages, err := coordinator.FetchAll(context.Background(), fetcher, Params{
					Limit:          tt.limit,
					TotalSafeLimit: tt.totalSafeLimit,
				})
				require.NoError(t, err)
				require.Len(t, pages, len(tt.wantOffsets))

				assert.ElementsMatch(t, tt.wantOffsets, fetcher.fanOutOffsets())
				assert.Equal(t, tt.wantOffsets, pageOffsets(t, pages))
			})
		}
	}
}

func TestFetchAll_ConcurrencyBound(t *testing.T) {
	for name, executor := range executors() {
		for _, budget := range []int{1, 3, 7} {
			t.Run(fmt.Sprintf("%s/budget_%d", name, budget), func(t *testing.T) {
				fetcher := newFakeFetcher(100)
				for offset := 0; offset < 100; offset += 5 {
					fetcher.delays[offset] = 5 * time.Millisecond
				}
				coordinator := newTestCoordinator(executor, budget)

				pages, err := coordinator.FetchAll(context.Background(), fetcher, Params{Limit: 5})
				require.NoError(t, err)
				require.Len(t, pages, 20)

				assert.LessOrEqual(t, fetcher.maxInFlight, budget)
				assert.GreaterOrEqual(t, fetcher.maxInFlight, 1)
			})
		}
	}
}

func TestFetchAll_PreservesOffsetOrder(t *testing.T) {
	for name, executor := range executors() {
		t.Run(name, func(t *testing.T) {
			fetcher := newFakeFetcher(15)
			fetcher.delays[5] = 50 * time.Millisecond
			coordinator := newTestCoordinator(executor, 3)

			pages, err := coordinator.FetchAll(context.Background(), fetcher, Params{Limit: 5})
			require.NoError(t, err)

			// The delayed middle page completes last.
			fetcher.mu.Lock()
			completed := append([]int(nil), fetcher.completed...)
			fetcher.mu.Unlock()
			require.Len(t, completed, 3)
			assert.Equal(t, 5, completed[2])

			assert.Equal(t, []int{0, 5, 10}, pageOffsets(t, pages))
		})
	}
}

func TestFetchAll_TwelveRecordsFivePerPage(t *testing.T) {
	for name, executor := range executors() {
		t.Run(name, func(t *testing.T) {
			fetcher := newFakeFetcher(12)
			coordinator := newTestCoordinator(executor, 10)

			pages, err := coordinator.FetchAll(context.Background(), fetcher, Params{Limit: 5})
			require.NoError(t, err)

			require.Equal(t, 4, fetcher.callCount())
			assert.Equal(t, fakeCall{Offset: 0, Limit: 1, Filters: url.Values{}}, fetcher.calls[0])
			assert.ElementsMatch(t, []int{0, 5, 10}, fetcher.fanOutOffsets())

			require.Len(t, pages, 3)
			assert.Len(t, pages[0].Data, 5)
			assert.Len(t, pages[1].Data, 5)
			assert.Len(t, pages[2].Data, 2)
			assert.Len(t, Records(pages), 12)
		})
	}
}

func TestFetchAll_TotalSafeLimit(t *testing.T) {
	for name, executor := range executors() {
		t.Run(name, func(t *testing.T) {
			fetcher := newFakeFetcher(12)
			coordinator := newTestCoordinator(executor, 10)

			pages, err := coordinator.FetchAll(context.Background(), fetcher, Params{
				Limit:          5,
				TotalSafeLimit: 7,
			})
			require.NoError(t, err)

			assert.Equal(t, 3, fetcher.callCount())
			assert.ElementsMatch(t, []int{0, 5}, fetcher.fanOutOffsets())
			assert.Len(t, pages, 2)
		})
	}
}

func TestFetchAll_PageErrorAfterSiblingsSettle(t *testing.T) {
	boom := errors.New("boom")

	for name, executor := range executors() {
		t.Run(name, func(t *testing.T) {
			fetcher := newFakeFetcher(12)
			fetcher.errs[5] = boom
			fetcher.delays[10] = 30 * time.Millisecond
			coordinator := newTestCoordinator(executor, 3)

			pages, err := coordinator.FetchAll(context.Background(), fetcher, Params{Limit: 5})
			require.Error(t, err)
			assert.Nil(t, pages)

			assert.True(t, errors.Is(err, ErrPageFetchFailed))
			assert.True(t, errors.Is(err, boom))

			var pageErr *PageError
			require.True(t, errors.As(err, &pageErr))
			assert.Equal(t, 5, pageErr.Offset)
			assert.Equal(t, 5, pageErr.Limit)

			fetcher.mu.Lock()
			defer fetcher.mu.Unlock()
			assert.ElementsMatch(t, []int{0, 5, 10}, fetcher.completed)
		})
	}
}

func TestFetchAll_LowestFailingOffsetWins(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	for name, executor := range executors() {
		t.Run(name, func(t *testing.T) {
			fetcher := newFakeFetcher(30)
			fetcher.errs[10] = first
			fetcher.errs[20] = second
			fetcher.delays[10] = 20 * time.Millisecond
			coordinator := newTestCoordinator(executor, 5)

			_, err := coordinator.FetchAll(context.Background(), fetcher, Params{Limit: 10})
			require.Error(t, err)

			var pageErr *PageError
			require.True(t, errors.As(err, &pageErr))
			assert.Equal(t, 10, pageErr.Offset)
			assert.True(t, errors.Is(err, first))
		})
	}
}

func TestFetchAll_ProbeFailure(t *testing.T) {
	boom := errors.New("unauthorized")

	for name, executor := range executors() {
		t.Run(name, func(t *testing.T) {
			fetcher := newFakeFetcher(50)
			fetcher.probeErr = boom
			coordinator := newTestCoordinator(executor, 5)

			pages, err := coordinator.FetchAll(context.Background(), fetcher, Params{Limit: 5})
			require.Error(t, err)
			assert.Nil(t, pages)
			assert.True(t, errors.Is(err, ErrProbeFailed))
			assert.True(t, errors.Is(err, boom))
			assert.Equal(t, 1, fetcher.callCount())
		})
	}
}

func TestFetchAll_SentinelsMatchStandardErrors(t *testing.T) {
	boom := errors.New("boom")

	probeFetcher := newFakeFetcher(10)
	probeFetcher.probeErr = boom
	_, err := newTestCoordinator(WorkerPool{}, 2).FetchAll(context.Background(), probeFetcher, Params{})
	require.ErrorIs(t, err, ErrProbeFailed)
	assert.True(t, stderrors.Is(err, boom))
	assert.False(t, stderrors.Is(err, ErrPageFetchFailed))

	var probeErr *ProbeError
	require.True(t, stderrors.As(err, &probeErr))
	assert.Equal(t, "probe total: boom", probeErr.Error())

	pageFetcher := newFakeFetcher(10)
	pageFetcher.errs[5] = boom
	_, err = newTestCoordinator(Gather{}, 2).FetchAll(context.Background(), pageFetcher, Params{Limit: 5})
	require.ErrorIs(t, err, ErrPageFetchFailed)
	assert.True(t, stderrors.Is(err, boom))
	assert.False(t, stderrors.Is(err, ErrProbeFailed))

	wrapped := fmt.Errorf("list all /bookings: %w", err)
	assert.True(t, stderrors.Is(wrapped, ErrPageFetchFailed))
	assert.True(t, errors.Is(wrapped, ErrPageFetchFailed))
}

func TestFetchAll_Idempotent(t *testing.T) {
	for name, executor := range executors() {
		t.Run(name, func(t *testing.T) {
			coordinator := newTestCoordinator(executor, 4)
			params := Params{Limit: 3, Filters: url.Values{"status": []string{"NEW"}}}

			first, err := coordinator.FetchAll(context.Background(), newFakeFetcher(17), params)
			require.NoError(t, err)
			second, err := coordinator.FetchAll(context.Background(), newFakeFetcher(17), params)
			require.NoError(t, err)

			assert.Equal(t, first, second)
		})
	}
}

func TestFetchAll_IgnoresCallerOffsetAndStripsReservedKeys(t *testing.T) {
	fetcher := newFakeFetcher(8)
	coordinator := newTestCoordinator(WorkerPool{}, 2)

	filters := url.Values{
		"status":           []string{"completed"},
		"offset":           []string{"40"},
		"limit":            []string{"99"},
		"total_safe_limit": []string{"3"},
	}

	pages, err := coordinator.FetchAll(context.Background(), fetcher, Params{
		Limit:   4,
		Offset:  20,
		Filters: filters,
	})
	require.NoError(t, err)
	require.Len(t, pages, 2)

	want := url.Values{"status": []string{"completed"}}
	for _, call := range fetcher.calls {
		assert.Equal(t, want, call.Filters)
	}
	assert.Equal(t, 0, fetcher.calls[0].Offset)
	assert.Equal(t, 1, fetcher.calls[0].Limit)
	assert.ElementsMatch(t, []int{0, 4}, fetcher.fanOutOffsets())

	// Caller filters are left untouched.
	assert.Len(t, filters, 4)
}

func TestFetchAll_ContextCancelled(t *testing.T) {
	for name, executor := range executors() {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())

			var once sync.Once
			fetcher := PageFetcherFunc(func(ctx context.Context, offset, limit int, _ url.Values) (*Page, error) {
				if limit == 1 {
					return &Page{Total: 100}, nil
				}
				once.Do(cancel)
				<-ctx.Done()
				return nil, ctx.Err()
			})

			coordinator := newTestCoordinator(executor, 2)
			_, err := coordinator.FetchAll(ctx, fetcher, Params{Limit: 10})
			require.Error(t, err)
			assert.True(t, errors.Is(err, context.Canceled))
		})
	}
}

func TestNewCoordinator_ClampsConcurrency(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		want      int
	}{
		{"zero uses default", 0, DefaultMaxConcurrency},
		{"negative uses default", -3, DefaultMaxConcurrency},
		{"within range", 15, 15},
		{"at ceiling", MaxConcurrencyCeiling, MaxConcurrencyCeiling},
		{"above ceiling", 50, MaxConcurrencyCeiling},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coordinator := NewCoordinator(Config{MaxConcurrency: tt.requested})
			assert.Equal(t, tt.want, coordinator.MaxConcurrency())
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultMaxConcurrency, cfg.MaxConcurrency)
	assert.Equal(t, 30*time.Second, cfg.PageTimeout)
	assert.IsType(t, WorkerPool{}, cfg.Executor)
}
