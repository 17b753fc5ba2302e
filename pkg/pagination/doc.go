// Package pagination aggregates offset/limit paginated Sight listings.
//
// Sight list endpoints return a page of records together with the total number
// of records matching the filters. The Coordinator turns any single-page fetch
// into a full listing in two phases:
//
//   - Probe: fetch one record (limit=1, offset=0) to learn the total
//   - Fan-out: tile [0, min(total_safe_limit, total)) into limit-sized offsets
//     and fetch every page with at most MaxConcurrency requests in flight
//
// Example usage:
//
//	coordinator := pagination.NewCoordinator(pagination.DefaultConfig())
//	pages, err := coordinator.FetchAll(ctx, fetcher, pagination.Params{
//		Limit:          100,
//		TotalSafeLimit: 5000,
//		Filters:        url.Values{"status": []string{"completed"}},
//	})
//	records := pagination.Records(pages)
//
// Pages are returned in ascending offset order regardless of completion order.
// The caller's Params.Offset is ignored: aggregation always starts at record 0.
//
// A failing page does not cancel its siblings. All scheduled fetches settle
// first, then the error of the lowest failing offset is returned and no
// partial result is produced.
//
// How the fan-out runs is pluggable through Executor. WorkerPool drains an
// index queue with a fixed set of goroutines; Gather starts one goroutine per
// page and gates them with a weighted semaphore.
package pagination
