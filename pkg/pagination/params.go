package pagination

import (
	"encoding/json"
	"net/url"
	"slices"
)

// DefaultLimit is the page size used when Params.Limit is not set.
const DefaultLimit = 10

// Reserved query keys controlling pagination.
const (
	KeyOffset         = "offset"
	KeyLimit          = "limit"
	KeyTotalSafeLimit = "total_safe_limit"
)

// ReservedKeys lists every pagination control key. They are stripped from
// Params.Filters so the typed fields stay authoritative.
var ReservedKeys = []string{KeyOffset, KeyLimit, KeyTotalSafeLimit}

// Params describes one aggregated listing.
type Params struct {
	// Limit is the page size for the fan-out phase. <= 0 selects DefaultLimit.
	Limit int

	// Offset is accepted for symmetry with single-page calls but FetchAll
	// always aggregates from record 0.
	Offset int

	// TotalSafeLimit caps the number of records aggregated. <= 0 means no cap.
	TotalSafeLimit int

	// Filters carries endpoint-specific query parameters.
	Filters url.Values
}

// PageLimit returns the page size used for fan-out requests.
func (p Params) PageLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}
	return p.Limit
}

// EffectiveTotal returns how many records to aggregate given the server total.
// It never exceeds total.
func (p Params) EffectiveTotal(total int) int {
	if p.TotalSafeLimit > 0 && p.TotalSafeLimit < total {
		return p.TotalSafeLimit
	}
	return total
}

// Offsets returns 0, limit, 2*limit, ... for every offset below total.
func Offsets(total, limit int) []int {
	if total <= 0 || limit <= 0 {
		return []int{}
	}

	offsets := make([]int, 0, (total+limit-1)/limit)
	for offset := 0; offset < total; offset += limit {
		offsets = append(offsets, offset)
	}
	return offsets
}

// RemoveReservedKeys returns a copy of values without the given keys.
// The input is never modified.
func RemoveReservedKeys(values url.Values, keys ...string) url.Values {
	cleaned := make(url.Values, len(values))
	for key, vals := range values {
		if slices.Contains(keys, key) {
			continue
		}
		cleaned[key] = slices.Clone(vals)
	}
	return cleaned
}

// Page is one chunk of a listing plus the total for the whole listing.
type Page struct {
	Total int               `json:"total"`
	Data  []json.RawMessage `json:"data"`
}

// Records flattens pages into a single slice, preserving order.
func Records(pages []Page) []json.RawMessage {
	n := 0
	for _, page := range pages {
		n += len(page.Data)
	}

	records := make([]json.RawMessage, 0, n)
	for _, page := range pages {
		records = append(records, page.Data...)
	}
	return records
}
