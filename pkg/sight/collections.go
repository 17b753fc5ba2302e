package sight

import (
	"context"
	"sort"

	"github.com/Sternrassler/sight-client/pkg/pagination"
	"github.com/cockroachdb/errors"
)

// ErrUnknownCollection is returned for a collection name missing from
// Collections.
var ErrUnknownCollection = errors.New("unknown collection")

// Collections maps listing names to their API paths.
var Collections = map[string]string{
	"assignments":           "/assignments",
	"bookings":              "/bookings",
	"brands":                "/brands",
	"factory-risk-profiles": factoryRiskProfilePath,
	"lab-test-reports":      "/lab-test-reports",
	"metadata/analytics":    "/metadata/analytics",
	"metadata/inspection":   "/metadata/inspection",
	"organizations":         "/organizations",
	"purchase-orders":       "/purchase-orders",
	"reports":               "/reports",
	"time-and-actions":      "/time-and-actions",
}

// CollectionNames returns the sorted keys of Collections.
func CollectionNames() []string {
	names := make([]string, 0, len(Collections))
	for name := range Collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListAllCollection aggregates the named listing. params.Filters are sent
// verbatim, without the typed defaults of the per-resource methods.
func (s *Sight) ListAllCollection(ctx context.Context, name string, params pagination.Params) ([]pagination.Page, error) {
	path, ok := Collections[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownCollection, "%q", name)
	}
	return s.listAll(ctx, path, nil, params)
}
