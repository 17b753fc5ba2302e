package sight

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/Sternrassler/sight-client/pkg/pagination"
	"github.com/cockroachdb/errors"
)

const factoryRiskProfilePath = "/analytics/factory-risk-profile"

// FactoryRiskProfilesFilter narrows a factory risk profile listing.
// DateFrom and DateTo are required.
type FactoryRiskProfilesFilter struct {
	DateFrom string `validate:"required"`
	DateTo   string `validate:"required"`
	DateType string
}

func (f FactoryRiskProfilesFilter) values() (url.Values, error) {
	if err := validate.Struct(f); err != nil {
		return nil, errors.Wrap(err, "invalid factory risk profile filter")
	}

	v := url.Values{}
	v.Set("date_from", f.DateFrom)
	v.Set("date_to", f.DateTo)
	setIf(v, "date_type", f.DateType)
	return v, nil
}

// ListFactoryRiskProfiles returns one page of factory risk profiles.
func (s *Sight) ListFactoryRiskProfiles(ctx context.Context, filter FactoryRiskProfilesFilter, page pagination.Params) (*pagination.Page, error) {
	values, err := filter.values()
	if err != nil {
		return nil, err
	}
	return s.list(ctx, factoryRiskProfilePath, values, page)
}

// ListAllFactoryRiskProfiles returns every page of factory risk profiles.
func (s *Sight) ListAllFactoryRiskProfiles(ctx context.Context, filter FactoryRiskProfilesFilter, params pagination.Params) ([]pagination.Page, error) {
	values, err := filter.values()
	if err != nil {
		return nil, err
	}
	return s.listAll(ctx, factoryRiskProfilePath, values, params)
}

// FactoryRiskProfileQuery selects the window of GetFactoryRiskProfile.
type FactoryRiskProfileQuery struct {
	DateFrom string `validate:"required"`
	DateTo   string `validate:"required"`
	ClientID string
}

// GetFactoryRiskProfile returns the risk profile of one factory.
func (s *Sight) GetFactoryRiskProfile(ctx context.Context, factoryID string, q FactoryRiskProfileQuery) (json.RawMessage, error) {
	if err := requireID("factory id", factoryID); err != nil {
		return nil, err
	}
	if err := validate.Struct(q); err != nil {
		return nil, errors.Wrap(err, "invalid factory risk profile query")
	}

	v := url.Values{}
	v.Set("date_from", q.DateFrom)
	v.Set("date_to", q.DateTo)
	setIf(v, "client_id", q.ClientID)
	return s.get(ctx, resource(factoryRiskProfilePath, factoryID), v)
}
