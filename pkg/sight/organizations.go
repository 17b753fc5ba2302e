package sight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/Sternrassler/sight-client/pkg/pagination"
)

// OrganizationsFilter narrows an organization listing.
type OrganizationsFilter struct {
	Name string
}

func (f OrganizationsFilter) values() url.Values {
	v := url.Values{}
	setIf(v, "name", f.Name)
	return v
}

// ListOrganizations returns one page of organizations.
func (s *Sight) ListOrganizations(ctx context.Context, filter OrganizationsFilter, page pagination.Params) (*pagination.Page, error) {
	return s.list(ctx, "/organizations", filter.values(), page)
}

// ListAllOrganizations returns every page of organizations.
func (s *Sight) ListAllOrganizations(ctx context.Context, filter OrganizationsFilter, params pagination.Params) ([]pagination.Page, error) {
	return s.listAll(ctx, "/organizations", filter.values(), params)
}

// CreateOrganization creates an organization.
func (s *Sight) CreateOrganization(ctx context.Context, organization any) (json.RawMessage, error) {
	return s.send(ctx, http.MethodPost, "/organizations", organization)
}

// GetOrganization returns a single organization.
func (s *Sight) GetOrganization(ctx context.Context, organizationID string) (json.RawMessage, error) {
	if err := requireID("organization id", organizationID); err != nil {
		return nil, err
	}
	return s.get(ctx, resource("/organizations", organizationID), nil)
}

// UpdateOrganization replaces an organization.
func (s *Sight) UpdateOrganization(ctx context.Context, organizationID string, organization any) (json.RawMessage, error) {
	if err := requireID("organization id", organizationID); err != nil {
		return nil, err
	}
	return s.send(ctx, http.MethodPut, resource("/organizations", organizationID), organization)
}

// DeleteOrganization deletes an organization.
func (s *Sight) DeleteOrganization(ctx context.Context, organizationID string) error {
	if err := requireID("organization id", organizationID); err != nil {
		return err
	}
	return s.remove(ctx, resource("/organizations", organizationID))
}
