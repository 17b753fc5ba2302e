package sight

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Sternrassler/sight-client/pkg/pagination"
)

// ListBrands returns one page of brands.
func (s *Sight) ListBrands(ctx context.Context, page pagination.Params) (*pagination.Page, error) {
	return s.list(ctx, "/brands", nil, page)
}

// ListAllBrands returns every page of brands.
func (s *Sight) ListAllBrands(ctx context.Context, params pagination.Params) ([]pagination.Page, error) {
	return s.listAll(ctx, "/brands", nil, params)
}

// GetBrand returns a single brand.
func (s *Sight) GetBrand(ctx context.Context, brandID string) (json.RawMessage, error) {
	if err := requireID("brand id", brandID); err != nil {
		return nil, err
	}
	return s.get(ctx, resource("/brands", brandID), nil)
}

// UpdateBrand replaces a brand.
func (s *Sight) UpdateBrand(ctx context.Context, brandID string, brand any) (json.RawMessage, error) {
	if err := requireID("brand id", brandID); err != nil {
		return nil, err
	}
	return s.send(ctx, http.MethodPut, resource("/brands", brandID), brand)
}

// DeleteBrand deletes a brand.
func (s *Sight) DeleteBrand(ctx context.Context, brandID string) error {
	if err := requireID("brand id", brandID); err != nil {
		return err
	}
	return s.remove(ctx, resource("/brands", brandID))
}
