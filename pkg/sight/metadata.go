package sight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/Sternrassler/sight-client/pkg/pagination"
	"github.com/cockroachdb/errors"
)

// Namespace selects a metadata namespace.
type Namespace string

const (
	NamespaceAnalytics  Namespace = "analytics"
	NamespaceInspection Namespace = "inspection"
)

func (n Namespace) path(ids ...string) (string, error) {
	if err := validate.Var(string(n), "oneof=analytics inspection"); err != nil {
		return "", errors.Newf("unknown metadata namespace %q", n)
	}
	return resource("/metadata", append([]string{string(n)}, ids...)...), nil
}

// MetadataFilter narrows a metadata listing.
type MetadataFilter struct {
	UpdatedFrom string
	UpdatedTo   string
	CreatedFrom string
	CreatedTo   string
	Order       string // default DefaultOrder
}

func (f MetadataFilter) values() url.Values {
	v := url.Values{}
	setIf(v, "updated_from", f.UpdatedFrom)
	setIf(v, "updated_to", f.UpdatedTo)
	setIf(v, "created_from", f.CreatedFrom)
	setIf(v, "created_to", f.CreatedTo)
	v.Set("order", orDefault(f.Order, DefaultOrder))
	return v
}

// ListMetadata returns one page of metadata in namespace.
func (s *Sight) ListMetadata(ctx context.Context, namespace Namespace, filter MetadataFilter, page pagination.Params) (*pagination.Page, error) {
	path, err := namespace.path()
	if err != nil {
		return nil, err
	}
	return s.list(ctx, path, filter.values(), page)
}

// ListAllMetadata returns every page of metadata in namespace.
func (s *Sight) ListAllMetadata(ctx context.Context, namespace Namespace, filter MetadataFilter, params pagination.Params) ([]pagination.Page, error) {
	path, err := namespace.path()
	if err != nil {
		return nil, err
	}
	return s.listAll(ctx, path, filter.values(), params)
}

// CreateMetadata creates a metadata record in namespace.
func (s *Sight) CreateMetadata(ctx context.Context, namespace Namespace, metadata any) (json.RawMessage, error) {
	path, err := namespace.path()
	if err != nil {
		return nil, err
	}
	return s.send(ctx, http.MethodPost, path, metadata)
}

// GetMetadata returns a metadata record.
func (s *Sight) GetMetadata(ctx context.Context, namespace Namespace, uid string) (json.RawMessage, error) {
	path, err := s.metadataPath(namespace, uid)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, path, nil)
}

// UpdateMetadata replaces a metadata record.
func (s *Sight) UpdateMetadata(ctx context.Context, namespace Namespace, uid string, metadata any) (json.RawMessage, error) {
	path, err := s.metadataPath(namespace, uid)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, http.MethodPut, path, metadata)
}

// DeleteMetadata deletes a metadata record.
func (s *Sight) DeleteMetadata(ctx context.Context, namespace Namespace, uid string) error {
	path, err := s.metadataPath(namespace, uid)
	if err != nil {
		return err
	}
	return s.remove(ctx, path)
}

func (s *Sight) metadataPath(namespace Namespace, uid string) (string, error) {
	if err := requireID("metadata uid", uid); err != nil {
		return "", err
	}
	return namespace.path(uid)
}
