package sight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/Sternrassler/sight-client/pkg/pagination"
	"github.com/cockroachdb/errors"
)

// PurchaseOrderAction is the action of UpdateDeletePurchaseOrder.
type PurchaseOrderAction string

const (
	PurchaseOrderActionUpdate PurchaseOrderAction = "update"
	PurchaseOrderActionDelete PurchaseOrderAction = "delete"
)

// PurchaseOrdersFilter narrows a purchase order listing.
type PurchaseOrdersFilter struct {
	PONumber         string
	OPONumber        string
	DeliveryDateFrom string
	DeliveryDateTo   string
}

func (f PurchaseOrdersFilter) values() url.Values {
	v := url.Values{}
	setIf(v, "po_number", f.PONumber)
	setIf(v, "opo_number", f.OPONumber)
	setIf(v, "delivery_date_from", f.DeliveryDateFrom)
	setIf(v, "delivery_date_to", f.DeliveryDateTo)
	return v
}

// ListPurchaseOrders returns one page of purchase orders.
func (s *Sight) ListPurchaseOrders(ctx context.Context, filter PurchaseOrdersFilter, page pagination.Params) (*pagination.Page, error) {
	return s.list(ctx, "/purchase-orders", filter.values(), page)
}

// ListAllPurchaseOrders returns every page of purchase orders.
func (s *Sight) ListAllPurchaseOrders(ctx context.Context, filter PurchaseOrdersFilter, params pagination.Params) ([]pagination.Page, error) {
	return s.listAll(ctx, "/purchase-orders", filter.values(), params)
}

// CreatePurchaseOrder creates a purchase order.
func (s *Sight) CreatePurchaseOrder(ctx context.Context, purchaseOrder any) (json.RawMessage, error) {
	return s.send(ctx, http.MethodPost, "/purchase-orders", purchaseOrder)
}

// GetPurchaseOrder returns a purchase order by number.
func (s *Sight) GetPurchaseOrder(ctx context.Context, poNumber string) (json.RawMessage, error) {
	if err := requireID("po number", poNumber); err != nil {
		return nil, err
	}
	return s.get(ctx, resource("/purchase-orders", poNumber), nil)
}

// UpdatePurchaseOrder replaces a purchase order.
func (s *Sight) UpdatePurchaseOrder(ctx context.Context, poNumber string, payload any) (json.RawMessage, error) {
	if err := requireID("po number", poNumber); err != nil {
		return nil, err
	}
	return s.send(ctx, http.MethodPut, resource("/purchase-orders", poNumber), payload)
}

// DeletePurchaseOrder deletes a purchase order.
func (s *Sight) DeletePurchaseOrder(ctx context.Context, poNumber string) error {
	if err := requireID("po number", poNumber); err != nil {
		return err
	}
	return s.remove(ctx, resource("/purchase-orders", poNumber))
}

// UpdateDeletePurchaseOrder triggers the update or delete action of a
// purchase order.
func (s *Sight) UpdateDeletePurchaseOrder(ctx context.Context, poNumber string, action PurchaseOrderAction) (json.RawMessage, error) {
	if err := requireID("po number", poNumber); err != nil {
		return nil, err
	}
	if err := validate.Var(string(action), "oneof=update delete"); err != nil {
		return nil, errors.Newf("unknown purchase order action %q", action)
	}

	path := resource("/purchase-orders", poNumber, "actions", string(action))
	return s.send(ctx, http.MethodPost, path, map[string]string{"action": string(action)})
}
