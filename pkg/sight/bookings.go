package sight

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/Sternrassler/sight-client/pkg/pagination"
)

// BookingStatus filters bookings by state.
type BookingStatus string

const (
	BookingStatusNew       BookingStatus = "NEW"
	BookingStatusWaived    BookingStatus = "WAIVED"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusRejected  BookingStatus = "REJECTED"
	BookingStatusMerged    BookingStatus = "MERGED"
	BookingStatusCanceled  BookingStatus = "CANCELED"
)

// DefaultOrder sorts listings by creation date, newest first.
const DefaultOrder = "created_date:desc"

// BookingsFilter narrows a bookings listing.
type BookingsFilter struct {
	Status           BookingStatus
	ToOrganizationID string
	UpdatedFrom      string
	UpdatedTo        string
	CreatedFrom      string
	CreatedTo        string
	Order            string // default DefaultOrder
}

func (f BookingsFilter) values() url.Values {
	v := url.Values{}
	setIf(v, "status", string(f.Status))
	setIf(v, "to_organization_id", f.ToOrganizationID)
	setIf(v, "updated_from", f.UpdatedFrom)
	setIf(v, "updated_to", f.UpdatedTo)
	setIf(v, "created_from", f.CreatedFrom)
	setIf(v, "created_to", f.CreatedTo)
	v.Set("order", orDefault(f.Order, DefaultOrder))
	return v
}

// ListBookings returns one page of bookings.
func (s *Sight) ListBookings(ctx context.Context, filter BookingsFilter, page pagination.Params) (*pagination.Page, error) {
	return s.list(ctx, "/bookings", filter.values(), page)
}

// ListAllBookings returns every page of bookings.
func (s *Sight) ListAllBookings(ctx context.Context, filter BookingsFilter, params pagination.Params) ([]pagination.Page, error) {
	return s.listAll(ctx, "/bookings", filter.values(), params)
}

// GetBooking returns a single booking.
func (s *Sight) GetBooking(ctx context.Context, bookingID string) (json.RawMessage, error) {
	if err := requireID("booking id", bookingID); err != nil {
		return nil, err
	}
	return s.get(ctx, resource("/bookings", bookingID), nil)
}

// ListProducts returns the product catalogue.
func (s *Sight) ListProducts(ctx context.Context) (json.RawMessage, error) {
	return s.get(ctx, "/products", nil)
}
