package sight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/Sternrassler/sight-client/pkg/pagination"
)

// TimeAndActionStatus filters time-and-action plans by state.
type TimeAndActionStatus string

const (
	TimeAndActionStatusUpcoming   TimeAndActionStatus = "UPCOMING"
	TimeAndActionStatusNew        TimeAndActionStatus = "NEW"
	TimeAndActionStatusInProgress TimeAndActionStatus = "IN-PROGRESS"
	TimeAndActionStatusCanceled   TimeAndActionStatus = "CANCELED"
	TimeAndActionStatusAborted    TimeAndActionStatus = "ABORTED"
	TimeAndActionStatusCompleted  TimeAndActionStatus = "COMPLETED"
)

// TimeAndActionsFilter narrows a time-and-action listing.
type TimeAndActionsFilter struct {
	PONumber    string
	Status      TimeAndActionStatus
	UpdatedFrom string
	UpdatedTo   string
	CreatedFrom string
	CreatedTo   string
}

func (f TimeAndActionsFilter) values() url.Values {
	v := url.Values{}
	setIf(v, "po_number", f.PONumber)
	setIf(v, "status", string(f.Status))
	setIf(v, "updated_from", f.UpdatedFrom)
	setIf(v, "updated_to", f.UpdatedTo)
	setIf(v, "created_from", f.CreatedFrom)
	setIf(v, "created_to", f.CreatedTo)
	return v
}

// ListTimeAndActions returns one page of time-and-action plans.
func (s *Sight) ListTimeAndActions(ctx context.Context, filter TimeAndActionsFilter, page pagination.Params) (*pagination.Page, error) {
	return s.list(ctx, "/time-and-actions", filter.values(), page)
}

// ListAllTimeAndActions returns every page of time-and-action plans.
func (s *Sight) ListAllTimeAndActions(ctx context.Context, filter TimeAndActionsFilter, params pagination.Params) ([]pagination.Page, error) {
	return s.listAll(ctx, "/time-and-actions", filter.values(), params)
}

// GetTimeAndAction returns a single time-and-action plan.
func (s *Sight) GetTimeAndAction(ctx context.Context, id string) (json.RawMessage, error) {
	if err := requireID("time and action id", id); err != nil {
		return nil, err
	}
	return s.get(ctx, resource("/time-and-actions", id), nil)
}

// UpdateTimeAndActionMilestones replaces the milestones of a plan.
func (s *Sight) UpdateTimeAndActionMilestones(ctx context.Context, id string, milestones any) (json.RawMessage, error) {
	if err := requireID("time and action id", id); err != nil {
		return nil, err
	}
	return s.send(ctx, http.MethodPut, resource("/time-and-actions", id, "milestones"), milestones)
}

// GetTimeAndActionProductionStatus returns the production status of a plan.
// An empty level omits the productionStatusLevel parameter.
func (s *Sight) GetTimeAndActionProductionStatus(ctx context.Context, id, level string) (json.RawMessage, error) {
	if err := requireID("time and action id", id); err != nil {
		return nil, err
	}
	v := url.Values{}
	setIf(v, "productionStatusLevel", level)
	return s.get(ctx, resource("/time-and-actions", id, "production-status"), v)
}

// UpdateTimeAndActionProductionStatus replaces the production status of a plan.
func (s *Sight) UpdateTimeAndActionProductionStatus(ctx context.Context, id string, status any) (json.RawMessage, error) {
	if err := requireID("time and action id", id); err != nil {
		return nil, err
	}
	return s.send(ctx, http.MethodPut, resource("/time-and-actions", id, "production-status"), status)
}
