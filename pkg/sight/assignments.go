package sight

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/Sternrassler/sight-client/pkg/pagination"
)

// AssignmentStatus filters assignments by state.
type AssignmentStatus string

const (
	AssignmentStatusNew         AssignmentStatus = "NEW"
	AssignmentStatusPreAssigned AssignmentStatus = "PRE-ASSIGNED"
	AssignmentStatusAssigned    AssignmentStatus = "ASSIGNED"
	AssignmentStatusReleased    AssignmentStatus = "RELEASED"
	AssignmentStatusInProgress  AssignmentStatus = "IN-PROGRESS"
	AssignmentStatusCompleted   AssignmentStatus = "COMPLETED"
	AssignmentStatusAborted     AssignmentStatus = "ABORTED"
)

// DefaultAssignmentOrder sorts assignments by creation date, newest first.
const DefaultAssignmentOrder = "assignment_created_date:desc"

// AssignmentsFilter narrows an assignment listing.
type AssignmentsFilter struct {
	FactoryCity                string
	FactoryCountry             string
	AssignmentCreatedFrom      string
	AssignmentCreatedTo        string
	AssignmentUpdatedFrom      string
	AssignmentUpdatedTo        string
	ExpectedInspectionDateFrom string
	ExpectedInspectionDateTo   string
	AssignmentStatus           AssignmentStatus
	ExecutorOrganization       string
	Order                      string // default DefaultAssignmentOrder
}

func (f AssignmentsFilter) values() url.Values {
	v := url.Values{}
	setIf(v, "factory_city", f.FactoryCity)
	setIf(v, "factory_country", f.FactoryCountry)
	setIf(v, "assignment_created_from", f.AssignmentCreatedFrom)
	setIf(v, "assignment_created_to", f.AssignmentCreatedTo)
	setIf(v, "assignment_updated_from", f.AssignmentUpdatedFrom)
	setIf(v, "assignment_updated_to", f.AssignmentUpdatedTo)
	setIf(v, "expected_inspection_date_from", f.ExpectedInspectionDateFrom)
	setIf(v, "expected_inspection_date_to", f.ExpectedInspectionDateTo)
	setIf(v, "assignment_status", string(f.AssignmentStatus))
	setIf(v, "executor_organization", f.ExecutorOrganization)
	v.Set("order", orDefault(f.Order, DefaultAssignmentOrder))
	return v
}

// ListAssignments returns one page of assignments.
func (s *Sight) ListAssignments(ctx context.Context, filter AssignmentsFilter, page pagination.Params) (*pagination.Page, error) {
	return s.list(ctx, "/assignments", filter.values(), page)
}

// ListAllAssignments returns every page of assignments.
func (s *Sight) ListAllAssignments(ctx context.Context, filter AssignmentsFilter, params pagination.Params) ([]pagination.Page, error) {
	return s.listAll(ctx, "/assignments", filter.values(), params)
}

// GetAssignment returns a single assignment.
func (s *Sight) GetAssignment(ctx context.Context, assignmentID string) (json.RawMessage, error) {
	if err := requireID("assignment id", assignmentID); err != nil {
		return nil, err
	}
	return s.get(ctx, resource("/assignments", assignmentID), nil)
}
