package sight

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/Sternrassler/sight-client/pkg/pagination"
)

// ReportStatus filters reports by state.
type ReportStatus string

const (
	ReportStatusInProgress ReportStatus = "in-progress"
	ReportStatusPending    ReportStatus = "pending"
	ReportStatusCompleted  ReportStatus = "completed"
)

// CAPAStatus filters reports by corrective action state.
type CAPAStatus string

const (
	CAPAStatusWaitingForResponse   CAPAStatus = "Waiting for Response"
	CAPAStatusSubmitted            CAPAStatus = "Submitted"
	CAPAStatusSubmittedByReviewer  CAPAStatus = "Submitted by Reviewer"
	CAPAStatusRejected             CAPAStatus = "Rejected"
	CAPAStatusReinspectionSolved   CAPAStatus = "Re-inspection Requested (Solved)"
	CAPAStatusReinspectionUnsolved CAPAStatus = "Re-inspection Requested (Unsolved)"
	CAPAStatusApproved             CAPAStatus = "Approved"
)

// ReportsFilter narrows a reports listing.
type ReportsFilter struct {
	InspectionDateFrom string
	InspectionDateTo   string
	StyleID            string
	SystemUpdatedFrom  string
	SystemUpdatedTo    string
	Status             ReportStatus
	UpdatedFrom        string
	UpdatedTo          string
	CreatedFrom        string
	CreatedTo          string
	CAPAStatus         CAPAStatus
	Order              string // default DefaultOrder
}

func (f ReportsFilter) values() url.Values {
	v := url.Values{}
	setIf(v, "inspection_date_from", f.InspectionDateFrom)
	setIf(v, "inspection_date_to", f.InspectionDateTo)
	setIf(v, "style_id", f.StyleID)
	setIf(v, "system_updated_from", f.SystemUpdatedFrom)
	setIf(v, "system_updated_to", f.SystemUpdatedTo)
	setIf(v, "status", string(f.Status))
	setIf(v, "updated_from", f.UpdatedFrom)
	setIf(v, "updated_to", f.UpdatedTo)
	setIf(v, "created_from", f.CreatedFrom)
	setIf(v, "created_to", f.CreatedTo)
	setIf(v, "capa_status", string(f.CAPAStatus))
	v.Set("order", orDefault(f.Order, DefaultOrder))
	return v
}

// ListReports returns one page of inspection reports.
func (s *Sight) ListReports(ctx context.Context, filter ReportsFilter, page pagination.Params) (*pagination.Page, error) {
	return s.list(ctx, "/reports", filter.values(), page)
}

// ListAllReports returns every page of inspection reports.
func (s *Sight) ListAllReports(ctx context.Context, filter ReportsFilter, params pagination.Params) ([]pagination.Page, error) {
	return s.listAll(ctx, "/reports", filter.values(), params)
}

// GetReport returns a single inspection report.
func (s *Sight) GetReport(ctx context.Context, reportID string) (json.RawMessage, error) {
	if err := requireID("report id", reportID); err != nil {
		return nil, err
	}
	return s.get(ctx, resource("/reports", reportID), nil)
}

// GetCAPA returns the corrective action plan of a report.
func (s *Sight) GetCAPA(ctx context.Context, reportID string) (json.RawMessage, error) {
	if err := requireID("report id", reportID); err != nil {
		return nil, err
	}
	return s.get(ctx, resource("/capas", reportID), nil)
}
