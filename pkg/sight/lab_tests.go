package sight

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Sternrassler/sight-client/pkg/pagination"
)

// ListLabTestReports returns one page of lab test reports.
func (s *Sight) ListLabTestReports(ctx context.Context, page pagination.Params) (*pagination.Page, error) {
	return s.list(ctx, "/lab-test-reports", nil, page)
}

// ListAllLabTestReports returns every page of lab test reports.
func (s *Sight) ListAllLabTestReports(ctx context.Context, params pagination.Params) ([]pagination.Page, error) {
	return s.listAll(ctx, "/lab-test-reports", nil, params)
}

// CreateLabTestReport creates a lab test report.
func (s *Sight) CreateLabTestReport(ctx context.Context, report any) (json.RawMessage, error) {
	return s.send(ctx, http.MethodPost, "/lab-test-reports", report)
}

// GetLabTestReport returns a single lab test report.
func (s *Sight) GetLabTestReport(ctx context.Context, reportID string) (json.RawMessage, error) {
	if err := requireID("lab test report id", reportID); err != nil {
		return nil, err
	}
	return s.get(ctx, resource("/lab-test-reports", reportID), nil)
}

// UpdateLabTestReport replaces a lab test report.
func (s *Sight) UpdateLabTestReport(ctx context.Context, reportID string, report any) (json.RawMessage, error) {
	if err := requireID("lab test report id", reportID); err != nil {
		return nil, err
	}
	return s.send(ctx, http.MethodPut, resource("/lab-test-reports", reportID), report)
}

// DeleteLabTestReport deletes a lab test report.
func (s *Sight) DeleteLabTestReport(ctx context.Context, reportID string) error {
	if err := requireID("lab test report id", reportID); err != nil {
		return err
	}
	return s.remove(ctx, resource("/lab-test-reports", reportID))
}

// CreateFileUploadSession opens an upload session for attachments.
func (s *Sight) CreateFileUploadSession(ctx context.Context, payload any) (json.RawMessage, error) {
	return s.send(ctx, http.MethodPost, "/file-upload-session", payload)
}

// GetMeasurementChart returns the measurement chart of a style.
func (s *Sight) GetMeasurementChart(ctx context.Context, styleID string) (json.RawMessage, error) {
	if err := requireID("style id", styleID); err != nil {
		return nil, err
	}
	return s.get(ctx, resource("/measurement-charts", styleID), nil)
}

// CreateMeasurementChart creates the measurement chart of a style.
func (s *Sight) CreateMeasurementChart(ctx context.Context, styleID string, chart any) (json.RawMessage, error) {
	if err := requireID("style id", styleID); err != nil {
		return nil, err
	}
	return s.send(ctx, http.MethodPost, resource("/measurement-charts", styleID), chart)
}

// UpdateMeasurementChart replaces the measurement chart of a style.
func (s *Sight) UpdateMeasurementChart(ctx context.Context, styleID string, chart any) (json.RawMessage, error) {
	if err := requireID("style id", styleID); err != nil {
		return nil, err
	}
	return s.send(ctx, http.MethodPut, resource("/measurement-charts", styleID), chart)
}
