package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/launchpad/internal/model"
	"github.com/hitoshi/launchpad/internal/report"
)

// ReportServiceInterface はレポートハンドラーが必要とするサービスインターフェース。
type ReportServiceInterface interface {
	List(ctx context.Context, p model.Principal, q report.Query) ([]model.ReportRecord, error)
}

// ReportHandler は計測区間のレポートを返すHTTPハンドラー。
type ReportHandler struct {
	service ReportServiceInterface
}

// NewReportHandler はReportHandlerを生成する。
func NewReportHandler(service ReportServiceInterface) *ReportHandler {
	return &ReportHandler{service: service}
}

type reportRecordResponse struct {
	timeRecordResponse
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Warehouse string `json:"warehouse"`
}

// ListRecords は条件に一致する計測区間を返す。
// GET /api/reports/records?warehouse=tokyo&start_date=2025-01-01&end_date=2025-01-31
func (h *ReportHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	records, err := h.service.List(r.Context(), p, report.Query{
		Warehouse: q.Get("warehouse"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]reportRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, reportRecordResponse{
			timeRecordResponse: newTimeRecordResponse(rec.TimeRecord),
			Username:           rec.Username,
			FullName:           rec.FullName,
			Warehouse:          rec.Warehouse,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": out})
}
