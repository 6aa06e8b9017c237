package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/medlab/internal/domain/entities"
)

// ReportService defines the report operations used by the handler.
type ReportService interface {
	Generate(ctx context.Context, req entities.ReportRequest) (entities.Report, error)
	Statistics(ctx context.Context) (*entities.Statistics, error)
}

// ReportHandler handles report and statistics requests
type ReportHandler struct {
	service ReportService
	loc     *time.Location
}

// NewReportHandler creates a new report handler. Custom range days are
// read in loc.
func NewReportHandler(service ReportService, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportHandler{service: service, loc: loc}
}

// GetReport handles GET /api/reports/{kind}?range=&start=&end=&lang=
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	preset, err := entities.ParseRangePreset(query.Get("range"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	start, err := entities.ParseDate(query.Get("start"), h.loc)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	end, err := entities.ParseDate(query.Get("end"), h.loc)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	lang := query.Get("lang")
	if lang == "" {
		lang = r.Header.Get("Accept-Language")
	}

	report, err := h.service.Generate(r.Context(), entities.ReportRequest{
		Kind:     entities.ReportKind(r.PathValue("kind")),
		Range:    preset,
		Start:    start,
		End:      end,
		Language: lang,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.Header().Set("Content-Language", report.Header().Language)
	respondWithJSON(w, http.StatusOK, report)
}

// GetStatistics handles GET /api/statistics
func (h *ReportHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
