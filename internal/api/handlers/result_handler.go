package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/medlab/internal/domain/entities"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// EncounterService defines the patient result operations used by the handler.
type EncounterService interface {
	Add(ctx context.Context, e *entities.Encounter) error
	Record(ctx context.Context, draft *entities.EncounterDraft) (*entities.Encounter, error)
	Update(ctx context.Context, id int64, patch entities.EncounterPatch) (*entities.Encounter, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Get(ctx context.Context, id int64) (*entities.Encounter, error)
	List(ctx context.Context) ([]*entities.Encounter, error)
	Search(ctx context.Context, term string) ([]*entities.Encounter, error)
	ByDateRange(ctx context.Context, start, end time.Time) ([]*entities.Encounter, error)
	ByPatientID(ctx context.Context, patientID string) ([]*entities.Encounter, error)
}

// ResultHandler handles patient result requests
type ResultHandler struct {
	service EncounterService
	loc     *time.Location
}

// NewResultHandler creates a new result handler. Calendar days in range
// queries are read in loc.
func NewResultHandler(service EncounterService, loc *time.Location) *ResultHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ResultHandler{service: service, loc: loc}
}

// createResultRequest is either a draft naming catalog tests in "results"
// or a complete encounter carrying its own "testsResults".
type createResultRequest struct {
	entities.EncounterDraft
	LineItems []entities.LineItem `json:"testsResults"`
}

// ListResults handles GET /api/results
func (h *ResultHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.List(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondResults(w, results)
}

// SearchResults handles GET /api/results/search?q=
func (h *ResultHandler) SearchResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondResults(w, results)
}

// ResultsByRange handles GET /api/results/range?start=&end=
func (h *ResultHandler) ResultsByRange(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
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
	if isDay(query.Get("end")) {
		end = entities.EndOfDay(end)
	}

	results, err := h.service.ByDateRange(r.Context(), start, end)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondResults(w, results)
}

// ResultsByPatient handles GET /api/results/patient/{patientID}
func (h *ResultHandler) ResultsByPatient(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.ByPatientID(r.Context(), r.PathValue("patientID"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondResults(w, results)
}

// CreateResult handles POST /api/results
func (h *ResultHandler) CreateResult(w http.ResponseWriter, r *http.Request) {
	var req createResultRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Results) > 0 && len(req.LineItems) > 0 {
		respondWithError(w, http.StatusBadRequest, apperrors.ErrorTypeInvalidInput, "send either results or testsResults, not both")
		return
	}

	if len(req.Results) > 0 {
		e, err := h.service.Record(r.Context(), &req.EncounterDraft)
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, e)
		return
	}

	gender := req.PatientGender
	if gender == "" {
		gender = entities.GenderMale
	}
	e := &entities.Encounter{
		PatientName:   req.PatientName,
		PatientAge:    req.PatientAge,
		PatientGender: gender,
		PatientID:     req.PatientID,
		LineItems:     req.LineItems,
	}
	if err := h.service.Add(r.Context(), e); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, e)
}

// GetResult handles GET /api/results/{id}
func (h *ResultHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, e)
}

// UpdateResult handles PATCH /api/results/{id}
func (h *ResultHandler) UpdateResult(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch entities.EncounterPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	e, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, e)
}

// DeleteResult handles DELETE /api/results/{id}
func (h *ResultHandler) DeleteResult(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func respondResults(w http.ResponseWriter, results []*entities.Encounter) {
	if results == nil {
		results = []*entities.Encounter{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// isDay reports whether value is a bare calendar day
func isDay(value string) bool {
	_, err := time.Parse(entities.DayLayout, value)
	return err == nil
}
