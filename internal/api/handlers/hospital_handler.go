package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/medlab/internal/domain/entities"
)

// HospitalService defines the hospital profile operations used by the handler.
type HospitalService interface {
	Get(ctx context.Context) (*entities.HospitalProfile, error)
	Save(ctx context.Context, profile *entities.HospitalProfile) error
	Clear(ctx context.Context) error
}

// HospitalHandler handles hospital profile requests
type HospitalHandler struct {
	service HospitalService
}

// NewHospitalHandler creates a new hospital handler
func NewHospitalHandler(service HospitalService) *HospitalHandler {
	return &HospitalHandler{service: service}
}

// GetHospital handles GET /api/hospital
func (h *HospitalHandler) GetHospital(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Get(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// SaveHospital handles PUT /api/hospital
func (h *HospitalHandler) SaveHospital(w http.ResponseWriter, r *http.Request) {
	var profile entities.HospitalProfile
	if !decodeJSON(w, r, &profile) {
		return
	}
	if err := h.service.Save(r.Context(), &profile); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, &profile)
}

// ClearHospital handles DELETE /api/hospital
func (h *HospitalHandler) ClearHospital(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context()); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
