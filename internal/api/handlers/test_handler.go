package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/medlab/internal/domain/entities"
)

// CatalogService defines the test catalog operations used by the handler.
type CatalogService interface {
	Add(ctx context.Context, def *entities.TestDefinition) error
	Update(ctx context.Context, id int64, patch entities.TestDefinitionPatch) (*entities.TestDefinition, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Get(ctx context.Context, id int64) (*entities.TestDefinition, error)
	List(ctx context.Context) ([]*entities.TestDefinition, error)
	Search(ctx context.Context, term string) ([]*entities.TestDefinition, error)
}

// TestHandler handles test catalog requests
type TestHandler struct {
	service CatalogService
}

// NewTestHandler creates a new test catalog handler
func NewTestHandler(service CatalogService) *TestHandler {
	return &TestHandler{service: service}
}

// ListTests handles GET /api/tests
func (h *TestHandler) ListTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.service.List(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tests": tests,
		"count": len(tests),
	})
}

// SearchTests handles GET /api/tests/search?q=
func (h *TestHandler) SearchTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tests": tests,
		"count": len(tests),
	})
}

// CreateTest handles POST /api/tests
func (h *TestHandler) CreateTest(w http.ResponseWriter, r *http.Request) {
	var def entities.TestDefinition
	if !decodeJSON(w, r, &def) {
		return
	}
	if err := h.service.Add(r.Context(), &def); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, &def)
}

// GetTest handles GET /api/tests/{id}
func (h *TestHandler) GetTest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	def, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, def)
}

// UpdateTest handles PATCH /api/tests/{id}
func (h *TestHandler) UpdateTest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch entities.TestDefinitionPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	def, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, def)
}

// DeleteTest handles DELETE /api/tests/{id}
func (h *TestHandler) DeleteTest(w http.ResponseWriter, r *http.Request) {
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
