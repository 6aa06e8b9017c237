package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zatekoja/medlab/internal/application/services"
	"github.com/zatekoja/medlab/internal/domain/entities"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// TransferService defines the export, import and backup operations used by
// the handler.
type TransferService interface {
	ExportFile(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, data []byte, confirmation services.Confirmation) (*entities.ImportResult, error)
	Clear(ctx context.Context, confirmation services.Confirmation) error
	Backup(ctx context.Context) (string, error)
	ListBackups(ctx context.Context) ([]string, error)
	Restore(ctx context.Context, key string, confirmation services.Confirmation) (*entities.ImportResult, error)
}

// TransferHandler handles whole-store requests
type TransferHandler struct {
	service TransferService
	now     func() time.Time
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(service TransferService) *TransferHandler {
	return &TransferHandler{service: service, now: time.Now}
}

// Export handles GET /api/export
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportFile(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	filename := fmt.Sprintf("lab-export-%s.json", h.now().Format(entities.DayLayout))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import handles POST /api/import?confirm=true. The body is an export file.
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, apperrors.ErrorTypeInvalidInput, "failed to read import file")
		return
	}
	result, err := h.service.Import(r.Context(), data, confirmation(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// ClearData handles DELETE /api/data?confirm=true
func (h *TransferHandler) ClearData(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), confirmation(r)); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateBackup handles POST /api/backups
func (h *TransferHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	key, err := h.service.Backup(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// ListBackups handles GET /api/backups
func (h *TransferHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	keys, err := h.service.ListBackups(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"backups": keys,
		"count":   len(keys),
	})
}

// RestoreBackup handles POST /api/backups/restore?key=&confirm=true
func (h *TransferHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		respondWithError(w, http.StatusBadRequest, apperrors.ErrorTypeInvalidInput, "backup key is required")
		return
	}
	result, err := h.service.Restore(r.Context(), key, confirmation(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
