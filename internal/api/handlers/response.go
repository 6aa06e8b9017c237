package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/medlab/internal/application/services"
	"github.com/zatekoja/medlab/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// maxBodyBytes bounds request bodies, import files included
const maxBodyBytes = 32 << 20

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, code apperrors.ErrorType, message string) {
	respondWithJSON(w, statusCode, errorResponse{Error: message, Code: string(code)})
}

// respondWithAppError maps err onto a status code. Declined confirmations
// answer 409 with {"confirmed": false}.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrNotConfirmed) {
		respondWithJSON(w, http.StatusConflict, map[string]bool{"confirmed": false})
		return
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		respondWithError(w, http.StatusInternalServerError, apperrors.ErrorTypeInternal, "internal server error")
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, appErr.Type, appErr.Message)
	case apperrors.ErrorTypeDuplicateName:
		respondWithError(w, http.StatusConflict, appErr.Type, appErr.Message)
	case apperrors.ErrorTypeInvalidInput, apperrors.ErrorTypeInvalidDateRange, apperrors.ErrorTypeUnsupportedReportType:
		respondWithError(w, http.StatusBadRequest, appErr.Type, appErr.Message)
	case apperrors.ErrorTypeStorageUnavailable:
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("store unavailable")
		respondWithError(w, http.StatusServiceUnavailable, appErr.Type, appErr.Message)
	default:
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("internal error")
		respondWithError(w, http.StatusInternalServerError, apperrors.ErrorTypeInternal, "internal server error")
	}
}

// decodeJSON reads the request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, apperrors.ErrorTypeInvalidInput, "invalid request payload")
		return false
	}
	return true
}

// pathID parses the {id} path value
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, apperrors.ErrorTypeInvalidInput, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// confirmation turns the confirm query flag into a Confirmation
func confirmation(r *http.Request) services.Confirmation {
	if ok, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get("confirm"))); ok {
		return services.Confirmed
	}
	return services.Declined
}
