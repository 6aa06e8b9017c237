package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medlab/internal/api/handlers"
	"github.com/zatekoja/medlab/internal/application/services"
	"github.com/zatekoja/medlab/internal/domain/entities"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

type stubHospitalService struct {
	profile *entities.HospitalProfile
	err     error
	saved   *entities.HospitalProfile
}

func (s *stubHospitalService) Get(ctx context.Context) (*entities.HospitalProfile, error) {
	return s.profile, s.err
}

func (s *stubHospitalService) Save(ctx context.Context, profile *entities.HospitalProfile) error {
	if s.err != nil {
		return s.err
	}
	profile.ID = 1
	s.saved = profile
	return nil
}

func (s *stubHospitalService) Clear(ctx context.Context) error { return s.err }

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.NewNotFoundError("hospital profile has not been saved"), http.StatusNotFound, "NOT_FOUND"},
		{apperrors.NewDuplicateNameError("test \"CBC\" already exists"), http.StatusConflict, "DUPLICATE_NAME"},
		{apperrors.NewValidationError("hospital name is required"), http.StatusBadRequest, "INVALID_INPUT"},
		{apperrors.NewInvalidDateRangeError("start after end"), http.StatusBadRequest, "INVALID_DATE_RANGE"},
		{apperrors.NewUnsupportedReportTypeError("inventory"), http.StatusBadRequest, "UNSUPPORTED_REPORT_TYPE"},
		{apperrors.NewStorageUnavailableError("store did not respond", nil), http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
		{apperrors.NewInternalError("failed to build query", nil), http.StatusInternalServerError, "INTERNAL"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			handler := handlers.NewHospitalHandler(&stubHospitalService{err: tt.err})
			req := httptest.NewRequest(http.MethodGet, "/api/hospital", nil)
			w := httptest.NewRecorder()

			handler.GetHospital(w, req)

			assert.Equal(t, tt.status, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestErrorMapping_HidesInternalMessages(t *testing.T) {
	handler := handlers.NewHospitalHandler(&stubHospitalService{err: apperrors.NewInternalError("select * from secrets", nil)})
	w := httptest.NewRecorder()

	handler.GetHospital(w, httptest.NewRequest(http.MethodGet, "/api/hospital", nil))

	assert.Equal(t, "internal server error", decodeBody(t, w)["error"])
}

func TestHospitalHandler_Save(t *testing.T) {
	service := &stubHospitalService{}
	handler := handlers.NewHospitalHandler(service)

	req := httptest.NewRequest(http.MethodPut, "/api/hospital", strings.NewReader(`{"name":"Al Noor","license":"LIC-9","location":"https://maps.example/1"}`))
	w := httptest.NewRecorder()
	handler.SaveHospital(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, service.saved)
	assert.Equal(t, "LIC-9", service.saved.LicenseNumber)
	assert.Equal(t, "https://maps.example/1", service.saved.MapLink)

	bad := httptest.NewRecorder()
	handler.SaveHospital(bad, httptest.NewRequest(http.MethodPut, "/api/hospital", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

type stubTransferService struct {
	imported []byte
	cleared  bool
}

func (s *stubTransferService) ExportFile(ctx context.Context) ([]byte, error) {
	return []byte(`{"version":1}`), nil
}

func (s *stubTransferService) Import(ctx context.Context, data []byte, confirmation services.Confirmation) (*entities.ImportResult, error) {
	ok, err := confirmation(ctx, services.ActionImport)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, services.ErrNotConfirmed
	}
	s.imported = data
	return &entities.ImportResult{Tests: entities.ImportCount{Imported: 1}}, nil
}

func (s *stubTransferService) Clear(ctx context.Context, confirmation services.Confirmation) error {
	ok, _ := confirmation(ctx, services.ActionClear)
	if !ok {
		return services.ErrNotConfirmed
	}
	s.cleared = true
	return nil
}

func (s *stubTransferService) Backup(ctx context.Context) (string, error) {
	return "backups/lab-20240515T100000Z.json", nil
}

func (s *stubTransferService) ListBackups(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (s *stubTransferService) Restore(ctx context.Context, key string, confirmation services.Confirmation) (*entities.ImportResult, error) {
	return nil, apperrors.NewNotFoundError("backup " + key + " not found")
}

func TestTransferHandler_DestructiveNeedsConfirm(t *testing.T) {
	service := &stubTransferService{}
	handler := handlers.NewTransferHandler(service)

	w := httptest.NewRecorder()
	handler.ClearData(w, httptest.NewRequest(http.MethodDelete, "/api/data", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, map[string]interface{}{"confirmed": false}, decodeBody(t, w))
	assert.False(t, service.cleared)

	w = httptest.NewRecorder()
	handler.Import(w, httptest.NewRequest(http.MethodPost, "/api/import?confirm=false", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Nil(t, service.imported)

	w = httptest.NewRecorder()
	handler.ClearData(w, httptest.NewRequest(http.MethodDelete, "/api/data?confirm=true", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, service.cleared)

	w = httptest.NewRecorder()
	handler.Import(w, httptest.NewRequest(http.MethodPost, "/api/import?confirm=true", strings.NewReader(`{"version":1}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"version":1}`, string(service.imported))
}

func TestTransferHandler_ExportAndBackups(t *testing.T) {
	handler := handlers.NewTransferHandler(&stubTransferService{})

	w := httptest.NewRecorder()
	handler.Export(w, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "lab-export-")
	assert.JSONEq(t, `{"version":1}`, w.Body.String())

	w = httptest.NewRecorder()
	handler.CreateBackup(w, httptest.NewRequest(http.MethodPost, "/api/backups", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "backups/lab-20240515T100000Z.json", decodeBody(t, w)["key"])

	w = httptest.NewRecorder()
	handler.ListBackups(w, httptest.NewRequest(http.MethodGet, "/api/backups", nil))
	assert.JSONEq(t, `{"backups":[],"count":0}`, w.Body.String())

	w = httptest.NewRecorder()
	handler.RestoreBackup(w, httptest.NewRequest(http.MethodPost, "/api/backups/restore?confirm=true", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	handler.RestoreBackup(w, httptest.NewRequest(http.MethodPost, "/api/backups/restore?key=missing.json&confirm=true", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type stubReportService struct {
	last entities.ReportRequest
}

func (s *stubReportService) Generate(ctx context.Context, req entities.ReportRequest) (entities.Report, error) {
	s.last = req
	return &entities.TestsReport{ReportHeader: entities.ReportHeader{Title: "Tests Report", Type: entities.ReportTests, Language: "en"}}, nil
}

func (s *stubReportService) Statistics(ctx context.Context) (*entities.Statistics, error) {
	return &entities.Statistics{Patients: entities.WindowCounts{Total: 3}}, nil
}

func TestReportHandler_ParsesQuery(t *testing.T) {
	service := &stubReportService{}
	handler := handlers.NewReportHandler(service, time.UTC)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/financial?range=custom&start=2024-04-01&end=2024-04-30", nil)
	req.SetPathValue("kind", "financial")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	w := httptest.NewRecorder()
	handler.GetReport(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "en", w.Header().Get("Content-Language"))
	assert.Equal(t, entities.ReportKind("financial"), service.last.Kind)
	assert.Equal(t, entities.RangeCustom, service.last.Range)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), service.last.Start)
	assert.Equal(t, "en-US,en;q=0.9", service.last.Language)

	req = httptest.NewRequest(http.MethodGet, "/api/reports/summary?lang=fr", nil)
	req.SetPathValue("kind", "summary")
	req.Header.Set("Accept-Language", "en")
	handler.GetReport(httptest.NewRecorder(), req)
	assert.Equal(t, "fr", service.last.Language)

	req = httptest.NewRequest(http.MethodGet, "/api/reports/summary?range=decade", nil)
	req.SetPathValue("kind", "summary")
	w = httptest.NewRecorder()
	handler.GetReport(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/reports/summary?range=custom&start=yesterday", nil)
	req.SetPathValue("kind", "summary")
	w = httptest.NewRecorder()
	handler.GetReport(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_Statistics(t *testing.T) {
	handler := handlers.NewReportHandler(&stubReportService{}, nil)
	w := httptest.NewRecorder()

	handler.GetStatistics(w, httptest.NewRequest(http.MethodGet, "/api/statistics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, 3.0, body["patients"].(map[string]interface{})["total"])
}

func TestPathIDValidation(t *testing.T) {
	handler := handlers.NewTestHandler(nil)

	for _, id := range []string{"abc", "0", "-4"} {
		req := httptest.NewRequest(http.MethodGet, "/api/tests/"+id, nil)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.GetTest(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
	}
}
