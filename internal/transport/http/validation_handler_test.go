package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusprep/internal/dataprocessing"
	apierrors "nexusprep/internal/errors"
	"nexusprep/internal/learning"
	"nexusprep/internal/operations"
	"nexusprep/internal/services"
	"nexusprep/internal/shared/testutil"
	"nexusprep/internal/validation"
	api "nexusprep/pkg/contracts/api/v1"
	"nexusprep/pkg/contracts/domain"
)

const salesCSV = "Invoice Date,Customer Name,Ship-to State,Amount\n" +
	"2024-01-15,Acme Corp,CA,\"1,200.00\"\n" +
	"2024-01-20,Globex,Texas,$850.50\n" +
	"2024-02-03,Initech,ny,430\n"

// fakeService returns canned values for each operation.
type fakeService struct {
	result   *domain.ValidationResult
	entries  []learning.Entry
	err      error
	firmID   string
	uploads  []services.Upload
	sheetReq services.SheetsRequest
	header   string
}

func (f *fakeService) ValidateUploads(_ context.Context, firmID string, uploads []services.Upload) (*domain.ValidationResult, error) {
	f.firmID, f.uploads = firmID, uploads
	return f.result, f.err
}

func (f *fakeService) ValidateSheets(_ context.Context, req services.SheetsRequest) (*domain.ValidationResult, error) {
	f.sheetReq = req
	return f.result, f.err
}

func (f *fakeService) GetResult(id string) (*domain.ValidationResult, error) {
	if f.result == nil || f.result.ID != id {
		return nil, services.ErrResultNotFound
	}
	return f.result, nil
}

func (f *fakeService) FirmTaxonomy(_ context.Context, firmID string) ([]learning.Entry, error) {
	f.firmID = firmID
	return f.entries, f.err
}

func (f *fakeService) FirmMapping(_ context.Context, firmID, header string) (learning.Entry, error) {
	f.firmID, f.header = firmID, header
	if f.err != nil {
		return learning.Entry{}, f.err
	}
	if len(f.entries) == 0 {
		return learning.Entry{}, learning.ErrNotFound
	}
	return f.entries[0], nil
}

func newTestRouter(t *testing.T, svc ValidationServiceInterface, maxUpload int64) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewValidationHandler(svc, nil, apierrors.NewErrorHandler(logger, false), maxUpload, logger)
	r := chi.NewRouter()
	r.Mount("/api/v1/validations", h.Routes())
	r.Get("/api/v1/firms/{firmID}/taxonomy", h.GetFirmTaxonomy)
	r.Get("/api/v1/firms/{firmID}/taxonomy/{header}", h.GetFirmMapping)
	return r
}

func multipartBody(t *testing.T, firmID string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if firmID != "" {
		require.NoError(t, mw.WriteField("firm_id", firmID))
	}
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestCreateValidation_RunsPipeline(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	store := learning.NewMemoryStore()
	sink := learning.NewSink(store, learning.DefaultThreshold, logger)
	svc, err := services.NewValidationService(operations.NewManager(nil, sink, logger), sink, services.Options{}, logger)
	require.NoError(t, err)
	router := newTestRouter(t, svc, 0)

	body, ct := multipartBody(t, "acme", map[string]string{"sales.csv": salesCSV})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validations", body)
	req.Header.Set("Content-Type", ct)
	rec := serve(router, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result domain.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "acme", result.FirmID)
	assert.Equal(t, []string{"CA", "NY", "TX"}, result.Summary.States)
	assert.Equal(t, 3, result.Summary.TotalRows)

	get := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/validations/"+result.ID, nil))
	assert.Equal(t, http.StatusOK, get.Code)

	tax := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/firms/acme/taxonomy", nil))
	require.Equal(t, http.StatusOK, tax.Code)
	var taxonomy api.TaxonomyResponse
	require.NoError(t, json.Unmarshal(tax.Body.Bytes(), &taxonomy))
	assert.Equal(t, "acme", taxonomy.FirmID)
	assert.Equal(t, len(taxonomy.Entries), taxonomy.Count)
	assert.NotZero(t, taxonomy.Count)
}

func TestCreateValidation_PassesUploads(t *testing.T) {
	svc := &fakeService{result: &domain.ValidationResult{ID: "run-1"}}
	router := newTestRouter(t, svc, 0)

	body, ct := multipartBody(t, "firm.one", map[string]string{"a.csv": "State\nCA\n"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validations", body)
	req.Header.Set("Content-Type", ct)
	rec := serve(router, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "firm.one", svc.firmID)
	require.Len(t, svc.uploads, 1)
	assert.Equal(t, "a.csv", svc.uploads[0].Name)
	assert.Equal(t, int64(len("State\nCA\n")), svc.uploads[0].Size)

	rc, err := svc.uploads[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "State\nCA\n", string(data))
}

func TestCreateValidation_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"no files", services.ErrNoFiles, http.StatusBadRequest, apierrors.TypeValidation},
		{"empty file", fmt.Errorf("a.csv: %w", validation.ErrEmptyFile), http.StatusBadRequest, apierrors.TypeValidation},
		{"too large", fmt.Errorf("a.csv: %w", validation.ErrFileTooLarge), http.StatusRequestEntityTooLarge, apierrors.TypePayloadTooLarge},
		{"unsupported", fmt.Errorf("a.pdf: %w", dataprocessing.ErrUnsupportedFormat), http.StatusUnprocessableEntity, apierrors.TypeUnsupportedFile},
		{"lock file", fmt.Errorf("~$a.xlsx: %w", validation.ErrTemporaryFile), http.StatusUnprocessableEntity, apierrors.TypeUnsupportedFile},
		{"parse failure", fmt.Errorf("a.xlsx: zip: not a valid zip file"), http.StatusUnprocessableEntity, apierrors.TypeUnsupportedFile},
		{"cancelled", context.Canceled, http.StatusGatewayTimeout, apierrors.TypeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeService{err: tt.err}, 0)
			body, ct := multipartBody(t, "", map[string]string{"a.csv": "x"})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/validations", body)
			req.Header.Set("Content-Type", ct)
			rec := serve(router, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantType, decodeBody(t, rec)["type"])
		})
	}
}

func TestCreateValidation_RequestRejections(t *testing.T) {
	t.Run("body over limit", func(t *testing.T) {
		router := newTestRouter(t, &fakeService{}, 512)
		body, ct := multipartBody(t, "", map[string]string{"a.csv": strings.Repeat("x", 4096)})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/validations", body)
		req.Header.Set("Content-Type", ct)
		rec := serve(router, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		router := newTestRouter(t, &fakeService{}, 0)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/validations", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		rec := serve(router, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("invalid firm id", func(t *testing.T) {
		svc := &fakeService{}
		router := newTestRouter(t, svc, 0)
		body, ct := multipartBody(t, "acme corp!", map[string]string{"a.csv": "x"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/validations", body)
		req.Header.Set("Content-Type", ct)
		rec := serve(router, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, svc.uploads)
		assert.Equal(t, "VALIDATION_FAILED", decodeBody(t, rec)["error_code"])
	})
}

func TestCreateSheetsValidation(t *testing.T) {
	valid := `{"firm_id":"acme","spreadsheet_id":"1AbCdEfGhIjK","ranges":["Sales!A1:F200","Sheet2"]}`
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"ok", valid, nil, http.StatusCreated, ""},
		{"empty body", "", nil, http.StatusBadRequest, apierrors.TypeValidation},
		{"unknown field", `{"spreadsheet_id":"1AbCdEfGhIjK","ranges":["A"],"extra":1}`, nil, http.StatusBadRequest, apierrors.TypeValidation},
		{"missing ranges", `{"spreadsheet_id":"1AbCdEfGhIjK"}`, nil, http.StatusBadRequest, apierrors.TypeValidation},
		{"sheets disabled", valid, services.ErrSheetsUnavailable, http.StatusServiceUnavailable, apierrors.TypeServiceDown},
		{"api failure", valid, fmt.Errorf("googleapi: Error 403: forbidden"), http.StatusBadGateway, apierrors.TypeIngestion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{result: &domain.ValidationResult{ID: "run-2"}, err: tt.err}
			router := newTestRouter(t, svc, 0)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/validations/sheets", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := serve(router, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decodeBody(t, rec)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, body["type"])
				return
			}
			assert.Equal(t, "run-2", body["id"])
			assert.Equal(t, []string{"Sales!A1:F200", "Sheet2"}, svc.sheetReq.Ranges)
		})
	}
}

func TestGetValidation_NotFound(t *testing.T) {
	router := newTestRouter(t, &fakeService{}, 0)
	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/validations/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, apierrors.TypeNotFound, body["type"])
	assert.Equal(t, "validation missing not found", body["detail"])
}

func TestGetFirmTaxonomy(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		router := newTestRouter(t, &fakeService{err: services.ErrTaxonomyDisabled}, 0)
		rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/firms/acme/taxonomy", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("invalid firm", func(t *testing.T) {
		router := newTestRouter(t, &fakeService{}, 0)
		rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/firms/-acme/taxonomy", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("entries", func(t *testing.T) {
		svc := &fakeService{entries: []learning.Entry{
			{FirmID: "acme", Header: "ship to state", SourceColumn: "Ship-to State", Field: domain.FieldState, Confidence: 95, TimesSeen: 2},
		}}
		router := newTestRouter(t, svc, 0)
		rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/firms/acme/taxonomy", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp api.TaxonomyResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
		assert.Equal(t, domain.FieldState, resp.Entries[0].Field)
		assert.Equal(t, "acme", svc.firmID)
	})
}

func TestGetFirmMapping(t *testing.T) {
	tests := []struct {
		name       string
		svc        *fakeService
		path       string
		wantStatus int
		wantHeader string
	}{
		{
			name: "found",
			svc: &fakeService{entries: []learning.Entry{
				{FirmID: "acme", Header: "ship to state", SourceColumn: "Ship-to State", Field: domain.FieldState, Confidence: 95},
			}},
			path:       "/api/v1/firms/acme/taxonomy/Ship-to%20State",
			wantStatus: http.StatusOK,
			wantHeader: "Ship-to State",
		},
		{
			name:       "unknown header",
			svc:        &fakeService{},
			path:       "/api/v1/firms/acme/taxonomy/Zone",
			wantStatus: http.StatusNotFound,
			wantHeader: "Zone",
		},
		{
			name:       "disabled",
			svc:        &fakeService{err: services.ErrTaxonomyDisabled},
			path:       "/api/v1/firms/acme/taxonomy/State",
			wantStatus: http.StatusServiceUnavailable,
			wantHeader: "State",
		},
		{
			name:       "invalid firm",
			svc:        &fakeService{},
			path:       "/api/v1/firms/-acme/taxonomy/State",
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.svc, 0)
			rec := serve(router, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantHeader, tt.svc.header)
			if tt.wantStatus == http.StatusOK {
				var entry api.TaxonomyEntry
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
				assert.Equal(t, domain.FieldState, entry.Field)
			}
		})
	}
}
