package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"nexusprep/internal/dataprocessing"
	apierrors "nexusprep/internal/errors"
	"nexusprep/internal/learning"
	"nexusprep/internal/middleware"
	"nexusprep/internal/services"
	"nexusprep/internal/validation"
	api "nexusprep/pkg/contracts/api/v1"
)

const (
	// DefaultMaxUploadBytes bounds a multipart request body.
	DefaultMaxUploadBytes = 64 << 20
	multipartMemory       = 32 << 20
)

// ValidationHandler handles validation requests
type ValidationHandler struct {
	service        ValidationServiceInterface
	validator      *middleware.Validator
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewValidationHandler creates a new validation handler
func NewValidationHandler(service ValidationServiceInterface, validator *middleware.Validator,
	errorHandler *apierrors.ErrorHandler, maxUploadBytes int64, logger *slog.Logger) *ValidationHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = middleware.NewValidator(logger)
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &ValidationHandler{
		service:        service,
		validator:      validator,
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "validation")),
	}
}

// Routes returns the validation routes
func (h *ValidationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(middleware.ContentType(h.errorHandler, "multipart/form-data")).Post("/", h.CreateValidation)
	r.With(middleware.ContentType(h.errorHandler, "application/json")).Post("/sheets", h.CreateSheetsValidation)
	r.Get("/{id}", h.GetValidation)
	return r
}

// CreateValidation handles POST /api/v1/validations
func (h *ValidationHandler) CreateValidation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, services.Upload{
			Name: fh.Filename,
			Size: fh.Size,
			Open: openPart(fh),
		})
	}
	firmID := r.FormValue("firm_id")
	if err := h.validator.ValidateStruct(api.FirmRequest{FirmID: firmID}); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "validation_requested",
		slog.String("firm_id", firmID),
		slog.Int("files", len(uploads)))

	result, err := h.service.ValidateUploads(r.Context(), firmID, uploads)
	if err != nil {
		h.errorHandler.HandleError(w, r, uploadError(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// CreateSheetsValidation handles POST /api/v1/validations/sheets
func (h *ValidationHandler) CreateSheetsValidation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req services.SheetsRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "sheets_validation_requested",
		slog.String("firm_id", req.FirmID),
		slog.String("spreadsheet_id", req.SpreadsheetID),
		slog.Int("ranges", len(req.Ranges)))

	result, err := h.service.ValidateSheets(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, sheetsError(err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// GetValidation handles GET /api/v1/validations/{id}
func (h *ValidationHandler) GetValidation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.service.GetResult(id)
	if err != nil {
		if errors.Is(err, services.ErrResultNotFound) {
			err = apierrors.NotFoundError("validation", id)
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// GetFirmTaxonomy handles GET /api/v1/firms/{firmID}/taxonomy
func (h *ValidationHandler) GetFirmTaxonomy(w http.ResponseWriter, r *http.Request) {
	firmID := chi.URLParam(r, "firmID")
	if err := h.validator.ValidateStruct(api.FirmRequest{FirmID: firmID}); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	entries, err := h.service.FirmTaxonomy(r.Context(), firmID)
	if err != nil {
		if errors.Is(err, services.ErrTaxonomyDisabled) {
			err = apierrors.New(http.StatusServiceUnavailable, "TAXONOMY_DISABLED",
				apierrors.TypeServiceDown, err.Error())
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}
	resp := api.TaxonomyResponse{FirmID: firmID, Count: len(entries), Entries: make([]api.TaxonomyEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, taxonomyEntry(e))
	}
	render.JSON(w, r, resp)
}

// GetFirmMapping handles GET /api/v1/firms/{firmID}/taxonomy/{header}
func (h *ValidationHandler) GetFirmMapping(w http.ResponseWriter, r *http.Request) {
	firmID := chi.URLParam(r, "firmID")
	if err := h.validator.ValidateStruct(api.FirmRequest{FirmID: firmID}); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	header, err := url.PathUnescape(chi.URLParam(r, "header"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	entry, err := h.service.FirmMapping(r.Context(), firmID, header)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaxonomyDisabled):
			err = apierrors.New(http.StatusServiceUnavailable, "TAXONOMY_DISABLED",
				apierrors.TypeServiceDown, err.Error())
		case errors.Is(err, learning.ErrNotFound):
			err = apierrors.NotFoundError("mapping", header)
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, taxonomyEntry(entry))
}

func taxonomyEntry(e learning.Entry) api.TaxonomyEntry {
	return api.TaxonomyEntry{
		Header:       e.Header,
		SourceColumn: e.SourceColumn,
		Field:        e.Field,
		Confidence:   e.Confidence,
		TimesSeen:    e.TimesSeen,
		UpdatedAt:    e.UpdatedAt,
	}
}

func openPart(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return fh.Open()
	}
}

// uploadError maps ingestion failures of uploaded files to API errors.
func uploadError(err error) error {
	switch {
	case errors.Is(err, services.ErrNoFiles),
		errors.Is(err, validation.ErrEmptyFile):
		return apierrors.InvalidRequestWithError(err)
	case errors.Is(err, validation.ErrFileTooLarge):
		return apierrors.PayloadTooLargeError(err)
	case isContextError(err):
		return err
	default:
		// Unsupported formats, lock files and content that fails to parse
		return apierrors.UnsupportedFileError(err)
	}
}

// sheetsError maps Google Sheets failures to API errors.
func sheetsError(err error) error {
	switch {
	case errors.Is(err, services.ErrSheetsUnavailable):
		return apierrors.New(http.StatusServiceUnavailable, "SHEETS_UNAVAILABLE",
			apierrors.TypeServiceDown, err.Error())
	case errors.Is(err, services.ErrNoFiles):
		return apierrors.InvalidRequestWithError(err)
	case errors.Is(err, dataprocessing.ErrUnsupportedFormat):
		return apierrors.UnsupportedFileError(err)
	case isContextError(err):
		return err
	default:
		return apierrors.IngestionError(err)
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
