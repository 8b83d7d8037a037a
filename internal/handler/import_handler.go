package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dafibh/fortuna/fortuna-import/internal/domain"
	"github.com/dafibh/fortuna/fortuna-import/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ImportHandler handles CSV import requests
type ImportHandler struct {
	importService *service.ImportService
	uploadDir     string
	maxBytes      int64
}

// NewImportHandler creates a new ImportHandler. Uploads are written to
// uploadDir for the duration of the import and never outlive the request.
func NewImportHandler(importService *service.ImportService, uploadDir string, maxBytes int64) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		uploadDir:     uploadDir,
		maxBytes:      maxBytes,
	}
}

// ImportTransactions handles POST /api/v1/transactions/import
func (h *ImportHandler) ImportTransactions(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	if file.Size > h.maxBytes {
		return NewPayloadTooLargeError(c, fmt.Sprintf("File exceeds the %d byte limit", h.maxBytes))
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	path, err := h.saveUpload(src)
	if err != nil {
		log.Error().Err(err).Str("dir", h.uploadDir).Msg("Failed to store uploaded file")
		return NewInternalError(c, "Failed to store file")
	}

	result, err := h.importService.ImportFile(c.Request().Context(), path)
	if err != nil {
		// The client can't refer to the stored copy, it re-uploads instead
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Error().Err(rmErr).Str("path", path).Msg("Failed to remove upload of failed import")
		}
		log.Warn().Err(err).Str("filename", file.Filename).Msg("Import failed")

		switch {
		case errors.Is(err, domain.ErrInvalidRow):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: err.Error()},
			})
		case errors.Is(err, domain.ErrResourceUnavailable):
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "File could not be read"},
			})
		default:
			return NewInternalError(c, "Failed to import transactions")
		}
	}

	log.Info().
		Str("filename", file.Filename).
		Int("transactions", len(result.Transactions)).
		Int("created_categories", len(result.CreatedCategories)).
		Msg("Transactions imported successfully")

	return c.JSON(http.StatusCreated, result)
}

// saveUpload copies the upload into uploadDir and returns the new path
func (h *ImportHandler) saveUpload(src io.Reader) (string, error) {
	dst, err := os.CreateTemp(h.uploadDir, "import-*.csv")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, io.LimitReader(src, h.maxBytes)); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return filepath.Clean(dst.Name()), nil
}
