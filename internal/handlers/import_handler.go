package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/ingest"
	"catalog-import-service/internal/middleware"
	"catalog-import-service/internal/models"
	"catalog-import-service/internal/services"
)

// DefaultMaxFileBytes caps uploads when no limit is configured
const DefaultMaxFileBytes = 10 << 20

type ImportHandler struct {
	service      *services.ImportService
	maxFileBytes int64
	logger       *logrus.Entry
}

func NewImportHandler(service *services.ImportService, maxFileBytes int64, logger *logrus.Logger) *ImportHandler {
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}
	return &ImportHandler{
		service:      service,
		maxFileBytes: maxFileBytes,
		logger:       logger.WithField("component", "import-handler"),
	}
}

// GetImportTemplate returns the import template definition or file
// @Summary Get catalog import template
// @Tags catalog-import
// @Produce json
// @Param format query string false "json, csv or xlsx"
// @Success 200 {object} models.SuccessResponse
// @Router /catalog/import/template [get]
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	switch format {
	case "csv":
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename=catalog_import_template.csv")
		if err := h.service.WriteTemplate(c.Writer, models.ImportFormatCSV); err != nil {
			h.logger.WithError(err).Error("Failed to write CSV template")
		}
	case "xlsx":
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=catalog_import_template.xlsx")
		if err := h.service.WriteTemplate(c.Writer, models.ImportFormatXLSX); err != nil {
			h.logger.WithError(err).Error("Failed to write XLSX template")
		}
	case "json":
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": h.service.Template(),
		})
	default:
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("INVALID_FORMAT", "format must be json, csv or xlsx"))
	}
}

// PreviewImport parses and classifies an upload without writing anything
// @Summary Preview a catalog import
// @Tags catalog-import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} models.PreviewResult
// @Failure 400 {object} models.ErrorResponse
// @Router /catalog/import/preview [post]
func (h *ImportHandler) PreviewImport(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	h.limitBody(c)

	upload, ok := h.readUpload(c, true)
	if !ok {
		return
	}

	result, err := h.service.Preview(c.Request.Context(), tenantID, *upload)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ImportProducts commits an upload, or a previously previewed file by token
// @Summary Import a catalog file
// @Tags catalog-import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "CSV or XLSX file"
// @Param previewToken formData string false "Token returned by preview"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 410 {object} models.ErrorResponse
// @Router /catalog/import [post]
func (h *ImportHandler) ImportProducts(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	h.limitBody(c)
	token := c.PostForm("previewToken")

	upload, ok := h.readUpload(c, token == "")
	if !ok {
		return
	}

	result, err := h.service.Commit(c.Request.Context(), tenantID, upload, token)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"tenantID": tenantID,
		"userID":   middleware.GetUserID(c),
		"imported": result.Imported,
		"updated":  result.Updated,
		"failed":   result.Failed,
	}).Info("Catalog import request completed")

	c.JSON(http.StatusOK, result)
}

// ExportProducts streams the tenant's catalog as CSV in the import layout
// @Summary Export the catalog as CSV
// @Tags catalog-import
// @Produce text/csv
// @Router /catalog/export [get]
func (h *ImportHandler) ExportProducts(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	filename := fmt.Sprintf("catalog_export_%s.csv", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	count, err := h.service.Export(c.Request.Context(), tenantID, c.Writer)
	if err != nil {
		h.logger.WithError(err).WithField("tenantID", tenantID).Error("Catalog export failed")
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, models.NewErrorResponse("EXPORT_FAILED", "Failed to export catalog"))
		}
		return
	}
	h.logger.WithFields(logrus.Fields{"tenantID": tenantID, "products": count}).Info("Catalog exported")
}

// limitBody caps the multipart body at the file limit plus room for form fields
func (h *ImportHandler) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileBytes+1<<20)
}

// readUpload reads the multipart file; a missing file is an error only when required
func (h *ImportHandler) readUpload(c *gin.Context, required bool) (*services.Upload, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, models.NewErrorResponse("FILE_TOO_LARGE",
				fmt.Sprintf("File exceeds the %d byte limit", h.maxFileBytes)))
			return nil, false
		}
		if !required {
			return nil, true
		}
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("FILE_REQUIRED", "Please upload a CSV or Excel file"))
		return nil, false
	}
	defer file.Close()

	if header.Size > h.maxFileBytes {
		c.JSON(http.StatusRequestEntityTooLarge, models.NewErrorResponse("FILE_TOO_LARGE",
			fmt.Sprintf("File exceeds the %d byte limit", h.maxFileBytes)))
		return nil, false
	}

	upload := &services.Upload{Filename: header.Filename}
	if _, err := upload.Format(); err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("INVALID_FORMAT", "Only CSV and XLSX files are supported"))
		return nil, false
	}

	upload.Content, err = io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("PARSE_ERROR", "Failed to read uploaded file"))
		return nil, false
	}
	return upload, true
}

func (h *ImportHandler) respondPipelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ingest.ErrNoDataRows):
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("EMPTY_FILE", err.Error()))
	case errors.Is(err, ingest.ErrMissingColumns), errors.Is(err, ingest.ErrUnterminatedQuote),
		errors.Is(err, ingest.ErrInvalidSpreadsheet):
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("PARSE_ERROR", err.Error()))
	case errors.Is(err, services.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("INVALID_FORMAT", err.Error()))
	case errors.Is(err, services.ErrNothingToImport):
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("FILE_REQUIRED", err.Error()))
	case errors.Is(err, services.ErrPreviewExpired):
		c.JSON(http.StatusGone, models.NewErrorResponse("PREVIEW_EXPIRED", err.Error()))
	default:
		h.logger.WithError(err).WithField("tenantID", middleware.GetTenantID(c)).Error("Catalog import failed")
		c.JSON(http.StatusInternalServerError, models.NewErrorResponse("IMPORT_FAILED", "Import could not be completed, please retry"))
	}
}
