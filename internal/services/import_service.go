package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/cache"
	"catalog-import-service/internal/events"
	"catalog-import-service/internal/ingest"
	"catalog-import-service/internal/metrics"
	"catalog-import-service/internal/models"
	"catalog-import-service/internal/reconciler"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX
	ErrUnsupportedFormat = errors.New("only CSV and XLSX files are supported")
	// ErrPreviewExpired is returned when a preview token can no longer be committed
	ErrPreviewExpired = errors.New("preview expired, upload the file again")
	// ErrNothingToImport is returned when a commit carries neither a file nor a token
	ErrNothingToImport = errors.New("a file or previewToken is required")
)

// PreviewStore keeps previews between the dry run and the commit
type PreviewStore interface {
	Enabled() bool
	Save(ctx context.Context, tenantID, token string, payload *cache.PreviewPayload) error
	Load(ctx context.Context, tenantID, token string) (*cache.PreviewPayload, error)
	Delete(ctx context.Context, tenantID, token string) error
}

// EventPublisher announces finished imports
type EventPublisher interface {
	PublishImportCompleted(ctx context.Context, event *events.ImportCompletedEvent) error
}

// Catalog reads persisted products back for export
type Catalog interface {
	ListProducts(ctx context.Context, tenantID string) ([]models.Product, error)
}

// Upload is one uploaded import file
type Upload struct {
	Filename string
	Content  []byte
}

// Format detects the file format from its extension
func (u Upload) Format() (models.ImportFormat, error) {
	switch strings.ToLower(filepath.Ext(u.Filename)) {
	case ".csv":
		return models.ImportFormatCSV, nil
	case ".xlsx":
		return models.ImportFormatXLSX, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// ImportService runs the catalog import pipeline
type ImportService struct {
	assembler   *ingest.Assembler
	reconciler  *reconciler.Reconciler
	catalog     Catalog
	previews    PreviewStore
	publisher   EventPublisher
	metrics     *metrics.Metrics
	mapping     ingest.ColumnMapping
	priceFormat ingest.PriceFormat
	logger      *logrus.Entry
}

// Deps groups the collaborators of ImportService; Previews, Publisher and Metrics are optional
type Deps struct {
	Assembler   *ingest.Assembler
	Reconciler  *reconciler.Reconciler
	Catalog     Catalog
	Previews    PreviewStore
	Publisher   EventPublisher
	Metrics     *metrics.Metrics
	Mapping     ingest.ColumnMapping
	PriceFormat ingest.PriceFormat
}

func NewImportService(deps Deps, logger *logrus.Logger) *ImportService {
	return &ImportService{
		assembler:   deps.Assembler,
		reconciler:  deps.Reconciler,
		catalog:     deps.Catalog,
		previews:    deps.Previews,
		publisher:   deps.Publisher,
		metrics:     deps.Metrics,
		mapping:     deps.Mapping,
		priceFormat: deps.PriceFormat,
		logger:      logger.WithField("component", "import-service"),
	}
}

// Template describes the accepted columns
func (s *ImportService) Template() models.ImportTemplate {
	return s.mapping.Template()
}

// WriteTemplate writes an empty import file in the requested format
func (s *ImportService) WriteTemplate(w io.Writer, format models.ImportFormat) error {
	switch format {
	case models.ImportFormatCSV:
		return ingest.WriteCSV(w, s.mapping, nil, s.priceFormat)
	case models.ImportFormatXLSX:
		return ingest.WriteXLSXTemplate(w, s.mapping)
	default:
		return ErrUnsupportedFormat
	}
}

// assemble turns an upload into grouped, classified products
func (s *ImportService) assemble(upload Upload) (*ingest.Assembly, error) {
	format, err := upload.Format()
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveUpload(int64(len(upload.Content)))

	started := time.Now()
	defer s.metrics.ObserveStage("assemble", started)

	if format == models.ImportFormatXLSX {
		rows, err := ingest.ReadXLSX(bytes.NewReader(upload.Content))
		if err != nil {
			return nil, err
		}
		return s.assembler.AssembleRows(rows)
	}
	return s.assembler.Assemble(string(upload.Content))
}

// Preview parses, classifies and validates without writing anything
func (s *ImportService) Preview(ctx context.Context, tenantID string, upload Upload) (*models.PreviewResult, error) {
	asm, err := s.assemble(upload)
	if err != nil {
		s.metrics.ObservePreview("rejected", 0)
		return nil, err
	}

	products := asm.Ordered()
	variants, images := asm.Totals()
	result := &models.PreviewResult{
		Success:            true,
		TotalRows:          asm.TotalRows,
		TotalProducts:      len(products),
		TotalVariants:      variants,
		TotalImages:        images,
		Products:           products,
		RowWarnings:        asm.Warnings,
		ValidationWarnings: ingest.Validate(products),
	}

	if s.previews != nil && s.previews.Enabled() {
		token := cache.ContentToken(upload.Content)
		payload := &cache.PreviewPayload{
			TotalRows:   asm.TotalRows,
			Products:    products,
			RowWarnings: asm.Warnings,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.previews.Save(ctx, tenantID, token, payload); err != nil {
			s.logger.WithError(err).WithField("tenantID", tenantID).Warn("Failed to cache preview")
		} else {
			result.PreviewToken = token
		}
	}

	s.metrics.ObservePreview("ok", len(asm.Warnings))
	s.logger.WithFields(logrus.Fields{
		"tenantID": tenantID,
		"file":     upload.Filename,
		"products": result.TotalProducts,
		"variants": result.TotalVariants,
		"warnings": len(result.RowWarnings) + len(result.ValidationWarnings),
	}).Info("Import preview built")

	return result, nil
}

// Commit runs the full pipeline from an upload, or from a cached preview when upload is nil.
// A token sent alongside an upload is ignored and its preview is left in place.
func (s *ImportService) Commit(ctx context.Context, tenantID string, upload *Upload, previewToken string) (*models.ImportResult, error) {
	started := time.Now()
	if upload != nil {
		previewToken = ""
	}

	var (
		products    []*models.ParsedProduct
		rowWarnings []models.ImportRowError
		totalRows   int
	)

	switch {
	case upload != nil:
		asm, err := s.assemble(*upload)
		if err != nil {
			return nil, err
		}
		products, rowWarnings, totalRows = asm.Ordered(), asm.Warnings, asm.TotalRows
	case previewToken != "":
		if s.previews == nil || !s.previews.Enabled() {
			return nil, ErrPreviewExpired
		}
		payload, err := s.previews.Load(ctx, tenantID, previewToken)
		if errors.Is(err, cache.ErrPreviewNotFound) {
			return nil, ErrPreviewExpired
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load preview: %w", err)
		}
		products, rowWarnings, totalRows = payload.Products, payload.RowWarnings, payload.TotalRows
	default:
		return nil, ErrNothingToImport
	}

	reconcileStarted := time.Now()
	report := s.reconciler.Reconcile(ctx, tenantID, products)
	s.metrics.ObserveStage("reconcile", reconcileStarted)
	s.metrics.ObserveReport(report)

	if previewToken != "" && s.previews != nil {
		if err := s.previews.Delete(ctx, tenantID, previewToken); err != nil {
			s.logger.WithError(err).Warn("Failed to drop committed preview")
		}
	}

	s.publish(ctx, tenantID, report, upload)

	s.logger.WithFields(logrus.Fields{
		"tenantID": tenantID,
		"imported": report.Imported,
		"updated":  report.Updated,
		"failed":   report.Failed,
		"skipped":  report.Skipped,
	}).Info("Catalog import committed")

	return &models.ImportResult{
		ImportReport: report,
		TotalRows:    totalRows,
		RowWarnings:  rowWarnings,
		ProcessingMs: time.Since(started).Milliseconds(),
	}, nil
}

func (s *ImportService) publish(ctx context.Context, tenantID string, report *models.ImportReport, upload *Upload) {
	if s.publisher == nil {
		return
	}
	source := "preview"
	if upload != nil {
		source = upload.Filename
	}
	event := &events.ImportCompletedEvent{
		TenantID:        tenantID,
		Source:          source,
		Success:         report.Success,
		Imported:        report.Imported,
		Updated:         report.Updated,
		Failed:          report.Failed,
		Skipped:         report.Skipped,
		VariantsCreated: report.VariantsCreated,
		ImagesCreated:   report.ImagesCreated,
		CreatedIDs:      report.CreatedIDs,
		UpdatedIDs:      report.UpdatedIDs,
	}
	if err := s.publisher.PublishImportCompleted(ctx, event); err != nil {
		s.logger.WithError(err).WithField("tenantID", tenantID).Warn("Import committed but event was not published")
	}
}

// Export writes the tenant's persisted catalog in the import layout
func (s *ImportService) Export(ctx context.Context, tenantID string, w io.Writer) (int, error) {
	stored, err := s.catalog.ListProducts(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	products := make([]*models.ParsedProduct, 0, len(stored))
	for i := range stored {
		products = append(products, ingest.FromProduct(&stored[i]))
	}
	if err := ingest.WriteCSV(w, s.mapping, products, s.priceFormat); err != nil {
		return 0, fmt.Errorf("failed to export catalog: %w", err)
	}
	return len(products), nil
}
