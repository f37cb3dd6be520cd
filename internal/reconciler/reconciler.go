package reconciler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/ingest"
	"catalog-import-service/internal/models"
)

const (
	DefaultMaxRetries = 2
	MaxRetries        = 5
)

// Store is the storage the reconciler writes through
type Store interface {
	// FindProductByHandle returns nil, nil when no product has the handle
	FindProductByHandle(ctx context.Context, tenantID, handle string) (*models.Product, error)
	UpsertCategory(ctx context.Context, tenantID, name string) (*models.Category, error)
	// SKUTaken reports whether a product other than excludeProductID owns the SKU
	SKUTaken(ctx context.Context, tenantID, sku string, excludeProductID uuid.UUID) (bool, error)
	// CreateProduct writes a product and its children in one transaction
	CreateProduct(ctx context.Context, product *models.Product, variants []models.ProductVariant, images []models.ProductImage) error
	// ReplaceProduct updates product scalars and swaps all children in one transaction
	ReplaceProduct(ctx context.Context, product *models.Product, variants []models.ProductVariant, images []models.ProductImage) error
}

// Options tune retries of transient storage failures
type Options struct {
	MaxRetries  int
	Backoff     func(attempt int) time.Duration
	IsTransient func(err error) bool
}

// Reconciler upserts parsed products by handle
type Reconciler struct {
	store  Store
	opts   Options
	logger *logrus.Entry
}

// New creates a reconciler
func New(store Store, opts Options, logger *logrus.Entry) *Reconciler {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.MaxRetries > MaxRetries {
		opts.MaxRetries = MaxRetries
	}
	if opts.Backoff == nil {
		opts.Backoff = ExponentialBackoff
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Reconciler{
		store:  store,
		opts:   opts,
		logger: logger.WithField("component", "reconciler"),
	}
}

// ExponentialBackoff waits 100ms, 200ms, 400ms, ...
func ExponentialBackoff(attempt int) time.Duration {
	return time.Duration(100*(1<<attempt)) * time.Millisecond
}

// run holds the state of one Reconcile call
type run struct {
	tenantID   string
	skus       *skuAllocator
	report     *reportBuilder
	categories map[string]categoryResult
}

type categoryResult struct {
	id  *uuid.UUID
	err error
}

// Reconcile writes every product, continuing past per-product failures
func (r *Reconciler) Reconcile(ctx context.Context, tenantID string, products []*models.ParsedProduct) *models.ImportReport {
	start := time.Now()
	rn := &run{
		tenantID:   tenantID,
		skus:       newSKUAllocator(),
		report:     newReportBuilder(),
		categories: make(map[string]categoryResult),
	}

	for _, p := range products {
		if p == nil {
			continue
		}
		r.reconcileOne(ctx, rn, p)
	}

	report := rn.report.finish(products, time.Since(start))

	r.logger.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"products":   len(products),
		"imported":   report.Imported,
		"updated":    report.Updated,
		"failed":     report.Failed,
		"skipped":    report.Skipped,
		"elapsed_ms": report.Summary.ElapsedMs,
	}).Info("Catalog reconciliation finished")

	return report
}

func (r *Reconciler) reconcileOne(ctx context.Context, rn *run, p *models.ParsedProduct) {
	label := describe(p)

	title := strings.TrimSpace(p.Title)
	if title == "" {
		rn.report.skip(fmt.Sprintf("product %s skipped: title is required", label))
		return
	}

	handle := strings.TrimSpace(p.Handle)
	if handle == "" {
		handle = Slugify(title)
		if handle == "" {
			rn.report.skip(fmt.Sprintf("product %s skipped: cannot derive a handle from the title", label))
			return
		}
		label = fmt.Sprintf("%q (handle %s)", title, handle)
		rn.report.warn(fmt.Sprintf("product %q has no handle; using %s", title, handle))
	}

	parsedVariants := p.Variants
	if len(parsedVariants) == 0 {
		parsedVariants = []models.ParsedVariant{ingest.DefaultVariant()}
		rn.report.warn(fmt.Sprintf("product %s has no variants; default variant added", label))
	}

	if err := ctx.Err(); err != nil {
		rn.report.fail(fmt.Sprintf("failed to import product %s: %v", label, err))
		return
	}

	categoryID := r.resolveCategory(ctx, rn, p, label)

	var existing *models.Product
	err := r.retry(ctx, "find product", func() error {
		var findErr error
		existing, findErr = r.store.FindProductByHandle(ctx, rn.tenantID, handle)
		return findErr
	})
	if err != nil {
		rn.report.fail(fmt.Sprintf("failed to import product %s: lookup failed: %v", label, err))
		return
	}

	owner := uuid.Nil
	if existing != nil {
		owner = existing.ID
	}

	variants, reserved, err := r.buildVariants(ctx, rn, handle, label, owner, parsedVariants)
	if err != nil {
		rn.skus.release(reserved)
		rn.report.fail(fmt.Sprintf("failed to import product %s: %v", label, err))
		return
	}
	images := r.buildImages(rn, label, p.Images)

	product := &models.Product{
		TenantID:    rn.tenantID,
		CategoryID:  categoryID,
		Handle:      handle,
		Title:       title,
		BodyHTML:    optionalString(p.BodyHTML),
		Vendor:      optionalString(p.Vendor),
		ProductType: optionalString(p.ProductType),
		Tags:        models.StringList(p.Tags),
		Published:   p.Published,
		Status:      p.Status,
	}
	if product.Status == "" {
		product.Status = models.ProductStatusDraft
	}

	if existing != nil {
		product.ID = existing.ID
		err = r.retry(ctx, "replace product", func() error {
			return r.store.ReplaceProduct(ctx, product, variants, images)
		})
	} else {
		err = r.retry(ctx, "create product", func() error {
			return r.store.CreateProduct(ctx, product, variants, images)
		})
	}
	if err != nil {
		rn.skus.release(reserved)
		rn.report.fail(fmt.Sprintf("failed to import product %s: %v", label, err))
		r.logger.WithFields(logrus.Fields{
			"tenant_id": rn.tenantID,
			"handle":    handle,
		}).WithError(err).Warn("Product write failed")
		return
	}

	if existing != nil {
		rn.report.updated(product.ID.String(), len(variants), len(images))
	} else {
		rn.report.created(product.ID.String(), len(variants), len(images))
	}

	r.logger.WithFields(logrus.Fields{
		"tenant_id": rn.tenantID,
		"handle":    handle,
		"variants":  len(variants),
		"images":    len(images),
		"updated":   existing != nil,
	}).Debug("Product reconciled")
}

// resolveCategory find-or-creates the product's category; failures only warn
func (r *Reconciler) resolveCategory(ctx context.Context, rn *run, p *models.ParsedProduct, label string) *uuid.UUID {
	name := strings.TrimSpace(p.CategoryName)
	if name == "" {
		name = strings.TrimSpace(p.CategoryHint)
	}
	if name == "" {
		return nil
	}

	key := strings.ToLower(name)
	res, cached := rn.categories[key]
	if !cached {
		var category *models.Category
		res.err = r.retry(ctx, "upsert category", func() error {
			var upsertErr error
			category, upsertErr = r.store.UpsertCategory(ctx, rn.tenantID, name)
			return upsertErr
		})
		if res.err == nil && category != nil {
			id := category.ID
			res.id = &id
		}
		rn.categories[key] = res
	}

	if res.err != nil {
		rn.report.warn(fmt.Sprintf("product %s imported without category %q: %v", label, name, res.err))
		return nil
	}
	return res.id
}

func (r *Reconciler) buildVariants(ctx context.Context, rn *run, handle, label string, owner uuid.UUID, parsed []models.ParsedVariant) ([]models.ProductVariant, []string, error) {
	variants := make([]models.ProductVariant, 0, len(parsed))
	reserved := make([]string, 0, len(parsed))

	taken := func(ctx context.Context, sku string) (bool, error) {
		var exists bool
		err := r.retry(ctx, "check sku", func() error {
			var checkErr error
			exists, checkErr = r.store.SKUTaken(ctx, rn.tenantID, sku, owner)
			return checkErr
		})
		return exists, err
	}

	for i, v := range parsed {
		position := v.Position
		if position <= 0 {
			position = i + 1
		}

		declared := strings.TrimSpace(v.SKU)
		candidate := declared
		if candidate == "" {
			candidate = fmt.Sprintf("%s-v%d", handle, position)
		}

		sku, err := rn.skus.allocate(ctx, candidate, taken)
		if err != nil {
			return nil, reserved, err
		}
		reserved = append(reserved, sku)
		if declared != "" && sku != declared {
			rn.report.warn(fmt.Sprintf("product %s: SKU %q already in use, stored as %q", label, declared, sku))
		}

		price := v.Price
		if price < 0 {
			price = 0
		}
		qty := v.InventoryQty
		if qty < 0 {
			qty = 0
		}

		variants = append(variants, models.ProductVariant{
			TenantID:           rn.tenantID,
			SKU:                sku,
			Position:           position,
			Option1Name:        optionalString(v.Options[0].Name),
			Option1Value:       optionalString(v.Options[0].Value),
			Option2Name:        optionalString(v.Options[1].Name),
			Option2Value:       optionalString(v.Options[1].Value),
			Option3Name:        optionalString(v.Options[2].Name),
			Option3Value:       optionalString(v.Options[2].Value),
			Price:              price,
			CompareAtPrice:     v.CompareAtPrice,
			InventoryQty:       qty,
			Weight:             v.Weight,
			WeightUnit:         optionalString(v.WeightUnit),
			RequiresShipping:   v.RequiresShipping,
			Taxable:            v.Taxable,
			Barcode:            optionalString(v.Barcode),
			FulfillmentService: optionalString(v.FulfillmentService),
		})
	}
	return variants, reserved, nil
}

func (r *Reconciler) buildImages(rn *run, label string, parsed []models.ParsedImage) []models.ProductImage {
	images := make([]models.ProductImage, 0, len(parsed))
	type key struct {
		src      string
		position int
	}
	seen := make(map[key]bool, len(parsed))

	for i, img := range parsed {
		src := strings.TrimSpace(img.Src)
		if !isAbsoluteURL(src) {
			rn.report.warn(fmt.Sprintf("product %s: image %q skipped, not an absolute http(s) URL", label, src))
			continue
		}
		position := img.Position
		if position <= 0 {
			position = i + 1
		}
		k := key{src, position}
		if seen[k] {
			continue
		}
		seen[k] = true

		images = append(images, models.ProductImage{
			TenantID: rn.tenantID,
			Src:      src,
			Position: position,
			AltText:  optionalString(img.AltText),
		})
	}
	return images
}

// retry runs fn, repeating it with backoff while it fails with a transient error
func (r *Reconciler) retry(ctx context.Context, op string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= r.opts.MaxRetries || r.opts.IsTransient == nil || !r.opts.IsTransient(err) {
			return err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		delay := r.opts.Backoff(attempt)
		r.logger.WithFields(logrus.Fields{
			"operation": op,
			"attempt":   attempt + 1,
			"delay_ms":  delay.Milliseconds(),
		}).WithError(err).Warn("Transient storage error, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func isAbsoluteURL(src string) bool {
	if src == "" {
		return false
	}
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func describe(p *models.ParsedProduct) string {
	title := strings.TrimSpace(p.Title)
	handle := strings.TrimSpace(p.Handle)
	if handle == "" {
		handle = "<none>"
	}
	if p.Row > 0 {
		return fmt.Sprintf("%q (handle %s, row %d)", title, handle, p.Row)
	}
	return fmt.Sprintf("%q (handle %s)", title, handle)
}

// optionalString returns nil for empty strings, pointer otherwise
func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// reportBuilder guards the report being built
type reportBuilder struct {
	mu     sync.Mutex
	report *models.ImportReport
}

func newReportBuilder() *reportBuilder {
	return &reportBuilder{report: &models.ImportReport{
		Errors:   []string{},
		Warnings: []string{},
	}}
}

func (b *reportBuilder) warn(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Warnings = append(b.report.Warnings, msg)
}

func (b *reportBuilder) skip(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Skipped++
	b.report.Errors = append(b.report.Errors, msg)
}

func (b *reportBuilder) fail(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Failed++
	b.report.Errors = append(b.report.Errors, msg)
}

func (b *reportBuilder) created(id string, variants, images int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Imported++
	b.report.VariantsCreated += variants
	b.report.ImagesCreated += images
	b.report.CreatedIDs = append(b.report.CreatedIDs, id)
}

func (b *reportBuilder) updated(id string, variants, images int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Updated++
	b.report.VariantsCreated += variants
	b.report.ImagesCreated += images
	b.report.UpdatedIDs = append(b.report.UpdatedIDs, id)
}

func (b *reportBuilder) finish(products []*models.ParsedProduct, elapsed time.Duration) *models.ImportReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	summary := models.ImportSummary{ElapsedMs: elapsed.Milliseconds()}
	for _, p := range products {
		if p == nil {
			continue
		}
		summary.TotalProducts++
		if len(p.Variants) == 0 {
			summary.TotalVariants++
		} else {
			summary.TotalVariants += len(p.Variants)
		}
		summary.TotalImages += len(p.Images)
	}
	b.report.Summary = summary
	b.report.Success = b.report.Failed == 0
	return b.report
}
