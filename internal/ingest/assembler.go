package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/classifier"
	"catalog-import-service/internal/models"
)

// Row warning codes
const (
	CodeMissingHandle  = "MISSING_HANDLE"
	CodeColumnCount    = "COLUMN_COUNT"
	CodeInvalidNumber  = "INVALID_NUMBER"
	CodeNegativeValue  = "NEGATIVE_VALUE"
	CodeDefaultVariant = "DEFAULT_VARIANT"
)

// Detector assigns a category to product text
type Detector interface {
	Detect(fields classifier.Fields) classifier.DetectionResult
}

// Assembly is the grouped output of one file
type Assembly struct {
	Products  map[string]*models.ParsedProduct
	Handles   []string
	Warnings  []models.ImportRowError
	TotalRows int
}

// Ordered returns the products in first-seen handle order
func (a *Assembly) Ordered() []*models.ParsedProduct {
	products := make([]*models.ParsedProduct, 0, len(a.Handles))
	for _, h := range a.Handles {
		products = append(products, a.Products[h])
	}
	return products
}

// Totals counts variants and images across products
func (a *Assembly) Totals() (variants, images int) {
	for _, p := range a.Products {
		variants += len(p.Variants)
		images += len(p.Images)
	}
	return variants, images
}

// Assembler groups rows into products
type Assembler struct {
	mapping     ColumnMapping
	detector    Detector
	priceFormat PriceFormat
	imageRows   bool
	logger      *logrus.Entry
}

// AssemblerOption tunes row handling
type AssemblerOption func(*Assembler)

// WithImageRows treats rows that carry an image and no variant columns as
// image-only, the way Shopify exports list extra product images. Off by
// default: every row with a handle appends a variant.
func WithImageRows(enabled bool) AssemblerOption {
	return func(a *Assembler) {
		a.imageRows = enabled
	}
}

// NewAssembler creates an assembler. A nil detector leaves categories to the explicit hint.
func NewAssembler(mapping ColumnMapping, detector Detector, priceFormat PriceFormat, logger *logrus.Entry, opts ...AssemblerOption) *Assembler {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if priceFormat == "" {
		priceFormat = PriceFormatMinor
	}
	a := &Assembler{
		mapping:     mapping,
		detector:    detector,
		priceFormat: priceFormat,
		logger:      logger.WithField("component", "assembler"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble parses raw CSV content and groups it
func (a *Assembler) Assemble(content string) (*Assembly, error) {
	rows, err := Parse(content)
	if err != nil {
		return nil, err
	}
	return a.AssembleRows(rows)
}

// AssembleRows groups rows whose first entry is the header
func (a *Assembler) AssembleRows(rows []Row) (*Assembly, error) {
	if len(rows) < 2 {
		return nil, ErrNoDataRows
	}
	return a.Group(rows[0], rows[1:])
}

// Group builds one product per handle from the data rows
func (a *Assembler) Group(header Row, rows []Row) (*Assembly, error) {
	if len(header) == 0 || len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	idx, err := a.mapping.Resolve(header)
	if err != nil {
		return nil, err
	}

	asm := &Assembly{
		Products:  make(map[string]*models.ParsedProduct),
		TotalRows: len(rows),
	}

	for i, row := range rows {
		// header is line 1
		rowNum := i + 2

		if len(row) != idx.Width() {
			asm.warn(rowNum, "", CodeColumnCount, fmt.Sprintf("row has %d columns, header has %d", len(row), idx.Width()))
			row = fitRow(row, idx.Width())
		}

		handle := idx.Get(row, FieldHandle)
		if handle == "" {
			asm.warn(rowNum, a.mapping.header(FieldHandle), CodeMissingHandle, "row skipped: handle is empty")
			continue
		}

		product, seen := asm.Products[handle]
		if !seen {
			product = a.newProduct(idx, row, rowNum, handle)
			asm.Products[handle] = product
			asm.Handles = append(asm.Handles, handle)
		}

		src := idx.Get(row, FieldImageSrc)
		if !a.imageRows || src == "" || hasVariantData(idx, row) {
			a.appendVariant(asm, idx, row, rowNum, product)
		}
		if src != "" {
			a.appendImage(asm, idx, row, rowNum, product, src)
		}
	}

	for _, handle := range asm.Handles {
		product := asm.Products[handle]
		sort.SliceStable(product.Images, func(i, j int) bool {
			return product.Images[i].Position < product.Images[j].Position
		})
		if len(product.Variants) == 0 {
			product.Variants = []models.ParsedVariant{DefaultVariant()}
			asm.warn(product.Row, "", CodeDefaultVariant, fmt.Sprintf("product %q has no variant rows; default variant added", handle))
		}
		a.classify(product)
	}

	a.logger.WithFields(logrus.Fields{
		"rows":     asm.TotalRows,
		"products": len(asm.Handles),
		"warnings": len(asm.Warnings),
	}).Debug("Assembled import rows")

	return asm, nil
}

// DefaultVariant is the synthetic variant for products without variant rows
func DefaultVariant() models.ParsedVariant {
	return models.ParsedVariant{
		Position:         1,
		RequiresShipping: true,
		Taxable:          true,
	}
}

func (a *Assembler) newProduct(idx HeaderIndex, row Row, rowNum int, handle string) *models.ParsedProduct {
	productType := idx.Get(row, FieldType)
	hint := idx.Get(row, FieldCategory)
	if hint == "" {
		hint = productType
	}

	published := parseBool(idx.Get(row, FieldPublished))
	return &models.ParsedProduct{
		Handle:       handle,
		Title:        idx.Get(row, FieldTitle),
		BodyHTML:     idx.Get(row, FieldBody),
		Vendor:       idx.Get(row, FieldVendor),
		ProductType:  productType,
		CategoryHint: hint,
		Tags:         parseTags(idx.Get(row, FieldTags)),
		Published:    published,
		Status:       parseStatus(idx.Get(row, FieldStatus), published),
		Row:          rowNum,
	}
}

func (a *Assembler) appendVariant(asm *Assembly, idx HeaderIndex, row Row, rowNum int, product *models.ParsedProduct) {
	v := models.ParsedVariant{
		SKU:                idx.Get(row, FieldVariantSKU),
		Position:           len(product.Variants) + 1,
		WeightUnit:         idx.Get(row, FieldVariantWeightUnit),
		RequiresShipping:   parseFlag(idx.Get(row, FieldVariantRequiresShipping), true),
		Taxable:            parseFlag(idx.Get(row, FieldVariantTaxable), true),
		Barcode:            idx.Get(row, FieldVariantBarcode),
		FulfillmentService: idx.Get(row, FieldVariantFulfillmentService),
	}

	optionFields := [3][2]Field{
		{FieldOption1Name, FieldOption1Value},
		{FieldOption2Name, FieldOption2Value},
		{FieldOption3Name, FieldOption3Value},
	}
	for i, f := range optionFields {
		v.Options[i] = models.OptionValue{Name: idx.Get(row, f[0]), Value: idx.Get(row, f[1])}
		// later rows usually leave the option name to the first variant
		if v.Options[i].Name == "" && v.Options[i].Value != "" && len(product.Variants) > 0 {
			v.Options[i].Name = product.Variants[0].Options[i].Name
		}
	}

	if price, ok := a.price(asm, idx, row, rowNum, FieldVariantPrice); ok {
		v.Price = price
	}
	if compareAt, ok := a.price(asm, idx, row, rowNum, FieldVariantCompareAtPrice); ok {
		v.CompareAtPrice = &compareAt
	}

	if cell := idx.Get(row, FieldVariantInventoryQty); cell != "" {
		qty, ok := parseOptionalInt(cell)
		switch {
		case !ok:
			asm.warn(rowNum, a.mapping.header(FieldVariantInventoryQty), CodeInvalidNumber, fmt.Sprintf("invalid inventory quantity %q", cell))
		case qty < 0:
			asm.warn(rowNum, a.mapping.header(FieldVariantInventoryQty), CodeNegativeValue, fmt.Sprintf("negative inventory quantity %d set to 0", qty))
		default:
			v.InventoryQty = int(qty)
		}
	}

	if cell := idx.Get(row, FieldVariantWeight); cell != "" {
		if w, ok := parseOptionalFloat(cell); ok && w >= 0 {
			v.Weight = &w
		} else {
			asm.warn(rowNum, a.mapping.header(FieldVariantWeight), CodeInvalidNumber, fmt.Sprintf("invalid weight %q", cell))
		}
	}

	product.Variants = append(product.Variants, v)
}

func (a *Assembler) price(asm *Assembly, idx HeaderIndex, row Row, rowNum int, f Field) (int64, bool) {
	cell := idx.Get(row, f)
	if cell == "" {
		return 0, false
	}
	column := a.mapping.header(f)
	amount, ok := parsePrice(cell, a.priceFormat)
	if !ok {
		asm.warn(rowNum, column, CodeInvalidNumber, fmt.Sprintf("invalid %s price %q", a.priceFormat, cell))
		return 0, false
	}
	if amount < 0 {
		asm.warn(rowNum, column, CodeNegativeValue, fmt.Sprintf("negative price %s set to 0", cell))
		return 0, true
	}
	return amount, true
}

func (a *Assembler) appendImage(asm *Assembly, idx HeaderIndex, row Row, rowNum int, product *models.ParsedProduct, src string) {
	position := len(product.Images) + 1
	if cell := idx.Get(row, FieldImagePosition); cell != "" {
		if p, ok := parseOptionalInt(cell); ok && p > 0 {
			position = int(p)
		} else {
			asm.warn(rowNum, a.mapping.header(FieldImagePosition), CodeInvalidNumber, fmt.Sprintf("invalid image position %q", cell))
		}
	}

	for _, img := range product.Images {
		if img.Src == src && img.Position == position {
			return
		}
	}
	product.Images = append(product.Images, models.ParsedImage{
		Src:      src,
		Position: position,
		AltText:  idx.Get(row, FieldImageAltText),
	})
}

func (a *Assembler) classify(product *models.ParsedProduct) {
	if a.detector == nil {
		product.CategoryName = product.CategoryHint
		if product.CategoryHint != "" {
			product.CategoryConfidence = 100
			product.CategorySource = string(classifier.SourceExplicit)
		}
		return
	}
	result := a.detector.Detect(Fields(product))
	product.CategoryName = result.Category
	product.CategoryConfidence = result.Confidence
	product.CategorySource = string(result.Source)
}

func (asm *Assembly) warn(row int, column, code, message string) {
	asm.Warnings = append(asm.Warnings, models.ImportRowError{
		Row:     row,
		Column:  column,
		Code:    code,
		Message: message,
	})
}

func (m ColumnMapping) header(f Field) string {
	for _, col := range m.Columns {
		if col.Field == f {
			return col.Header
		}
	}
	return ""
}

func hasVariantData(idx HeaderIndex, row Row) bool {
	for _, f := range variantFields {
		if idx.Get(row, f) != "" {
			return true
		}
	}
	return false
}

func fitRow(row Row, width int) Row {
	if len(row) > width {
		return row[:width]
	}
	padded := make(Row, width)
	copy(padded, row)
	return padded
}

// Fields returns the classifier input for a product
func Fields(p *models.ParsedProduct) classifier.Fields {
	return classifier.Fields{
		Title:        p.Title,
		Description:  strings.TrimSpace(p.BodyHTML),
		Tags:         p.Tags,
		Handle:       p.Handle,
		Vendor:       p.Vendor,
		ExplicitType: p.CategoryHint,
	}
}
