package ingest

import (
	"fmt"
	"strings"

	"catalog-import-service/internal/models"
)

// Field identifies a semantic column of the import format
type Field int

const (
	FieldHandle Field = iota
	FieldTitle
	FieldBody
	FieldVendor
	FieldType
	FieldCategory
	FieldTags
	FieldPublished
	FieldStatus
	FieldOption1Name
	FieldOption1Value
	FieldOption2Name
	FieldOption2Value
	FieldOption3Name
	FieldOption3Value
	FieldVariantSKU
	FieldVariantWeight
	FieldVariantWeightUnit
	FieldVariantInventoryQty
	FieldVariantPrice
	FieldVariantCompareAtPrice
	FieldVariantRequiresShipping
	FieldVariantTaxable
	FieldVariantBarcode
	FieldVariantFulfillmentService
	FieldImageSrc
	FieldImagePosition
	FieldImageAltText

	fieldCount
)

// variantFields are the columns whose presence makes a row a variant row
var variantFields = []Field{
	FieldOption1Value, FieldOption2Value, FieldOption3Value,
	FieldVariantSKU, FieldVariantWeight, FieldVariantInventoryQty,
	FieldVariantPrice, FieldVariantCompareAtPrice, FieldVariantBarcode,
}

// Column maps one semantic field to the literal header expected in files
type Column struct {
	Field       Field
	Header      string
	Aliases     []string
	Required    bool
	Type        string
	Description string
	Example     string
}

// ColumnMapping is a versioned header table
type ColumnMapping struct {
	Version string
	Columns []Column
}

// DefaultMapping follows the common storefront product export layout
var DefaultMapping = ColumnMapping{
	Version: "2024.1",
	Columns: []Column{
		{Field: FieldHandle, Header: "Handle", Required: true, Type: "string", Description: "Product grouping key; rows sharing a handle form one product", Example: "classic-tee"},
		{Field: FieldTitle, Header: "Title", Required: true, Type: "string", Description: "Product title, read from the first row of each handle", Example: "Classic Tee"},
		{Field: FieldBody, Header: "Body (HTML)", Aliases: []string{"body", "description"}, Type: "string", Description: "Product description", Example: "<p>Soft cotton tee</p>"},
		{Field: FieldVendor, Header: "Vendor", Type: "string", Description: "Brand or vendor name", Example: "Acme"},
		{Field: FieldType, Header: "Type", Aliases: []string{"product type"}, Type: "string", Description: "Product type, also used as category hint when Category is empty", Example: "Shirts"},
		{Field: FieldCategory, Header: "Category", Aliases: []string{"product category", "category name"}, Type: "string", Description: "Explicit category; skips automatic detection", Example: "Clothing"},
		{Field: FieldTags, Header: "Tags", Type: "list", Description: "Comma-separated tags", Example: "cotton, summer"},
		{Field: FieldPublished, Header: "Published", Type: "boolean", Description: "true/yes/1 publishes the product", Example: "true"},
		{Field: FieldStatus, Header: "Status", Type: "string", Description: "active, draft or archived", Example: "active"},
		{Field: FieldOption1Name, Header: "Option1 Name", Type: "string", Description: "First option name", Example: "Size"},
		{Field: FieldOption1Value, Header: "Option1 Value", Type: "string", Description: "First option value", Example: "M"},
		{Field: FieldOption2Name, Header: "Option2 Name", Type: "string", Description: "Second option name", Example: "Color"},
		{Field: FieldOption2Value, Header: "Option2 Value", Type: "string", Description: "Second option value", Example: "Red"},
		{Field: FieldOption3Name, Header: "Option3 Name", Type: "string", Description: "Third option name", Example: ""},
		{Field: FieldOption3Value, Header: "Option3 Value", Type: "string", Description: "Third option value", Example: ""},
		{Field: FieldVariantSKU, Header: "Variant SKU", Aliases: []string{"sku"}, Type: "string", Description: "Variant SKU; generated from the handle when empty", Example: "TEE-M-RED"},
		{Field: FieldVariantWeight, Header: "Variant Grams", Aliases: []string{"variant weight"}, Type: "number", Description: "Variant weight", Example: "200"},
		{Field: FieldVariantWeightUnit, Header: "Variant Weight Unit", Type: "string", Description: "g, kg, lb or oz", Example: "g"},
		{Field: FieldVariantInventoryQty, Header: "Variant Inventory Qty", Aliases: []string{"inventory", "quantity"}, Type: "number", Description: "Units in stock", Example: "25"},
		{Field: FieldVariantPrice, Header: "Variant Price", Aliases: []string{"price"}, Type: "number", Description: "Variant price", Example: "1999"},
		{Field: FieldVariantCompareAtPrice, Header: "Variant Compare At Price", Aliases: []string{"compare at price"}, Type: "number", Description: "Original price shown struck through", Example: "2499"},
		{Field: FieldVariantRequiresShipping, Header: "Variant Requires Shipping", Type: "boolean", Description: "Defaults to true", Example: "true"},
		{Field: FieldVariantTaxable, Header: "Variant Taxable", Type: "boolean", Description: "Defaults to true", Example: "true"},
		{Field: FieldVariantBarcode, Header: "Variant Barcode", Aliases: []string{"barcode"}, Type: "string", Description: "UPC, EAN or ISBN", Example: "0123456789012"},
		{Field: FieldVariantFulfillmentService, Header: "Variant Fulfillment Service", Type: "string", Description: "Fulfillment service handle", Example: "manual"},
		{Field: FieldImageSrc, Header: "Image Src", Aliases: []string{"image url"}, Type: "url", Description: "Absolute http(s) image URL", Example: "https://cdn.example.com/tee.jpg"},
		{Field: FieldImagePosition, Header: "Image Position", Type: "number", Description: "1-based gallery position", Example: "1"},
		{Field: FieldImageAltText, Header: "Image Alt Text", Type: "string", Description: "Image alt text", Example: "Front view"},
	},
}

// HeaderIndex is a header row resolved against a mapping
type HeaderIndex struct {
	pos   [fieldCount]int
	width int
}

// Resolve locates every mapped column in the header row.
// Header matching ignores case, surrounding space and a trailing " *" required marker.
func (m ColumnMapping) Resolve(header Row) (HeaderIndex, error) {
	idx := HeaderIndex{width: len(header)}
	for i := range idx.pos {
		idx.pos[i] = -1
	}

	lookup := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, exists := lookup[key]; !exists {
			lookup[key] = i
		}
	}

	var missing []string
	for _, col := range m.Columns {
		for _, name := range append([]string{col.Header}, col.Aliases...) {
			if i, ok := lookup[normalizeHeader(name)]; ok {
				idx.pos[col.Field] = i
				break
			}
		}
		if col.Required && idx.pos[col.Field] < 0 {
			missing = append(missing, col.Header)
		}
	}

	if len(missing) > 0 {
		return idx, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return idx, nil
}

// Headers returns the literal headers in mapping order
func (m ColumnMapping) Headers() []string {
	headers := make([]string, len(m.Columns))
	for i, col := range m.Columns {
		headers[i] = col.Header
	}
	return headers
}

// Template describes the mapping for API clients
func (m ColumnMapping) Template() models.ImportTemplate {
	columns := make([]models.ImportTemplateColumn, len(m.Columns))
	for i, col := range m.Columns {
		columns[i] = models.ImportTemplateColumn{
			Name:        col.Header,
			Field:       fieldNames[col.Field],
			Description: col.Description,
			Required:    col.Required,
			Type:        col.Type,
			Example:     col.Example,
		}
	}
	return models.ImportTemplate{
		Entity:  "products",
		Version: m.Version,
		Columns: columns,
	}
}

// Has reports whether the header carried the field
func (h HeaderIndex) Has(f Field) bool {
	return h.pos[f] >= 0
}

// Width is the number of header columns
func (h HeaderIndex) Width() int {
	return h.width
}

// Get returns the trimmed cell for a field, or "" when the column is absent
func (h HeaderIndex) Get(row Row, f Field) string {
	i := h.pos[f]
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.ToLower(strings.TrimPrefix(h, utf8BOM)))
	h = strings.TrimSuffix(h, "*")
	return strings.TrimSpace(h)
}

var fieldNames = [fieldCount]string{
	FieldHandle:                    "handle",
	FieldTitle:                     "title",
	FieldBody:                      "bodyHtml",
	FieldVendor:                    "vendor",
	FieldType:                      "productType",
	FieldCategory:                  "category",
	FieldTags:                      "tags",
	FieldPublished:                 "published",
	FieldStatus:                    "status",
	FieldOption1Name:               "option1Name",
	FieldOption1Value:              "option1Value",
	FieldOption2Name:               "option2Name",
	FieldOption2Value:              "option2Value",
	FieldOption3Name:               "option3Name",
	FieldOption3Value:              "option3Value",
	FieldVariantSKU:                "sku",
	FieldVariantWeight:             "weight",
	FieldVariantWeightUnit:         "weightUnit",
	FieldVariantInventoryQty:       "inventoryQty",
	FieldVariantPrice:              "price",
	FieldVariantCompareAtPrice:     "compareAtPrice",
	FieldVariantRequiresShipping:   "requiresShipping",
	FieldVariantTaxable:            "taxable",
	FieldVariantBarcode:            "barcode",
	FieldVariantFulfillmentService: "fulfillmentService",
	FieldImageSrc:                  "imageSrc",
	FieldImagePosition:             "imagePosition",
	FieldImageAltText:              "imageAltText",
}
