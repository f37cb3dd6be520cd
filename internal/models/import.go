package models

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Field       string `json:"field"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, boolean, list, url
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// ImportRowError represents a problem found on a specific row of the uploaded file
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OptionValue is one (name, value) option pair of a variant, e.g. Size=M
type OptionValue struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}

// ParsedVariant is one variant row as read from an import file.
// Prices are integer minor currency units.
type ParsedVariant struct {
	SKU                string         `json:"sku,omitempty"`
	Position           int            `json:"position"`
	Options            [3]OptionValue `json:"options"`
	Price              int64          `json:"price"`
	CompareAtPrice     *int64         `json:"compareAtPrice,omitempty"`
	InventoryQty       int            `json:"inventoryQty"`
	Weight             *float64       `json:"weight,omitempty"`
	WeightUnit         string         `json:"weightUnit,omitempty"`
	RequiresShipping   bool           `json:"requiresShipping"`
	Taxable            bool           `json:"taxable"`
	Barcode            string         `json:"barcode,omitempty"`
	FulfillmentService string         `json:"fulfillmentService,omitempty"`
}

// ParsedImage is an image reference read from an import file
type ParsedImage struct {
	Src      string `json:"src"`
	Position int    `json:"position"`
	AltText  string `json:"altText,omitempty"`
}

// ParsedProduct groups every row sharing one handle
type ParsedProduct struct {
	Handle             string          `json:"handle"`
	Title              string          `json:"title"`
	BodyHTML           string          `json:"bodyHtml,omitempty"`
	Vendor             string          `json:"vendor,omitempty"`
	ProductType        string          `json:"productType,omitempty"`
	CategoryHint       string          `json:"categoryHint,omitempty"`
	Tags               []string        `json:"tags,omitempty"`
	Published          bool            `json:"published"`
	Status             ProductStatus   `json:"status"`
	Variants           []ParsedVariant `json:"variants"`
	Images             []ParsedImage   `json:"images,omitempty"`
	CategoryName       string          `json:"categoryName,omitempty"`
	CategoryConfidence int             `json:"categoryConfidence"`
	CategorySource     string          `json:"categorySource,omitempty"`
	// Row is the 1-based file line of the product's first row, 0 when unknown
	Row int `json:"row,omitempty"`
}

// ImportSummary holds totals for one reconciliation pass
type ImportSummary struct {
	TotalProducts int   `json:"totalProducts"`
	TotalVariants int   `json:"totalVariants"`
	TotalImages   int   `json:"totalImages"`
	ElapsedMs     int64 `json:"elapsedMs"`
}

// ImportReport is the outcome of one reconciliation pass
type ImportReport struct {
	Success         bool          `json:"success"`
	Imported        int           `json:"imported"`
	Updated         int           `json:"updated"`
	Failed          int           `json:"failed"`
	Skipped         int           `json:"skipped"`
	VariantsCreated int           `json:"variantsCreated"`
	ImagesCreated   int           `json:"imagesCreated"`
	Errors          []string      `json:"errors"`
	Warnings        []string      `json:"warnings"`
	CreatedIDs      []string      `json:"createdIds,omitempty"`
	UpdatedIDs      []string      `json:"updatedIds,omitempty"`
	Summary         ImportSummary `json:"summary"`
}

// PreviewResult is returned by the dry-run path; nothing is written
type PreviewResult struct {
	Success            bool             `json:"success"`
	PreviewToken       string           `json:"previewToken,omitempty"`
	TotalRows          int              `json:"totalRows"`
	TotalProducts      int              `json:"totalProducts"`
	TotalVariants      int              `json:"totalVariants"`
	TotalImages        int              `json:"totalImages"`
	Products           []*ParsedProduct `json:"products"`
	RowWarnings        []ImportRowError `json:"rowWarnings,omitempty"`
	ValidationWarnings []ImportRowError `json:"validationWarnings,omitempty"`
}

// ImportResult wraps a committed import for API responses
type ImportResult struct {
	*ImportReport
	TotalRows    int              `json:"totalRows"`
	RowWarnings  []ImportRowError `json:"rowWarnings,omitempty"`
	ProcessingMs int64            `json:"processingMs"`
}
