package ingest

import (
	"fmt"
	"strings"

	"catalog-import-service/internal/models"
)

// Validation warning codes
const (
	CodeDuplicateSKU       = "DUPLICATE_SKU"
	CodeMissingTitle       = "MISSING_TITLE"
	CodeMissingDescription = "MISSING_DESCRIPTION"
	CodeNoImages           = "NO_IMAGES"
	CodeNoTags             = "NO_TAGS"
	CodeZeroPrice          = "ZERO_PRICE"
)

// Validate reports best-practice gaps in assembled products. Nothing it reports blocks an import;
// duplicate SKUs are renamed by the reconciler.
func Validate(products []*models.ParsedProduct) []models.ImportRowError {
	var warnings []models.ImportRowError
	add := func(p *models.ParsedProduct, column, code, format string, args ...interface{}) {
		warnings = append(warnings, models.ImportRowError{
			Row:     p.Row,
			Column:  column,
			Code:    code,
			Message: fmt.Sprintf("%s: %s", p.Handle, fmt.Sprintf(format, args...)),
		})
	}

	firstOwner := make(map[string]string)
	for _, p := range products {
		if strings.TrimSpace(p.Title) == "" {
			add(p, "Title", CodeMissingTitle, "title is empty; product will be skipped")
		}
		if strings.TrimSpace(p.BodyHTML) == "" {
			add(p, "Body (HTML)", CodeMissingDescription, "no description")
		}
		if len(p.Images) == 0 {
			add(p, "Image Src", CodeNoImages, "no images")
		}
		if len(p.Tags) == 0 {
			add(p, "Tags", CodeNoTags, "no tags")
		}
		for _, v := range p.Variants {
			if v.Price == 0 {
				add(p, "Variant Price", CodeZeroPrice, "variant %d has a zero price", v.Position)
			}
			if v.SKU == "" {
				continue
			}
			if owner, dup := firstOwner[v.SKU]; dup {
				add(p, "Variant SKU", CodeDuplicateSKU, "SKU %q already used by %s; a suffix will be added", v.SKU, owner)
				continue
			}
			firstOwner[v.SKU] = p.Handle
		}
	}
	return warnings
}
