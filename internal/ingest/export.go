package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"catalog-import-service/internal/models"
)

// WriteCSV writes products in the import layout, one row per variant.
// Images beyond the variant count get image-only rows, which read back as
// images only when the assembler runs WithImageRows.
func WriteCSV(w io.Writer, mapping ColumnMapping, products []*models.ParsedProduct, format PriceFormat) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(mapping.Headers()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, p := range products {
		rows := len(p.Variants)
		if len(p.Images) > rows {
			rows = len(p.Images)
		}
		for i := 0; i < rows; i++ {
			cells := make(map[Field]string, fieldCount)
			cells[FieldHandle] = p.Handle
			if i == 0 {
				productCells(cells, p)
			}
			if i < len(p.Variants) {
				variantCells(cells, p.Variants[i], format)
			}
			if i < len(p.Images) {
				img := p.Images[i]
				cells[FieldImageSrc] = img.Src
				cells[FieldImagePosition] = strconv.Itoa(img.Position)
				cells[FieldImageAltText] = img.AltText
			}

			record := make([]string, len(mapping.Columns))
			for j, col := range mapping.Columns {
				record[j] = cells[col.Field]
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write product %s: %w", p.Handle, err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func productCells(cells map[Field]string, p *models.ParsedProduct) {
	cells[FieldTitle] = p.Title
	cells[FieldBody] = p.BodyHTML
	cells[FieldVendor] = p.Vendor
	cells[FieldType] = p.ProductType
	if p.CategoryHint != p.ProductType {
		cells[FieldCategory] = p.CategoryHint
	}
	cells[FieldTags] = joinTags(p.Tags)
	cells[FieldPublished] = strconv.FormatBool(p.Published)
	cells[FieldStatus] = strings.ToLower(string(p.Status))
}

func variantCells(cells map[Field]string, v models.ParsedVariant, format PriceFormat) {
	optionFields := [3][2]Field{
		{FieldOption1Name, FieldOption1Value},
		{FieldOption2Name, FieldOption2Value},
		{FieldOption3Name, FieldOption3Value},
	}
	for i, f := range optionFields {
		cells[f[0]] = v.Options[i].Name
		cells[f[1]] = v.Options[i].Value
	}
	cells[FieldVariantSKU] = v.SKU
	cells[FieldVariantPrice] = formatPrice(v.Price, format)
	if v.CompareAtPrice != nil {
		cells[FieldVariantCompareAtPrice] = formatPrice(*v.CompareAtPrice, format)
	}
	cells[FieldVariantInventoryQty] = strconv.Itoa(v.InventoryQty)
	if v.Weight != nil {
		cells[FieldVariantWeight] = strconv.FormatFloat(*v.Weight, 'f', -1, 64)
	}
	cells[FieldVariantWeightUnit] = v.WeightUnit
	cells[FieldVariantRequiresShipping] = strconv.FormatBool(v.RequiresShipping)
	cells[FieldVariantTaxable] = strconv.FormatBool(v.Taxable)
	cells[FieldVariantBarcode] = v.Barcode
	cells[FieldVariantFulfillmentService] = v.FulfillmentService
}

// FromProduct converts a persisted product back into the import shape
func FromProduct(p *models.Product) *models.ParsedProduct {
	parsed := &models.ParsedProduct{
		Handle:      p.Handle,
		Title:       p.Title,
		BodyHTML:    deref(p.BodyHTML),
		Vendor:      deref(p.Vendor),
		ProductType: deref(p.ProductType),
		Tags:        []string(p.Tags),
		Published:   p.Published,
		Status:      p.Status,
	}
	if p.Category != nil {
		parsed.CategoryHint = p.Category.Name
		parsed.CategoryName = p.Category.Name
	} else {
		parsed.CategoryHint = parsed.ProductType
	}
	for _, v := range p.Variants {
		parsed.Variants = append(parsed.Variants, models.ParsedVariant{
			SKU:      v.SKU,
			Position: v.Position,
			Options: [3]models.OptionValue{
				{Name: deref(v.Option1Name), Value: deref(v.Option1Value)},
				{Name: deref(v.Option2Name), Value: deref(v.Option2Value)},
				{Name: deref(v.Option3Name), Value: deref(v.Option3Value)},
			},
			Price:              v.Price,
			CompareAtPrice:     v.CompareAtPrice,
			InventoryQty:       v.InventoryQty,
			Weight:             v.Weight,
			WeightUnit:         deref(v.WeightUnit),
			RequiresShipping:   v.RequiresShipping,
			Taxable:            v.Taxable,
			Barcode:            deref(v.Barcode),
			FulfillmentService: deref(v.FulfillmentService),
		})
	}
	for _, img := range p.Images {
		parsed.Images = append(parsed.Images, models.ParsedImage{
			Src:      img.Src,
			Position: img.Position,
			AltText:  deref(img.AltText),
		})
	}
	return parsed
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
