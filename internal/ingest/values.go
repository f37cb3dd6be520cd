package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"catalog-import-service/internal/models"
)

// PriceFormat tells how price cells are written
type PriceFormat string

const (
	// PriceFormatMinor cells hold an integer count of minor units ("1999")
	PriceFormatMinor PriceFormat = "minor"
	// PriceFormatDecimal cells hold a decimal major amount ("19.99")
	PriceFormatDecimal PriceFormat = "decimal"
)

// ParsePriceFormat validates a configured price format; empty means minor
func ParsePriceFormat(s string) (PriceFormat, error) {
	switch PriceFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", PriceFormatMinor:
		return PriceFormatMinor, nil
	case PriceFormatDecimal:
		return PriceFormatDecimal, nil
	default:
		return "", fmt.Errorf("unknown price format %q", s)
	}
}

var truthyTokens = map[string]bool{
	"true":      true,
	"yes":       true,
	"y":         true,
	"1":         true,
	"published": true,
	"active":    true,
}

// parseBool reports whether the cell holds a truthy token
func parseBool(value string) bool {
	return truthyTokens[strings.ToLower(strings.TrimSpace(value))]
}

// parseFlag is parseBool with a default for empty cells
func parseFlag(value string, def bool) bool {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return parseBool(value)
}

// parseOptionalInt returns ok=false for empty or unparseable input.
// Integral decimals such as "12.0" are accepted.
func parseOptionalInt(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// parseOptionalFloat returns ok=false for empty or unparseable input
func parseOptionalFloat(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parsePrice converts a price cell into minor units
func parsePrice(value string, format PriceFormat) (int64, bool) {
	value = strings.TrimSpace(value)
	value = strings.TrimLeft(value, "$€£¥₹")
	value = strings.ReplaceAll(value, " ", "")
	if value == "" {
		return 0, false
	}
	if format != PriceFormatDecimal {
		return parseOptionalInt(value)
	}
	return parseDecimalMinor(value)
}

// parseDecimalMinor parses "19.99" into 1999 without going through float64.
// More than two fraction digits are accepted only when the extra digits are zero.
func parseDecimalMinor(value string) (int64, bool) {
	value = strings.ReplaceAll(value, ",", "")
	neg := strings.HasPrefix(value, "-")
	value = strings.TrimPrefix(strings.TrimPrefix(value, "-"), "+")

	whole, frac, _ := strings.Cut(value, ".")
	if whole == "" && frac == "" {
		return 0, false
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		if strings.Trim(frac[2:], "0") != "" {
			return 0, false
		}
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, false
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > (math.MaxInt64-99)/100 {
		return 0, false
	}
	cents, _ := strconv.ParseInt(frac, 10, 64)
	amount := units*100 + cents
	if neg {
		amount = -amount
	}
	return amount, true
}

// formatPrice is the inverse of parsePrice
func formatPrice(amount int64, format PriceFormat) string {
	if format != PriceFormatDecimal {
		return strconv.FormatInt(amount, 10)
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseTags splits a comma separated list, dropping empty entries
func parseTags(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(value, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// joinTags is the inverse of parseTags. A comma inside a tag would split it
// on re-import, so it is written as a space.
func joinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.Join(strings.Fields(strings.ReplaceAll(tag, ",", " ")), " ")
		if tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return strings.Join(cleaned, ", ")
}

// parseStatus maps a status cell, falling back to the published flag
func parseStatus(value string, published bool) models.ProductStatus {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "active":
		return models.ProductStatusActive
	case "draft":
		return models.ProductStatusDraft
	case "archived":
		return models.ProductStatusArchived
	}
	if published {
		return models.ProductStatusActive
	}
	return models.ProductStatusDraft
}
