package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-import-service/internal/models"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in     string
		format PriceFormat
		want   int64
		ok     bool
	}{
		{"1999", PriceFormatMinor, 1999, true},
		{" 1999 ", PriceFormatMinor, 1999, true},
		{"1999.0", PriceFormatMinor, 1999, true},
		{"19.99", PriceFormatMinor, 0, false},
		{"", PriceFormatMinor, 0, false},
		{"abc", PriceFormatMinor, 0, false},
		{"9007199254740992.0", PriceFormatMinor, 9007199254740992, true},
		{"9223372036854775808", PriceFormatMinor, 0, false},
		{"9223372036854775808.0", PriceFormatMinor, 0, false},
		{"9.3e18", PriceFormatMinor, 0, false},
		{"19.99", PriceFormatDecimal, 1999, true},
		{"19.9", PriceFormatDecimal, 1990, true},
		{"19", PriceFormatDecimal, 1900, true},
		{".5", PriceFormatDecimal, 50, true},
		{"1,234.50", PriceFormatDecimal, 123450, true},
		{"€4.10", PriceFormatDecimal, 410, true},
		{"4.100", PriceFormatDecimal, 410, true},
		{"4.105", PriceFormatDecimal, 0, false},
		{"-3.00", PriceFormatDecimal, -300, true},
		{"1.2.3", PriceFormatDecimal, 0, false},
	}
	for _, tt := range tests {
		got, ok := parsePrice(tt.in, tt.format)
		assert.Equal(t, tt.ok, ok, "%q (%s)", tt.in, tt.format)
		assert.Equal(t, tt.want, got, "%q (%s)", tt.in, tt.format)
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "1999", formatPrice(1999, PriceFormatMinor))
	assert.Equal(t, "19.99", formatPrice(1999, PriceFormatDecimal))
	assert.Equal(t, "0.05", formatPrice(5, PriceFormatDecimal))
	assert.Equal(t, "-1.50", formatPrice(-150, PriceFormatDecimal))
}

func TestParsePriceFormat(t *testing.T) {
	f, err := ParsePriceFormat("")
	require.NoError(t, err)
	assert.Equal(t, PriceFormatMinor, f)

	f, err = ParsePriceFormat("Decimal")
	require.NoError(t, err)
	assert.Equal(t, PriceFormatDecimal, f)

	_, err = ParsePriceFormat("cents")
	assert.Error(t, err)
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "yes", "y", "1", "published", "Active"} {
		assert.True(t, parseBool(s), s)
	}
	for _, s := range []string{"", "false", "no", "0", "draft", "maybe"} {
		assert.False(t, parseBool(s), s)
	}
	assert.True(t, parseFlag("", true))
	assert.False(t, parseFlag("no", true))
}

func TestParseTags(t *testing.T) {
	assert.Nil(t, parseTags("  "))
	assert.Equal(t, []string{"a", "b c"}, parseTags(" a ,, b c ,"))
	assert.Equal(t, []string{"none", "0", "false", "null"}, parseTags("none, 0, false, null"))
}

func TestJoinTags(t *testing.T) {
	assert.Equal(t, "", joinTags(nil))
	assert.Equal(t, "waxed, cotton", joinTags([]string{"waxed", "cotton"}))
	assert.Equal(t, "salt pepper, grinder", joinTags([]string{"salt, pepper", "grinder", " , "}))
	assert.Equal(t, []string{"salt pepper", "grinder"}, parseTags(joinTags([]string{"salt,pepper", "grinder"})))
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, models.ProductStatusArchived, parseStatus("Archived", true))
	assert.Equal(t, models.ProductStatusActive, parseStatus("", true))
	assert.Equal(t, models.ProductStatusDraft, parseStatus("", false))
	assert.Equal(t, models.ProductStatusDraft, parseStatus("unknown", false))
}
