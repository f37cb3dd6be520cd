package ingest

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-import-service/internal/classifier"
	"catalog-import-service/internal/models"
)

func newTestAssembler(format PriceFormat) *Assembler {
	logger, _ := test.NewNullLogger()
	return NewAssembler(DefaultMapping, classifier.New(classifier.DefaultRuleSet()), format, logrus.NewEntry(logger))
}

func TestAssemble_Scenario(t *testing.T) {
	content := "Handle,Title,Variant SKU,Variant Price,Image Src,Image Position\n" +
		"shirt-1,\"Red Shirt\",RED-01,1999,,\n" +
		"shirt-1,,BLUE-01,2099,http://x/img.jpg,1\n"

	asm, err := newTestAssembler(PriceFormatMinor).Assemble(content)
	require.NoError(t, err)

	require.Len(t, asm.Products, 1)
	p := asm.Products["shirt-1"]
	require.NotNil(t, p)
	assert.Equal(t, "shirt-1", p.Handle)
	assert.Equal(t, "Red Shirt", p.Title)

	require.Len(t, p.Variants, 2)
	assert.Equal(t, "RED-01", p.Variants[0].SKU)
	assert.Equal(t, int64(1999), p.Variants[0].Price)
	assert.Equal(t, "BLUE-01", p.Variants[1].SKU)
	assert.Equal(t, int64(2099), p.Variants[1].Price)

	require.Len(t, p.Images, 1)
	assert.Equal(t, models.ParsedImage{Src: "http://x/img.jpg", Position: 1}, p.Images[0])

	assert.Equal(t, "Clothing", p.CategoryName)
	assert.Empty(t, asm.Warnings)
}

func TestGroup_DedupesAndSortsImages(t *testing.T) {
	content := "Handle,Title,Variant SKU,Image Src,Image Position\n" +
		"mug,Mug,M-1,https://cdn/b.jpg,2\n" +
		"mug,,M-2,https://cdn/a.jpg,1\n" +
		"mug,,M-3,https://cdn/b.jpg,2\n" +
		"mug,,M-4,https://cdn/c.jpg,3\n"

	asm, err := newTestAssembler(PriceFormatMinor).Assemble(content)
	require.NoError(t, err)

	p := asm.Products["mug"]
	require.Len(t, p.Variants, 4)
	require.Len(t, p.Images, 3)
	assert.Equal(t, "https://cdn/a.jpg", p.Images[0].Src)
	assert.Equal(t, "https://cdn/b.jpg", p.Images[1].Src)
	assert.Equal(t, "https://cdn/c.jpg", p.Images[2].Src)
}

func TestGroup_EveryRowAppendsVariant(t *testing.T) {
	content := "Handle,Title,Variant SKU,Variant Price,Image Src,Image Position\n" +
		"shirt-1,Red Shirt,RED-01,1999,http://x/a.jpg,1\n" +
		"shirt-1,,,,http://x/b.jpg,2\n"

	tests := []struct {
		name     string
		opts     []AssemblerOption
		variants int
	}{
		{"default", nil, 2},
		{"image rows disabled", []AssemblerOption{WithImageRows(false)}, 2},
		{"image rows enabled", []AssemblerOption{WithImageRows(true)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssembler(DefaultMapping, nil, PriceFormatMinor, nil, tt.opts...)
			asm, err := a.Assemble(content)
			require.NoError(t, err)

			p := asm.Products["shirt-1"]
			require.Len(t, p.Variants, tt.variants)
			require.Len(t, p.Images, 2)
			assert.Equal(t, "RED-01", p.Variants[0].SKU)
			if tt.variants == 2 {
				assert.Equal(t, "", p.Variants[1].SKU)
				assert.Equal(t, 2, p.Variants[1].Position)
			}
		})
	}
}

func TestGroup_SkipsRowsWithoutHandle(t *testing.T) {
	content := "Handle,Title\n,Orphan\nhat,Hat\n"

	asm, err := newTestAssembler(PriceFormatMinor).Assemble(content)
	require.NoError(t, err)

	assert.Equal(t, []string{"hat"}, asm.Handles)
	require.Len(t, asm.Warnings, 1)
	assert.Equal(t, CodeMissingHandle, asm.Warnings[0].Code)
	assert.Equal(t, 2, asm.Warnings[0].Row)
}

func TestGroup_ProductLevelFields(t *testing.T) {
	content := "Handle,Title,Body (HTML),Vendor,Type,Tags,Published,Variant Price\n" +
		"tee,Tee,<p>Soft</p>,Acme,Shirts,\"cotton, , summer,null\",yes,100\n"

	asm, err := newTestAssembler(PriceFormatMinor).Assemble(content)
	require.NoError(t, err)

	p := asm.Products["tee"]
	assert.Equal(t, "<p>Soft</p>", p.BodyHTML)
	assert.Equal(t, "Acme", p.Vendor)
	assert.Equal(t, "Shirts", p.ProductType)
	assert.Equal(t, []string{"cotton", "summer"}, p.Tags)
	assert.True(t, p.Published)
	assert.Equal(t, models.ProductStatusActive, p.Status)
}

func TestGroup_CategoryHintPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantType   string
		wantName   string
		wantSource string
	}{
		{
			name:       "category outranks type",
			content:    "Handle,Title,Type,Category\nx,Boots,Shoes,Winter Wear\n",
			wantType:   "Shoes",
			wantName:   "Winter Wear",
			wantSource: string(classifier.SourceExplicit),
		},
		{
			name:       "type doubles as hint",
			content:    "Handle,Title,Type\nx,Boots,Shoes\n",
			wantType:   "Shoes",
			wantName:   "Shoes",
			wantSource: string(classifier.SourceExplicit),
		},
		{
			name:       "no hint runs classifier",
			content:    "Handle,Title\nx,Leather Boots\n",
			wantType:   "",
			wantName:   "Footwear",
			wantSource: string(classifier.SourceTitle),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asm, err := newTestAssembler(PriceFormatMinor).Assemble(tt.content)
			require.NoError(t, err)
			p := asm.Products["x"]
			assert.Equal(t, tt.wantType, p.ProductType)
			assert.Equal(t, tt.wantName, p.CategoryName)
			assert.Equal(t, tt.wantSource, p.CategorySource)
		})
	}
}

func TestGroup_TolerantNumbers(t *testing.T) {
	content := "Handle,Title,Variant Price,Variant Inventory Qty,Variant Grams,Variant Compare At Price\n" +
		"x,X,abc,-4,heavy,\n"

	asm, err := newTestAssembler(PriceFormatMinor).Assemble(content)
	require.NoError(t, err)

	v := asm.Products["x"].Variants[0]
	assert.Equal(t, int64(0), v.Price)
	assert.Equal(t, 0, v.InventoryQty)
	assert.Nil(t, v.Weight)
	assert.Nil(t, v.CompareAtPrice)

	codes := make([]string, 0, len(asm.Warnings))
	for _, w := range asm.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{CodeInvalidNumber, CodeNegativeValue, CodeInvalidNumber}, codes)
}

func TestGroup_DecimalPrices(t *testing.T) {
	content := "Handle,Title,Variant Price,Variant Compare At Price\nx,X,19.99,$25\n"

	asm, err := newTestAssembler(PriceFormatDecimal).Assemble(content)
	require.NoError(t, err)

	v := asm.Products["x"].Variants[0]
	assert.Equal(t, int64(1999), v.Price)
	require.NotNil(t, v.CompareAtPrice)
	assert.Equal(t, int64(2500), *v.CompareAtPrice)
}

func TestGroup_ColumnCountMismatchIsPadded(t *testing.T) {
	content := "Handle,Title,Variant SKU,Variant Price\n" +
		"x,X\n" +
		"x,,S-2,5,extra\n"

	asm, err := newTestAssembler(PriceFormatMinor).Assemble(content)
	require.NoError(t, err)

	p := asm.Products["x"]
	require.Len(t, p.Variants, 2)
	assert.Equal(t, "S-2", p.Variants[1].SKU)
	assert.Equal(t, int64(5), p.Variants[1].Price)
	require.Len(t, asm.Warnings, 2)
	assert.Equal(t, CodeColumnCount, asm.Warnings[0].Code)
}

func TestGroup_OptionNamesInheritFromFirstVariant(t *testing.T) {
	content := "Handle,Title,Option1 Name,Option1 Value\n" +
		"x,X,Size,S\n" +
		"x,,,M\n"

	asm, err := newTestAssembler(PriceFormatMinor).Assemble(content)
	require.NoError(t, err)

	v := asm.Products["x"].Variants
	assert.Equal(t, models.OptionValue{Name: "Size", Value: "M"}, v[1].Options[0])
}

func TestGroup_DefaultVariantForImageOnlyProduct(t *testing.T) {
	content := "Handle,Title,Image Src\nposter,Poster,https://cdn/p.jpg\n"

	a := NewAssembler(DefaultMapping, nil, PriceFormatMinor, nil, WithImageRows(true))
	asm, err := a.Assemble(content)
	require.NoError(t, err)

	p := asm.Products["poster"]
	require.Len(t, p.Variants, 1)
	assert.Equal(t, DefaultVariant(), p.Variants[0])
	assert.Equal(t, CodeDefaultVariant, asm.Warnings[0].Code)
}

func TestGroup_StructuralErrors(t *testing.T) {
	a := newTestAssembler(PriceFormatMinor)

	_, err := a.Assemble("Handle,Title\n")
	assert.ErrorIs(t, err, ErrNoDataRows)

	_, err = a.Assemble("")
	assert.ErrorIs(t, err, ErrNoDataRows)

	_, err = a.Assemble("Handle,Variant SKU\nx,S\n")
	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "Title")
}

func TestGroup_HeaderMatchingIsLenient(t *testing.T) {
	content := "handle *, TITLE ,variant sku\nx,X,S\n"

	asm, err := newTestAssembler(PriceFormatMinor).Assemble(content)
	require.NoError(t, err)
	assert.Equal(t, "X", asm.Products["x"].Title)
	assert.Equal(t, "S", asm.Products["x"].Variants[0].SKU)
}

func TestGroup_NilDetectorUsesHint(t *testing.T) {
	a := NewAssembler(DefaultMapping, nil, PriceFormatMinor, nil)

	asm, err := a.Assemble("Handle,Title,Category\nx,X,Gifts\ny,Y,\n")
	require.NoError(t, err)
	assert.Equal(t, "Gifts", asm.Products["x"].CategoryName)
	assert.Equal(t, 100, asm.Products["x"].CategoryConfidence)
	assert.Equal(t, "", asm.Products["y"].CategoryName)
}
