package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-import-service/internal/classifier"
	"catalog-import-service/internal/ingest"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, 30*time.Minute, cfg.PreviewTTL)
	assert.Equal(t, ingest.PriceFormatMinor, cfg.PriceFormat)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.False(t, cfg.ImageRows)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PRICE_FORMAT", "decimal")
	t.Setenv("PREVIEW_TTL", "5m")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("IMPORT_IMAGE_ROWS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.ImageRows)

	assert.Equal(t, ingest.PriceFormatDecimal, cfg.PriceFormat)
	assert.Equal(t, 5*time.Minute, cfg.PreviewTTL)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("PRICE_FORMAT", "cents")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("PRICE_FORMAT", "")
	t.Setenv("PREVIEW_TTL", "soon")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("PREVIEW_TTL", "")
	t.Setenv("IMPORT_IMAGE_ROWS", "sometimes")
	_, err = Load()
	assert.Error(t, err)
}

func TestRuleSet(t *testing.T) {
	cfg := &Config{CategoryFallback: "Misc"}
	rs, err := cfg.RuleSet()
	require.NoError(t, err)
	assert.Equal(t, "Misc", rs.Fallback)
	assert.Len(t, rs.Rules, len(classifier.DefaultRuleSet().Rules))

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - category: Tea\n    keywords: [tea, matcha]\n    priority: 10\n"), 0o600))

	cfg = &Config{CategoryRulesFile: path}
	rs, err = cfg.RuleSet()
	require.NoError(t, err)
	require.Len(t, rs.Rules, 1)
	assert.Equal(t, "Tea", rs.Rules[0].Category)
}
