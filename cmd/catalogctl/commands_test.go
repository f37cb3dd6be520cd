package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-import-service/internal/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTemplateCommand(t *testing.T) {
	out, err := execute(t, "template", "--format", "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Handle,Title,"))

	_, err = execute(t, "template", "--format", "pdf")
	assert.Error(t, err)
}

func TestPreviewCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	content := "Handle,Title,Variant SKU,Variant Price\nhoodie,Zip Hoodie,HD-1,4500\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	out, err := execute(t, "preview", path)
	require.NoError(t, err)

	var result models.PreviewResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Products, 1)
	assert.Equal(t, "hoodie", result.Products[0].Handle)
	assert.Equal(t, "Clothing", result.Products[0].CategoryName)
}

func TestPreviewCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "preview", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestPreviewCommand_ImageRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	content := "Handle,Title,Variant SKU,Image Src,Image Position\n" +
		"tee,Tee,TEE-1,https://cdn/a.jpg,1\n" +
		"tee,,,https://cdn/b.jpg,2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	tests := []struct {
		flag     string
		variants int
	}{
		{"--image-rows=false", 2},
		{"--image-rows=true", 1},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			out, err := execute(t, "preview", tt.flag, path)
			require.NoError(t, err)

			var result models.PreviewResult
			require.NoError(t, json.Unmarshal([]byte(out), &result))
			require.Len(t, result.Products, 1)
			assert.Len(t, result.Products[0].Variants, tt.variants)
			assert.Len(t, result.Products[0].Images, 2)
		})
	}
	imageRows = false
}
