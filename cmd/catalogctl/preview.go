package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"catalog-import-service/internal/ingest"
	"catalog-import-service/internal/services"
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Parse, group and classify a catalog file without writing anything",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger()

	assembler, err := newAssembler(cfg, logger)
	if err != nil {
		return err
	}
	upload, err := readUpload(args[0])
	if err != nil {
		return err
	}

	svc := services.NewImportService(services.Deps{
		Assembler:   assembler,
		Mapping:     ingest.DefaultMapping,
		PriceFormat: cfg.PriceFormat,
	}, logger)

	result, err := svc.Preview(context.Background(), "cli", upload)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readUpload(path string) (services.Upload, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return services.Upload{}, fmt.Errorf("read %s: %w", path, err)
	}
	return services.Upload{Filename: filepath.Base(path), Content: content}, nil
}
