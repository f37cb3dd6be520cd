package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"catalog-import-service/internal/config"
	"catalog-import-service/internal/ingest"
	"catalog-import-service/internal/reconciler"
	"catalog-import-service/internal/repository"
	"catalog-import-service/internal/services"
)

var importTenantID string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a catalog file into the configured database",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().StringVar(&importTenantID, "tenant", "", "Tenant ID (required)")
	importCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	repo := repository.NewCatalogRepository(db)

	svc := services.NewImportService(services.Deps{
		Assembler: assembler,
		Reconciler: reconciler.New(repo, reconciler.Options{
			MaxRetries:  cfg.MaxRetries,
			IsTransient: repository.IsTransient,
		}, nil),
		Catalog:     repo,
		Mapping:     ingest.DefaultMapping,
		PriceFormat: cfg.PriceFormat,
	}, logger)

	result, err := svc.Commit(ctx, importTenantID, &upload, "")
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%d of %d products failed", result.Failed, result.Summary.TotalProducts)
	}
	return nil
}
