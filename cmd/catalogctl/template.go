package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"catalog-import-service/internal/ingest"
	"catalog-import-service/internal/models"
	"catalog-import-service/internal/services"
)

var (
	templateFormat string
	templateOutput string
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write an empty import template",
	RunE:  runTemplate,
}

func init() {
	templateCmd.Flags().StringVar(&templateFormat, "format", "csv", "csv or xlsx")
	templateCmd.Flags().StringVarP(&templateOutput, "output", "o", "", "output file (defaults to stdout)")
	rootCmd.AddCommand(templateCmd)
}

func runTemplate(cmd *cobra.Command, args []string) error {
	format := models.ImportFormat(templateFormat)
	if format != models.ImportFormatCSV && format != models.ImportFormatXLSX {
		return fmt.Errorf("unsupported format %q", templateFormat)
	}

	var out io.Writer = cmd.OutOrStdout()
	if templateOutput != "" {
		f, err := os.Create(templateOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	svc := services.NewImportService(services.Deps{Mapping: ingest.DefaultMapping}, newLogger())
	return svc.WriteTemplate(out, format)
}
