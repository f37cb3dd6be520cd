package main

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"catalog-import-service/internal/classifier"
	"catalog-import-service/internal/config"
	"catalog-import-service/internal/ingest"
)

var (
	envFile     string
	verbose     bool
	priceFormat string
	rulesFile   string
	imageRows   bool
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Catalog import tooling",
	Long: `catalogctl previews and imports storefront catalog files (CSV or XLSX)
using the same parser, classifier and reconciler as the catalog import service.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			return godotenv.Load(envFile)
		}
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "dotenv file to load")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&priceFormat, "price-format", "", "minor or decimal (defaults to PRICE_FORMAT)")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "category rules YAML (defaults to CATEGORY_RULES_FILE)")
	rootCmd.PersistentFlags().BoolVar(&imageRows, "image-rows", false, "read image-only rows as extra images (defaults to IMPORT_IMAGE_ROWS)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// loadConfig applies command line overrides on top of the environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if priceFormat != "" {
		if cfg.PriceFormat, err = ingest.ParsePriceFormat(priceFormat); err != nil {
			return nil, err
		}
	}
	if rulesFile != "" {
		cfg.CategoryRulesFile = rulesFile
	}
	if imageRows {
		cfg.ImageRows = true
	}
	return cfg, nil
}

func newAssembler(cfg *config.Config, logger *logrus.Logger) (*ingest.Assembler, error) {
	rules, err := cfg.RuleSet()
	if err != nil {
		return nil, err
	}
	return ingest.NewAssembler(ingest.DefaultMapping, classifier.New(rules), cfg.PriceFormat, logrus.NewEntry(logger),
		ingest.WithImageRows(cfg.ImageRows)), nil
}
