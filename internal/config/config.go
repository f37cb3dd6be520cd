package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"catalog-import-service/internal/classifier"
	"catalog-import-service/internal/ingest"
	"catalog-import-service/internal/models"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisURL string

	// NATS
	NATSURL string

	// Server
	Port        string
	Environment string
	CORSOrigins string

	// Import settings
	PreviewTTL        time.Duration
	MaxRetries        int
	MaxFileBytes      int64
	RatePerMinute     int
	PriceFormat       ingest.PriceFormat
	CategoryRulesFile string
	CategoryFallback  string
	// ImageRows reads image-only rows as extra images instead of variants
	ImageRows bool
}

func Load() (*Config, error) {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	previewTTL, err := time.ParseDuration(getEnv("PREVIEW_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PREVIEW_TTL: %w", err)
	}
	maxRetries, _ := strconv.Atoi(getEnv("IMPORT_MAX_RETRIES", "2"))
	maxFileBytes, _ := strconv.ParseInt(getEnv("IMPORT_MAX_FILE_BYTES", "10485760"), 10, 64)
	ratePerMinute, _ := strconv.Atoi(getEnv("IMPORT_RATE_PER_MIN", "30"))
	priceFormat, err := ingest.ParsePriceFormat(getEnv("PRICE_FORMAT", "minor"))
	if err != nil {
		return nil, err
	}
	imageRows, err := strconv.ParseBool(getEnv("IMPORT_IMAGE_ROWS", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMPORT_IMAGE_ROWS: %w", err)
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "catalog_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		NATSURL:  getEnv("NATS_URL", ""),

		Port:        getEnv("PORT", "8095"),
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: getEnv("CORS_ORIGINS", ""),

		PreviewTTL:        previewTTL,
		MaxRetries:        maxRetries,
		MaxFileBytes:      maxFileBytes,
		RatePerMinute:     ratePerMinute,
		PriceFormat:       priceFormat,
		CategoryRulesFile: getEnv("CATEGORY_RULES_FILE", ""),
		CategoryFallback:  getEnv("CATEGORY_FALLBACK", ""),
		ImageRows:         imageRows,
	}, nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RuleSet returns the classifier rules, from CATEGORY_RULES_FILE when set
func (c *Config) RuleSet() (classifier.RuleSet, error) {
	rs := classifier.DefaultRuleSet()
	if c.CategoryRulesFile != "" {
		loaded, err := classifier.LoadRuleSet(c.CategoryRulesFile)
		if err != nil {
			return classifier.RuleSet{}, err
		}
		rs = loaded
	}
	if c.CategoryFallback != "" {
		rs.Fallback = c.CategoryFallback
	}
	return rs, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.IsProduction() {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Running auto-migrations...")
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.ProductVariant{},
		&models.ProductImage{},
	); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "does not exist") && strings.Contains(errStr, "constraint") {
			log.Printf("Note: Migration constraint warning (safe to ignore): %v", err)
		} else {
			return nil, fmt.Errorf("failed to run auto-migrations: %w", err)
		}
	}
	log.Println("Auto-migrations completed successfully")

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
