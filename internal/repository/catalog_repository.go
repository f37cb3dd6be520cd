package repository

import (
	"context"
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"catalog-import-service/internal/models"
	"catalog-import-service/internal/reconciler"
)

// ErrProductNotFound is returned when a replace targets a missing product
var ErrProductNotFound = errors.New("product not found")

type CatalogRepository struct {
	db *gorm.DB
}

var _ reconciler.Store = (*CatalogRepository)(nil)

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FindProductByHandle looks a product up by its natural key; nil, nil when absent
func (r *CatalogRepository) FindProductByHandle(ctx context.Context, tenantID, handle string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND handle = ?", tenantID, handle).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product %s: %w", handle, err)
	}
	return &product, nil
}

// UpsertCategory resolves a category by slug, then by case-insensitive name,
// and creates it when neither matches. Names with the same slug share a category.
func (r *CatalogRepository) UpsertCategory(ctx context.Context, tenantID, name string) (*models.Category, error) {
	slug := CategorySlug(name)
	var category *models.Category

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findCategory(tx, tenantID, slug, name)
		if err != nil {
			return err
		}
		if found != nil {
			category = found
			return nil
		}

		now := time.Now()
		category = &models.Category{
			ID:        uuid.New(),
			TenantID:  tenantID,
			Name:      name,
			Slug:      slug,
			Level:     0,
			Position:  1,
			IsActive:  true,
			Status:    "ACTIVE",
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(category).Error; err != nil {
			return fmt.Errorf("failed to create category '%s': %w", name, err)
		}
		return nil
	})

	if err != nil {
		// created by a concurrent import, or another name with the same slug
		if IsUniqueViolation(err) {
			if found, findErr := findCategory(r.db.WithContext(ctx), tenantID, slug, name); findErr == nil && found != nil {
				return found, nil
			}
		}
		return nil, err
	}
	return category, nil
}

// CategorySlug is the unique category key for a name. Names without any
// letters or digits get a stable hash-based slug.
func CategorySlug(name string) string {
	if slug := reconciler.Slugify(name); slug != "" {
		return slug
	}
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(name))))
	return "category-" + hex.EncodeToString(sum[:6])
}

func findCategory(db *gorm.DB, tenantID, slug, name string) (*models.Category, error) {
	var bySlug models.Category
	err := db.Where("tenant_id = ? AND slug = ?", tenantID, slug).First(&bySlug).Error
	if err == nil {
		return &bySlug, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to lookup category: %w", err)
	}

	var byName models.Category
	err = db.Where("tenant_id = ? AND LOWER(name) = LOWER(?)", tenantID, name).First(&byName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup category: %w", err)
	}
	return &byName, nil
}

// SKUTaken reports whether a product other than excludeProductID owns the SKU
func (r *CatalogRepository) SKUTaken(ctx context.Context, tenantID, sku string, excludeProductID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProductVariant{}).
		Where("tenant_id = ? AND sku = ? AND product_id <> ?", tenantID, sku, excludeProductID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check sku %s: %w", sku, err)
	}
	return count > 0, nil
}

// CreateProduct inserts the product and its children in one transaction
func (r *CatalogRepository) CreateProduct(ctx context.Context, product *models.Product, variants []models.ProductVariant, images []models.ProductImage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if product.ID == uuid.Nil {
			product.ID = uuid.New()
		}
		if err := tx.Omit(clause.Associations).Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		return createChildren(tx, product, variants, images)
	})
}

// ReplaceProduct updates scalar fields and swaps all variants and images in one transaction
func (r *CatalogRepository) ReplaceProduct(ctx context.Context, product *models.Product, variants []models.ProductVariant, images []models.ProductImage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Product{}).
			Where("id = ? AND tenant_id = ?", product.ID, product.TenantID).
			Updates(map[string]interface{}{
				"category_id":  product.CategoryID,
				"title":        product.Title,
				"body_html":    product.BodyHTML,
				"vendor":       product.Vendor,
				"product_type": product.ProductType,
				"tags":         product.Tags,
				"published":    product.Published,
				"status":       product.Status,
				"updated_at":   time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update product: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}

		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductVariant{}).Error; err != nil {
			return fmt.Errorf("failed to delete variants: %w", err)
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductImage{}).Error; err != nil {
			return fmt.Errorf("failed to delete images: %w", err)
		}
		return createChildren(tx, product, variants, images)
	})
}

func createChildren(tx *gorm.DB, product *models.Product, variants []models.ProductVariant, images []models.ProductImage) error {
	for i := range variants {
		variants[i].ID = uuid.New()
		variants[i].ProductID = product.ID
		variants[i].TenantID = product.TenantID
	}
	for i := range images {
		images[i].ID = uuid.New()
		images[i].ProductID = product.ID
		images[i].TenantID = product.TenantID
	}

	if len(variants) > 0 {
		if err := tx.Create(&variants).Error; err != nil {
			return fmt.Errorf("failed to create variants: %w", err)
		}
	}
	if len(images) > 0 {
		if err := tx.Create(&images).Error; err != nil {
			return fmt.Errorf("failed to create images: %w", err)
		}
	}
	return nil
}

// ListProducts loads the tenant's catalog with children, ordered by handle
func (r *CatalogRepository) ListProducts(ctx context.Context, tenantID string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Category").
		Order("handle ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Ping checks the database connection
func (r *CatalogRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Postgres error classes worth retrying
var transientCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57P01": true, // admin_shutdown
	"53300": true, // too_many_connections
}

// IsTransient reports whether a storage error may succeed on retry
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientCodes[pgErr.Code] || strings.HasPrefix(pgErr.Code, "08")
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") || strings.Contains(msg, "broken pipe")
}

// IsUniqueViolation reports a unique constraint failure
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate")
}
