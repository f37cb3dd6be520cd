package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "DRAFT"
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

// StringList type for PostgreSQL JSONB (array of strings)
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(s)
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = make(StringList, 0)
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Product is the persisted catalog product. Handle is the natural key used by imports.
type Product struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string           `json:"tenantId" gorm:"not null;index:idx_products_tenant_handle,unique;index:idx_products_tenant_status"`
	CategoryID  *uuid.UUID       `json:"categoryId,omitempty" gorm:"type:uuid;index"`
	Handle      string           `json:"handle" gorm:"not null;index:idx_products_tenant_handle,unique"`
	Title       string           `json:"title" gorm:"not null"`
	BodyHTML    *string          `json:"bodyHtml,omitempty" gorm:"type:text"`
	Vendor      *string          `json:"vendor,omitempty" gorm:"index"`
	ProductType *string          `json:"productType,omitempty"`
	Tags        StringList       `json:"tags" gorm:"type:jsonb"`
	Published   bool             `json:"published" gorm:"not null"`
	Status      ProductStatus    `json:"status" gorm:"not null;default:'DRAFT';index:idx_products_tenant_status"`
	Variants    []ProductVariant `json:"variants,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images      []ProductImage   `json:"images,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Category    *Category        `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// ProductVariant is one purchasable SKU of a product. Prices are minor currency units.
type ProductVariant struct {
	ID                 uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID           string    `json:"tenantId" gorm:"not null;index:idx_variants_tenant_sku,unique"`
	ProductID          uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	SKU                string    `json:"sku" gorm:"not null;index:idx_variants_tenant_sku,unique"`
	Position           int       `json:"position" gorm:"not null;default:1"`
	Option1Name        *string   `json:"option1Name,omitempty"`
	Option1Value       *string   `json:"option1Value,omitempty"`
	Option2Name        *string   `json:"option2Name,omitempty"`
	Option2Value       *string   `json:"option2Value,omitempty"`
	Option3Name        *string   `json:"option3Name,omitempty"`
	Option3Value       *string   `json:"option3Value,omitempty"`
	Price              int64     `json:"price" gorm:"not null;default:0"`
	CompareAtPrice     *int64    `json:"compareAtPrice,omitempty"`
	InventoryQty       int       `json:"inventoryQty" gorm:"not null;default:0"`
	Weight             *float64  `json:"weight,omitempty"`
	WeightUnit         *string   `json:"weightUnit,omitempty"`
	RequiresShipping   bool      `json:"requiresShipping" gorm:"not null"`
	Taxable            bool      `json:"taxable" gorm:"not null"`
	Barcode            *string   `json:"barcode,omitempty"`
	FulfillmentService *string   `json:"fulfillmentService,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// ProductImage is a gallery image of a product
type ProductImage struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"not null;index"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	Src       string    `json:"src" gorm:"not null"`
	Position  int       `json:"position" gorm:"not null;default:1"`
	AltText   *string   `json:"altText,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Category represents a product category
type Category struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"column:tenant_id;not null;index:idx_categories_tenant_slug,unique"`
	Name      string    `json:"name" gorm:"not null"`
	Slug      string    `json:"slug" gorm:"not null;index:idx_categories_tenant_slug,unique"`
	Level     int       `json:"level" gorm:"not null;default:0"`
	Position  int       `json:"position" gorm:"not null;default:1"`
	IsActive  bool      `json:"isActive" gorm:"column:is_active;not null;default:true"`
	Status    string    `json:"status" gorm:"not null;default:'ACTIVE'"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

// NewErrorResponse builds the standard error envelope
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Success:   false,
		Error:     Error{Code: code, Message: message},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the ProductVariant model
func (ProductVariant) TableName() string {
	return "product_variants"
}

// TableName returns the table name for the ProductImage model
func (ProductImage) TableName() string {
	return "product_images"
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}
