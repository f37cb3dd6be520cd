package reconciler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"catalog-import-service/internal/models"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

var _ Store = (*MockStore)(nil)

func (m *MockStore) FindProductByHandle(ctx context.Context, tenantID, handle string) (*models.Product, error) {
	args := m.Called(ctx, tenantID, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockStore) UpsertCategory(ctx context.Context, tenantID, name string) (*models.Category, error) {
	args := m.Called(ctx, tenantID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockStore) SKUTaken(ctx context.Context, tenantID, sku string, excludeProductID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, sku, excludeProductID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) CreateProduct(ctx context.Context, product *models.Product, variants []models.ProductVariant, images []models.ProductImage) error {
	args := m.Called(ctx, product, variants, images)
	return args.Error(0)
}

func (m *MockStore) ReplaceProduct(ctx context.Context, product *models.Product, variants []models.ProductVariant, images []models.ProductImage) error {
	args := m.Called(ctx, product, variants, images)
	return args.Error(0)
}
