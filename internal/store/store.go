package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/receipto/receipto/pkg/models"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateReceipt(ctx context.Context, id uuid.UUID, imageURL string) error
	GetReceipt(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
	UpdateReceiptStatus(ctx context.Context, id uuid.UUID, status string) error
	// SaveReceiptData commits the extracted fields and all line items in one
	// transaction, marking the receipt complete.
	SaveReceiptData(ctx context.Context, id uuid.UUID, extraction *models.ReceiptExtraction) error
	ListLineItems(ctx context.Context, receiptID uuid.UUID) ([]*models.LineItem, error)

	GetSetting(ctx context.Context, key string) (string, error)
	GetAllSettings(ctx context.Context) (*models.Settings, error)
	UpdateSettings(ctx context.Context, values map[string]string) error
	DeleteSetting(ctx context.Context, key string) error

	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, name string, budget *decimal.Decimal) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name *string, budget *decimal.Decimal) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	CategoryNameExists(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)
}
