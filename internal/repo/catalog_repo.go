package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desims/tokobangunansaya/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrItemNotFound is returned when no item has the requested code
	ErrItemNotFound = errors.New("item not found")

	// ErrDuplicateCode is returned when an item code is already in the catalog
	ErrDuplicateCode = errors.New("item code already exists")

	// ErrInvalidItem is returned for blank codes, negative prices or negative stock
	ErrInvalidItem = errors.New("invalid item")
)

// CatalogRepository handles the barang table
type CatalogRepository struct {
	db  *db.DB
	log *zap.Logger
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(database *db.DB, logger *zap.Logger) *CatalogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogRepository{
		db:  database,
		log: logger,
	}
}

// CreateItem inserts a new catalog entry. A code that is already taken
// yields ErrDuplicateCode and leaves the existing row untouched.
func (r *CatalogRepository) CreateItem(ctx context.Context, item *db.Item) error {
	item.Code = strings.TrimSpace(item.Code)
	if err := validateItem(item); err != nil {
		return err
	}

	var existing db.Item
	err := r.db.WithContext(ctx).Where("kode = ?", item.Code).First(&existing).Error
	if err == nil {
		return ErrDuplicateCode
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Error("Failed to check item existence", zap.String("code", item.Code), zap.Error(err))
		return fmt.Errorf("check item %s: %w", item.Code, err)
	}

	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		// a concurrent insert can still win the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateCode
		}
		r.log.Error("Failed to create item", zap.String("code", item.Code), zap.Error(err))
		return fmt.Errorf("create item %s: %w", item.Code, err)
	}

	r.log.Info("Item created",
		zap.String("code", item.Code),
		zap.String("name", item.Name),
		zap.Int64("quantity", item.Quantity),
	)
	return nil
}

// GetItem retrieves an item by code
func (r *CatalogRepository) GetItem(ctx context.Context, code string) (*db.Item, error) {
	var item db.Item
	err := r.db.WithContext(ctx).Where("kode = ?", code).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		r.log.Error("Failed to get item", zap.String("code", code), zap.Error(err))
		return nil, fmt.Errorf("get item %s: %w", code, err)
	}

	return &item, nil
}

// ListItems returns the stock listing in insertion order
func (r *CatalogRepository) ListItems(ctx context.Context) ([]db.ItemSummary, error) {
	items := []db.ItemSummary{}
	err := r.db.WithContext(ctx).
		Model(&db.Item{}).
		Select("kode, nama, stok, satuan, harga_jual").
		Order("id ASC").
		Scan(&items).Error
	if err != nil {
		r.log.Error("Failed to list items", zap.Error(err))
		return nil, fmt.Errorf("list items: %w", err)
	}

	return items, nil
}

// CountItems returns the number of catalog entries
func (r *CatalogRepository) CountItems(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&db.Item{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return total, nil
}

func validateItem(item *db.Item) error {
	switch {
	case item.Code == "":
		return fmt.Errorf("%w: code is required", ErrInvalidItem)
	case item.CostPrice.IsNegative():
		return fmt.Errorf("%w: cost price must not be negative", ErrInvalidItem)
	case item.SalePrice.IsNegative():
		return fmt.Errorf("%w: sale price must not be negative", ErrInvalidItem)
	case item.Quantity < 0:
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidItem)
	}
	return nil
}
