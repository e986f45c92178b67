package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desims/tokobangunansaya/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInsufficientStock is returned when a sale asks for more than is on hand
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrSaleNotFound is returned when no sale has the requested id
	ErrSaleNotFound = errors.New("sale not found")
)

// SalesRepository handles the append-only transaksi table
type SalesRepository struct {
	db  *db.DB
	log *zap.Logger
}

// NewSalesRepository creates a new sales repository
func NewSalesRepository(database *db.DB, logger *zap.Logger) *SalesRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesRepository{
		db:  database,
		log: logger,
	}
}

// RecordSale decrements stock and appends the sale in one transaction.
// The decrement is conditional on enough stock remaining, so two
// concurrent sales can never drive stok below zero.
func (r *SalesRepository) RecordSale(ctx context.Context, sale *db.Sale) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&db.Item{}).
			Where("kode = ? AND stok >= ?", sale.ItemCode, sale.Quantity).
			Updates(map[string]interface{}{
				"stok":       gorm.Expr("stok - ?", sale.Quantity),
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return fmt.Errorf("decrement stock: %w", result.Error)
		}
		if result.RowsAffected != 1 {
			return ErrInsufficientStock
		}

		if err := tx.Omit(clause.Associations).Create(sale).Error; err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrInsufficientStock) {
			r.log.Error("Failed to record sale", zap.String("code", sale.ItemCode), zap.Error(err))
		}
		return err
	}

	r.log.Info("Sale recorded",
		zap.Uint("sale_id", sale.ID),
		zap.String("code", sale.ItemCode),
		zap.Int64("quantity", sale.Quantity),
		zap.String("total", sale.Total.String()),
	)
	return nil
}

// GetSale retrieves a sale with its item
func (r *SalesRepository) GetSale(ctx context.Context, id uint) (*db.Sale, error) {
	var sale db.Sale
	err := r.db.WithContext(ctx).Preload("Item").Where("id = ?", id).First(&sale).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		r.log.Error("Failed to get sale", zap.Uint("sale_id", id), zap.Error(err))
		return nil, fmt.Errorf("get sale %d: %w", id, err)
	}
	return &sale, nil
}

// ListSales returns every sale, newest first
func (r *SalesRepository) ListSales(ctx context.Context) ([]db.Sale, error) {
	sales := []db.Sale{}
	err := r.db.WithContext(ctx).
		Preload("Item").
		Order("tanggal DESC").
		Order("id DESC").
		Find(&sales).Error
	if err != nil {
		r.log.Error("Failed to list sales", zap.Error(err))
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

// ListSalesBetween returns sales with from <= tanggal < to, newest first
func (r *SalesRepository) ListSalesBetween(ctx context.Context, from, to time.Time) ([]db.Sale, error) {
	sales := []db.Sale{}
	err := r.db.WithContext(ctx).
		Where("tanggal >= ? AND tanggal < ?", from.UTC(), to.UTC()).
		Order("tanggal DESC").
		Order("id DESC").
		Find(&sales).Error
	if err != nil {
		r.log.Error("Failed to list sales in range", zap.Time("from", from), zap.Time("to", to), zap.Error(err))
		return nil, fmt.Errorf("list sales between %s and %s: %w", from, to, err)
	}
	return sales, nil
}
