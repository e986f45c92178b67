package db

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item is a stocked product in the barang table
type Item struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"-"`
	Code      string          `gorm:"column:kode;type:varchar(50);uniqueIndex:idx_barang_kode;not null" json:"code"`
	Name      string          `gorm:"column:nama;type:varchar(255);not null" json:"name"`
	Unit      string          `gorm:"column:satuan;type:varchar(50)" json:"unit"`
	CostPrice decimal.Decimal `gorm:"column:harga_beli;type:decimal(15,2);not null" json:"cost_price"`
	SalePrice decimal.Decimal `gorm:"column:harga_jual;type:decimal(15,2);not null" json:"sale_price"`
	Quantity  int64           `gorm:"column:stok;not null" json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Item model
func (Item) TableName() string {
	return "barang"
}

// BeforeCreate hook to set timestamps
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	if i.UpdatedAt.IsZero() {
		i.UpdatedAt = now
	}
	return nil
}

// ItemSummary is the stock listing projection of an Item
type ItemSummary struct {
	Code      string          `gorm:"column:kode" json:"code"`
	Name      string          `gorm:"column:nama" json:"name"`
	Quantity  int64           `gorm:"column:stok" json:"quantity"`
	Unit      string          `gorm:"column:satuan" json:"unit"`
	SalePrice decimal.Decimal `gorm:"column:harga_jual" json:"sale_price"`
}

// Sale is one immutable row of the transaksi table
type Sale struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	SoldAt    time.Time       `gorm:"column:tanggal;not null;index:idx_transaksi_tanggal" json:"timestamp"`
	ItemCode  string          `gorm:"column:kode_barang;type:varchar(50);not null" json:"item_code"`
	Quantity  int64           `gorm:"column:jumlah;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"column:harga;type:decimal(15,2);not null" json:"unit_price"`
	Total     decimal.Decimal `gorm:"column:total;type:decimal(15,2);not null" json:"total"`
	Item      *Item           `gorm:"foreignKey:ItemCode;references:Code;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"item,omitempty"`
}

// TableName specifies the table name for Sale model
func (Sale) TableName() string {
	return "transaksi"
}

// BeforeCreate rejects rows whose total does not match quantity x unit price
func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.Quantity <= 0 {
		return fmt.Errorf("sale quantity must be positive, got %d", s.Quantity)
	}
	want := s.UnitPrice.Mul(decimal.NewFromInt(s.Quantity))
	if !s.Total.Equal(want) {
		return fmt.Errorf("sale total %s does not match %d x %s", s.Total, s.Quantity, s.UnitPrice)
	}
	return nil
}

// ItemName returns the referenced item's name when it was loaded
func (s *Sale) ItemName() string {
	if s.Item == nil {
		return ""
	}
	return s.Item.Name
}
