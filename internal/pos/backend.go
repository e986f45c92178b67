package pos

import (
	"context"

	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/desims/tokobangunansaya/internal/receipt"
	"github.com/desims/tokobangunansaya/internal/report"
	"github.com/shopspring/decimal"
)

// NewItem is the catalog entry form
type NewItem struct {
	Code      string          `json:"code" yaml:"code"`
	Name      string          `json:"name" yaml:"name"`
	Unit      string          `json:"unit" yaml:"unit"`
	CostPrice decimal.Decimal `json:"cost_price" yaml:"cost_price"`
	SalePrice decimal.Decimal `json:"sale_price" yaml:"sale_price"`
	Quantity  int64           `json:"quantity" yaml:"quantity"`
}

func (n NewItem) model() *db.Item {
	return &db.Item{
		Code:      n.Code,
		Name:      n.Name,
		Unit:      n.Unit,
		CostPrice: n.CostPrice,
		SalePrice: n.SalePrice,
		Quantity:  n.Quantity,
	}
}

// Backend is everything a cashier surface can ask of the store. Local runs
// it against the database; the HTTP client runs it against a server.
type Backend interface {
	AddItem(ctx context.Context, item NewItem) (*db.Item, error)
	ListItems(ctx context.Context) ([]db.ItemSummary, error)
	Sell(ctx context.Context, code string, quantity int64) (*db.Sale, error)
	ListSales(ctx context.Context) ([]db.Sale, error)
	DailyRevenue(ctx context.Context) ([]report.DailyRevenue, error)
	Receipt(ctx context.Context, saleID uint) (*receipt.Document, error)
}
