package pos

import (
	"context"
	"time"

	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/desims/tokobangunansaya/internal/events"
	"github.com/desims/tokobangunansaya/internal/metrics"
	"github.com/desims/tokobangunansaya/internal/receipt"
	"github.com/desims/tokobangunansaya/internal/report"
	"github.com/desims/tokobangunansaya/internal/repo"
	"github.com/desims/tokobangunansaya/internal/sales"
	"go.uber.org/zap"
)

// Settings are the store details printed on receipts and used for reports
type Settings struct {
	StoreName     string
	ReceiptFooter string
	Location      *time.Location
}

// Local implements Backend directly on the database
type Local struct {
	catalog  *repo.CatalogRepository
	sales    *repo.SalesRepository
	engine   *sales.Engine
	reports  *report.Service
	receipts *receipt.Renderer
	events   events.Bus
	metrics  *metrics.Metrics
	log      *zap.Logger
}

var _ Backend = (*Local)(nil)

// NewLocal wires the repositories, sales engine, reports and receipts.
// bus and m may be nil.
func NewLocal(database *db.DB, settings Settings, bus events.Bus, m *metrics.Metrics, log *zap.Logger, opts ...sales.Option) *Local {
	if log == nil {
		log = zap.NewNop()
	}
	if bus == nil {
		bus = events.Nop{}
	}

	catalog := repo.NewCatalogRepository(database, log.Named("catalog"))
	ledger := repo.NewSalesRepository(database, log.Named("sales"))

	opts = append([]sales.Option{
		sales.WithPublisher(bus),
		sales.WithRecorder(m),
	}, opts...)

	return &Local{
		catalog:  catalog,
		sales:    ledger,
		engine:   sales.NewEngine(catalog, ledger, log.Named("engine"), opts...),
		reports:  report.NewService(ledger, settings.Location, log.Named("report")),
		receipts: receipt.NewRenderer(settings.StoreName, settings.ReceiptFooter, settings.Location),
		events:   bus,
		metrics:  m,
		log:      log,
	}
}

// Flush waits for events still being published
func (l *Local) Flush() {
	l.engine.Wait()
}

// Reports exposes the reporting service for scheduled jobs
func (l *Local) Reports() *report.Service {
	return l.reports
}

// Receipts exposes the receipt renderer
func (l *Local) Receipts() *receipt.Renderer {
	return l.receipts
}

func (l *Local) AddItem(ctx context.Context, form NewItem) (*db.Item, error) {
	item := form.model()
	if err := l.catalog.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	l.metrics.ObserveItemCreated()

	if err := l.events.PublishItemCreated(ctx, item); err != nil {
		l.log.Error("Failed to publish item created event",
			zap.String("code", item.Code),
			zap.Error(err),
		)
	}
	return item, nil
}

func (l *Local) ListItems(ctx context.Context) ([]db.ItemSummary, error) {
	return l.catalog.ListItems(ctx)
}

func (l *Local) Sell(ctx context.Context, code string, quantity int64) (*db.Sale, error) {
	return l.engine.Sell(ctx, code, quantity)
}

func (l *Local) ListSales(ctx context.Context) ([]db.Sale, error) {
	return l.reports.ListSales(ctx)
}

func (l *Local) DailyRevenue(ctx context.Context) ([]report.DailyRevenue, error) {
	return l.reports.DailyRevenue(ctx)
}

// Receipt renders the receipt of a recorded sale
func (l *Local) Receipt(ctx context.Context, saleID uint) (*receipt.Document, error) {
	sale, err := l.sales.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return l.receipts.Render(sale)
}
