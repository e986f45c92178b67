package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/desims/tokobangunansaya/internal/repo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrInvalidQuantity is returned when a sale asks for zero or fewer units
var ErrInvalidQuantity = errors.New("quantity must be positive")

// Sale outcomes reported to Recorder
const (
	OutcomeCompleted         = "completed"
	OutcomeItemNotFound      = "item_not_found"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeInvalid           = "invalid"
	OutcomeFailed            = "failed"
)

// Catalog is the item lookup the engine needs
type Catalog interface {
	GetItem(ctx context.Context, code string) (*db.Item, error)
}

// Ledger persists a sale together with its stock decrement
type Ledger interface {
	RecordSale(ctx context.Context, sale *db.Sale) error
}

// Publisher announces completed sales
type Publisher interface {
	PublishSaleCompleted(ctx context.Context, sale *db.Sale) error
}

// Recorder observes sale outcomes, typically Prometheus counters
type Recorder interface {
	ObserveSale(outcome string, quantity int64, total decimal.Decimal)
}

// Engine validates and executes sales
type Engine struct {
	catalog   Catalog
	ledger    Ledger
	publisher Publisher
	recorder  Recorder
	log       *zap.Logger
	now       func() time.Time
	inflight  sync.WaitGroup
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the time source used to stamp sales
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPublisher sets where sale.completed events go
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithRecorder sets the metrics sink
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// NewEngine creates a sales engine
func NewEngine(catalog Catalog, ledger Ledger, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		catalog: catalog,
		ledger:  ledger,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sell sells quantity units of the item with the given code. The returned
// sale carries the item as it stands after the decrement.
func (e *Engine) Sell(ctx context.Context, code string, quantity int64) (*db.Sale, error) {
	code = strings.TrimSpace(code)
	if quantity <= 0 {
		e.observe(OutcomeInvalid, 0, decimal.Zero)
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	item, err := e.catalog.GetItem(ctx, code)
	if err != nil {
		if errors.Is(err, repo.ErrItemNotFound) {
			e.observe(OutcomeItemNotFound, 0, decimal.Zero)
			return nil, err
		}
		e.observe(OutcomeFailed, 0, decimal.Zero)
		return nil, err
	}

	if quantity > item.Quantity {
		e.log.Info("Sale rejected, insufficient stock",
			zap.String("code", code),
			zap.Int64("requested", quantity),
			zap.Int64("available", item.Quantity),
		)
		e.observe(OutcomeInsufficientStock, 0, decimal.Zero)
		return nil, repo.ErrInsufficientStock
	}

	sale := &db.Sale{
		SoldAt:    e.now().UTC(),
		ItemCode:  item.Code,
		Quantity:  quantity,
		UnitPrice: item.SalePrice,
		Total:     item.SalePrice.Mul(decimal.NewFromInt(quantity)),
	}

	if err := e.ledger.RecordSale(ctx, sale); err != nil {
		if errors.Is(err, repo.ErrInsufficientStock) {
			// stock moved between the check and the conditional decrement
			e.observe(OutcomeInsufficientStock, 0, decimal.Zero)
			return nil, err
		}
		e.observe(OutcomeFailed, 0, decimal.Zero)
		return nil, err
	}

	item.Quantity -= quantity
	sale.Item = item
	e.observe(OutcomeCompleted, quantity, sale.Total)
	e.publish(sale)

	return sale, nil
}

func (e *Engine) observe(outcome string, quantity int64, total decimal.Decimal) {
	if e.recorder != nil {
		e.recorder.ObserveSale(outcome, quantity, total)
	}
}

// publish sends the event in the background; a broker outage never fails a sale
func (e *Engine) publish(sale *db.Sale) {
	if e.publisher == nil {
		return
	}
	event := *sale
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := e.publisher.PublishSaleCompleted(ctx, &event); err != nil {
			e.log.Error("Failed to publish sale completed event",
				zap.Uint("sale_id", event.ID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until background event publishing has finished
func (e *Engine) Wait() {
	e.inflight.Wait()
}
