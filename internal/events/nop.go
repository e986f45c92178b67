package events

import (
	"context"

	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Bus is what the rest of the service publishes through
type Bus interface {
	PublishItemCreated(ctx context.Context, item *db.Item) error
	PublishSaleCompleted(ctx context.Context, sale *db.Sale) error
	PublishDailySummary(ctx context.Context, date string, total decimal.Decimal, sales int) error
	IsHealthy() bool
	Close() error
}

var (
	_ Bus = (*Publisher)(nil)
	_ Bus = Nop{}
)

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) PublishItemCreated(ctx context.Context, item *db.Item) error { return nil }
func (Nop) PublishSaleCompleted(ctx context.Context, sale *db.Sale) error { return nil }
func (Nop) IsHealthy() bool { return true }
func (Nop) Close() error { return nil }
func (Nop) PublishDailySummary(ctx context.Context, date string, total decimal.Decimal, sales int) error {
	return nil
}

// Connect returns a RabbitMQ publisher, or Nop when url is empty
func Connect(url string, log *zap.Logger) (Bus, error) {
	if url == "" {
		if log != nil {
			log.Info("RABBITMQ_URL not set, events disabled")
		}
		return Nop{}, nil
	}
	p, err := NewPublisher(url, log)
	if err != nil {
		return nil, err
	}
	return p, nil
}
