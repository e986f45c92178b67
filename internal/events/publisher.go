package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	ExchangeName = "tokobangunan.events"
	exchangeType = "topic"

	// Event types
	EventTypeItemCreated   = "catalog.item_created"
	EventTypeSaleCompleted = "sales.sale_completed"
	EventTypeDailySummary  = "reports.daily_summary"

	eventVersion = "1.0.0"

	// Retry configuration
	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 5 * time.Second
	confirmTimeout = 5 * time.Second
)

// Event represents a domain event
type Event struct {
	EventID       string                 `json:"event_id"`
	EventType     string                 `json:"event_type"`
	EventVersion  string                 `json:"event_version"`
	Timestamp     string                 `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
}

type correlationKey struct{}

// WithCorrelationID attaches a correlation id that published events will carry
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id set by WithCorrelationID, if any
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// Publisher sends domain events to the tokobangunan.events exchange
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *zap.Logger
	now     func() time.Time
}

// NewPublisher connects to the broker, declares the topic exchange and puts
// the channel in confirm mode
func NewPublisher(url string, log *zap.Logger) (*Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	p := &Publisher{conn: conn, log: log, now: time.Now}

	setup := []struct {
		step string
		run  func() error
	}{
		{"open channel", func() (err error) {
			p.channel, err = conn.Channel()
			return err
		}},
		{"declare exchange " + ExchangeName, func() error {
			return p.channel.ExchangeDeclare(ExchangeName, exchangeType, true, false, false, false, nil)
		}},
		{"enable confirms", func() error {
			return p.channel.Confirm(false)
		}},
	}
	for _, s := range setup {
		if err := s.run(); err != nil {
			_ = p.shutdown()
			return nil, fmt.Errorf("%s: %w", s.step, err)
		}
	}

	log.Info("Connected to RabbitMQ", zap.String("exchange", ExchangeName))
	return p, nil
}

// PublishItemCreated announces a new catalog entry
func (p *Publisher) PublishItemCreated(ctx context.Context, item *db.Item) error {
	event := ItemCreatedEvent(ctx, item, p.now())
	return p.publishWithRetry(ctx, EventTypeItemCreated, event)
}

// PublishSaleCompleted announces a committed sale
func (p *Publisher) PublishSaleCompleted(ctx context.Context, sale *db.Sale) error {
	event := SaleCompletedEvent(ctx, sale, p.now())
	return p.publishWithRetry(ctx, EventTypeSaleCompleted, event)
}

// PublishDailySummary announces the revenue of one calendar date
func (p *Publisher) PublishDailySummary(ctx context.Context, date string, total decimal.Decimal, sales int) error {
	event := DailySummaryEvent(ctx, date, total, sales, p.now())
	return p.publishWithRetry(ctx, EventTypeDailySummary, event)
}

// ItemCreatedEvent builds the catalog.item_created envelope
func ItemCreatedEvent(ctx context.Context, item *db.Item, at time.Time) Event {
	return newEvent(ctx, EventTypeItemCreated, at, map[string]interface{}{
		"code":       item.Code,
		"name":       item.Name,
		"unit":       item.Unit,
		"cost_price": item.CostPrice.StringFixed(2),
		"sale_price": item.SalePrice.StringFixed(2),
		"quantity":   item.Quantity,
	})
}

// SaleCompletedEvent builds the sales.sale_completed envelope
func SaleCompletedEvent(ctx context.Context, sale *db.Sale, at time.Time) Event {
	payload := map[string]interface{}{
		"sale_id":    sale.ID,
		"item_code":  sale.ItemCode,
		"quantity":   sale.Quantity,
		"unit_price": sale.UnitPrice.StringFixed(2),
		"total":      sale.Total.StringFixed(2),
		"sold_at":    sale.SoldAt.UTC().Format(time.RFC3339),
	}
	if sale.Item != nil {
		payload["remaining_stock"] = sale.Item.Quantity
	}
	return newEvent(ctx, EventTypeSaleCompleted, at, payload)
}

// DailySummaryEvent builds the reports.daily_summary envelope
func DailySummaryEvent(ctx context.Context, date string, total decimal.Decimal, sales int, at time.Time) Event {
	return newEvent(ctx, EventTypeDailySummary, at, map[string]interface{}{
		"date":          date,
		"total_revenue": total.StringFixed(2),
		"sales":         sales,
	})
}

func newEvent(ctx context.Context, eventType string, at time.Time, payload map[string]interface{}) Event {
	return Event{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		EventVersion:  eventVersion,
		Timestamp:     at.UTC().Format(time.RFC3339),
		CorrelationID: CorrelationID(ctx),
		Payload:       payload,
	}
}

// publishWithRetry sends event until the broker confirms it, backing off
// exponentially between attempts
func (p *Publisher) publishWithRetry(ctx context.Context, routingKey string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.EventType, err)
	}

	wait := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = p.publishOnce(ctx, routingKey, event, body)
		if lastErr == nil {
			p.log.Debug("Event published",
				zap.String("event_id", event.EventID),
				zap.String("routing_key", routingKey),
			)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.log.Warn("Event not delivered",
			zap.String("event_type", event.EventType),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
		if attempt == maxRetries {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait = min(wait*2, maxBackoff)
	}

	p.log.Error("Giving up on event",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.Error(lastErr),
	)
	return fmt.Errorf("publish %s after %d attempts: %w", event.EventType, maxRetries, lastErr)
}

func (p *Publisher) publishOnce(ctx context.Context, routingKey string, event Event, body []byte) error {
	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     p.now(),
		MessageId:     event.EventID,
		CorrelationId: event.CorrelationID,
		Type:          event.EventType,
		Body:          body,
		Headers:       amqp.Table{"event_version": event.EventVersion},
	}
	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(ctx, ExchangeName, routingKey, false, false, msg)
	if err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()
	acked, err := confirm.WaitContext(waitCtx)
	switch {
	case err != nil:
		return fmt.Errorf("waiting for confirm: %w", err)
	case !acked:
		return errors.New("broker nacked the message")
	}
	return nil
}

// IsHealthy reports whether the broker connection is still open
func (p *Publisher) IsHealthy() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

// Close closes the channel and the connection
func (p *Publisher) Close() error {
	err := p.shutdown()
	if err != nil {
		p.log.Error("Closing RabbitMQ connection", zap.Error(err))
	}
	return err
}

func (p *Publisher) shutdown() error {
	var errs []error
	if p.channel != nil && !p.channel.IsClosed() {
		errs = append(errs, p.channel.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
