package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/desims/tokobangunansaya/internal/report"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Summarizer computes the revenue of one calendar date
type Summarizer interface {
	Summary(ctx context.Context, day time.Time) (report.DailyRevenue, error)
}

// SummaryPublisher announces a daily summary
type SummaryPublisher interface {
	PublishDailySummary(ctx context.Context, date string, total decimal.Decimal, sales int) error
}

// Scheduler runs the end-of-day revenue summary
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	reports   Summarizer
	publisher SummaryPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a scheduler whose cron spec is evaluated in loc
func NewScheduler(spec string, loc *time.Location, reports Summarizer, publisher SummaryPublisher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		spec:      spec,
		reports:   reports,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Start schedules the daily summary and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runDailySummary); err != nil {
		return fmt.Errorf("schedule daily summary %q: %w", s.spec, err)
	}
	s.logger.Info("starting scheduler", zap.String("daily_summary", s.spec))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDailySummary() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := s.DailySummary(ctx); err != nil {
		s.logger.Error("daily summary failed", zap.Error(err))
	}
}

// DailySummary computes today's revenue, logs it and publishes it
func (s *Scheduler) DailySummary(ctx context.Context) (report.DailyRevenue, error) {
	summary, err := s.reports.Summary(ctx, s.now())
	if err != nil {
		return report.DailyRevenue{}, err
	}

	s.logger.Info("daily summary",
		zap.String("date", summary.Date),
		zap.Int("sales", summary.Sales),
		zap.String("total_revenue", summary.Total.StringFixed(2)),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishDailySummary(ctx, summary.Date, summary.Total, summary.Sales); err != nil {
			return summary, fmt.Errorf("publish daily summary: %w", err)
		}
	}
	return summary, nil
}
