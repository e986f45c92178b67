package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/desims/tokobangunansaya/internal/metrics"
	"github.com/desims/tokobangunansaya/internal/pos"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether the store's database is reachable
type Pinger interface {
	Ping() error
}

// Options configure the router. Every field is optional.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	DB      Pinger
	// ExposeMetrics mounts /metrics
	ExposeMetrics bool
}

// NewRouter wires the gin engine with the cashier API under /api/v1
func NewRouter(backend pos.Backend, opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(metricsMiddleware(opts.Metrics))

	h := NewHandler(backend, logger)

	v1 := r.Group("/api/v1")
	v1.POST("/items", h.AddItem)
	v1.GET("/items", h.ListItems)
	v1.POST("/sales", h.Sell)
	v1.GET("/sales", h.ListSales)
	v1.GET("/sales/:id/receipt", h.Receipt)
	v1.GET("/reports/daily", h.DailyRevenue)

	r.GET("/healthz", healthz(opts.DB))
	if opts.ExposeMetrics {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	logger.Info("router initialized")
	return r
}

func healthz(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := db.Ping(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(route, c.Request.Method, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

// Server runs the router until its context is cancelled
type Server struct {
	srv *http.Server
	log *zap.Logger
}

// NewServer wraps handler in an http.Server listening on addr
func NewServer(addr string, handler http.Handler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("Shutting down HTTP server")
	return s.srv.Shutdown(shutdownCtx)
}
