package cli

import (
	"errors"
	"time"

	"github.com/desims/tokobangunansaya/internal/client"
	"github.com/desims/tokobangunansaya/internal/config"
	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/desims/tokobangunansaya/internal/events"
	"github.com/desims/tokobangunansaya/internal/pos"
	"github.com/desims/tokobangunansaya/pkg/logger"
	"go.uber.org/zap"
)

// Session is an open backend plus the settings the commands print with
type Session struct {
	Backend    pos.Backend
	Location   *time.Location
	ReceiptDir string
	Log        *zap.Logger
	Close      func() error
}

// Opener opens a session for the parsed global flags
type Opener func(opts *RootOptions) (*Session, error)

// OpenSession loads the configuration and connects either to a server
// (--server or POS_SERVER_URL) or straight to the database.
func OpenSession(opts *RootOptions) (*Session, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return nil, err
	}

	level := "error"
	if opts.Verbose {
		level = "debug"
	}
	log := logger.NewLogger(cfg.ServiceName+"-cli", level)

	server := opts.Server
	if server == "" {
		server = cfg.ServerURL
	}
	if server != "" {
		log.Debug("Using remote backend", zap.String("server", server))
		return &Session{
			Backend:    client.New(server),
			Location:   cfg.Location(),
			ReceiptDir: cfg.ReceiptDir,
			Log:        log,
			Close:      func() error { _ = log.Sync(); return nil },
		}, nil
	}

	database, err := db.Connect(db.Options{Driver: cfg.DBDriver, DSN: cfg.DBDSN, LogLevel: level})
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return nil, err
	}

	bus, err := events.Connect(cfg.RabbitMQURL, logger.Named(log, "events"))
	if err != nil {
		log.Warn("RabbitMQ unavailable, events disabled", zap.Error(err))
		bus = events.Nop{}
	}

	local := pos.NewLocal(database, pos.Settings{
		StoreName:     cfg.StoreName,
		ReceiptFooter: cfg.ReceiptFooter,
		Location:      cfg.Location(),
	}, bus, nil, log)

	return &Session{
		Backend:    local,
		Location:   cfg.Location(),
		ReceiptDir: cfg.ReceiptDir,
		Log:        log,
		Close: func() error {
			local.Flush()
			err := errors.Join(bus.Close(), database.Close())
			_ = log.Sync()
			return err
		},
	}, nil
}
