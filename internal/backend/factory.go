// Package backend selects and wires a persistence variant: remote
// (Postgres + change feed + sessions) or local (sqlite snapshots).
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardiutama/Piutang/internal/localstore"
	"github.com/ardiutama/Piutang/internal/postgres"
	"github.com/ardiutama/Piutang/internal/realtime"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Variant {
	case RemoteVariant:
		return f.createRemoteBackend(ctx, config)
	case LocalVariant:
		return f.createLocalBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend variant: %s", config.Variant)
	}
}

func (f *DefaultFactory) createRemoteBackend(ctx context.Context, config Config) (*Result, error) {
	pg, err := postgres.NewConnection(ctx, postgres.ConnectionInfo{
		Host:     config.PGHost,
		Port:     config.PGPort,
		User:     config.PGUser,
		Password: config.PGPassword,
		DB:       config.PGDatabase,
		SSLMode:  config.PGSSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Change feed is optional: without it this session still persists,
	// it just never hears about foreign mutations.
	var feed *realtime.Client
	if config.AMQPURL != "" {
		feed, err = realtime.NewClient(config.AMQPURL, config.AMQPExchange)
		if err != nil {
			f.logger.Warn("Failed to initialize change feed, continuing without realtime sync", "error", err)
			feed = nil
		} else {
			f.logger.Info("Initialized change feed", "exchange", config.AMQPExchange)
		}
	}

	pgBackend := postgres.NewBackend(pg)
	result := &Result{
		Backend:  pgBackend,
		Sessions: postgres.NewSessionsRepo(pg, config.SessionsTable),
	}
	if feed != nil {
		result.Backend = WithFeed(pgBackend, feed)
		result.Feed = feed
	}
	result.Cleanup = func() error {
		if feed != nil {
			feed.Close()
		}
		return pgBackend.Close()
	}

	f.logger.Info("Initialized remote backend",
		"host", config.PGHost,
		"database", config.PGDatabase,
		"feed_enabled", feed != nil)
	return result, nil
}

func (f *DefaultFactory) createLocalBackend(config Config) (*Result, error) {
	kv, err := localstore.NewSQLiteKV(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize local snapshot store: %w", err)
	}

	b := localstore.NewBackend(kv)

	f.logger.Info("Initialized local backend", "db_path", config.SQLiteDBPath)
	return &Result{
		Backend: b,
		Cleanup: b.Close,
	}, nil
}
