// Package app wires configuration to stores, the timer runner and the HTTP
// server so each binary in cmd/ stays a thin shell.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/betalog/internal/client"
	"github.com/claude/betalog/internal/config"
	"github.com/claude/betalog/internal/mcp"
	"github.com/claude/betalog/internal/runner"
	"github.com/claude/betalog/internal/server"
	"github.com/claude/betalog/internal/storage"
	"github.com/claude/betalog/internal/storage/postgres"
	"github.com/claude/betalog/internal/storage/sqlite"
)

// Migrate applies pending schema migrations for the configured driver.
func Migrate(db config.DatabaseConfig) error {
	switch db.Driver {
	case config.DriverSQLite:
		return sqlite.RunMigrations(db.Path)
	case config.DriverPostgres:
		return postgres.RunMigrations(db.DSN())
	default:
		return fmt.Errorf("unsupported database driver %q", db.Driver)
	}
}

// OpenStore migrates and connects the configured database.
func OpenStore(ctx context.Context, db config.DatabaseConfig, log *slog.Logger) (storage.Store, error) {
	switch db.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, db.Path)
		if err != nil {
			return nil, err
		}
		log.Info("database connected", "driver", db.Driver, "path", db.Path)
		return store, nil
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, db.DSN())
		if err != nil {
			return nil, err
		}
		log.Info("database connected", "driver", db.Driver, "host", db.Host, "name", db.Name)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", db.Driver)
	}
}

// StoreFlags selects where a command-line tool keeps its data.
type StoreFlags struct {
	// ServerURL points at a running betalog server. It takes precedence.
	ServerURL string
	APIKey    string
	// ConfigPath loads the database section of a server config.
	ConfigPath string
	// SQLitePath is used when neither ServerURL nor ConfigPath is set.
	SQLitePath string
}

// OpenStoreFromFlags returns a remote client or a local store.
func OpenStoreFromFlags(ctx context.Context, f StoreFlags, log *slog.Logger) (storage.Store, error) {
	if f.ServerURL != "" {
		log.Info("recording to remote server", "url", f.ServerURL)
		return client.New(f.ServerURL, client.WithAPIKey(f.APIKey)), nil
	}
	if f.ConfigPath != "" {
		cfg, err := config.Load(f.ConfigPath)
		if err != nil {
			return nil, err
		}
		return OpenStore(ctx, cfg.Database, log)
	}
	return OpenStore(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, Path: f.SQLitePath}, log)
}

// NewServer builds the runner and HTTP server over store and mounts the MCP
// endpoint. The caller owns the returned runner and must Close it.
func NewServer(cfg *config.Config, store storage.Store, version string, log *slog.Logger) (*server.Server, *runner.Runner, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("timezone: %w", err)
	}

	r := runner.New(log, runner.Config{Recorder: store})
	srv := server.New(store, r, cfg.Auth.APIKey, loc, log)
	srv.SetMCP(mcp.HTTPHandler(mcp.New(store, loc, version, log)))
	return srv, r, nil
}
