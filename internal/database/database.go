// Package database provides SQL Server connection management for sqlmirror.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver

	"github.com/dbsmedya/sqlmirror/internal/config"
	"github.com/dbsmedya/sqlmirror/internal/retry"
)

// Manager handles database connections for source and target servers.
type Manager struct {
	Source *sql.DB
	Target *sql.DB
	config *config.Config
}

// NewManager creates a new database manager from configuration.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config: cfg,
	}
}

// retryOptions builds retry settings from configuration.
func (m *Manager) retryOptions() retry.Options {
	opts := retry.DefaultOptions()
	if m.config.Retry.MaxAttempts > 0 {
		opts.MaxAttempts = m.config.Retry.MaxAttempts
	}
	if m.config.Retry.InitialDelayMs > 0 {
		opts.InitialDelay = time.Duration(m.config.Retry.InitialDelayMs) * time.Millisecond
	}
	return opts
}

// ConnectSource establishes the source connection only.
func (m *Manager) ConnectSource(ctx context.Context) error {
	db, err := m.connectWithRetry(ctx, &m.config.Source)
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	m.Source = db
	return nil
}

// ConnectTarget establishes the target connection only.
func (m *Manager) ConnectTarget(ctx context.Context) error {
	db, err := m.connectWithRetry(ctx, &m.config.Target)
	if err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	m.Target = db
	return nil
}

// OpenSource opens a fresh, independent source connection handle. Parallel
// export workers each call this so no two workers share a connection; the
// handle is pinned to a single underlying session.
func (m *Manager) OpenSource(ctx context.Context) (*sql.DB, error) {
	return m.connectWithRetry(ctx, &m.config.Source)
}

// connectWithRetry attempts to connect, retrying transient failures with
// exponential backoff.
func (m *Manager) connectWithRetry(ctx context.Context, cc *config.ConnectionConfig) (*sql.DB, error) {
	return retry.DoValue(ctx, func(ctx context.Context) (*sql.DB, error) {
		db, err := connect(cc)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}, m.retryOptions())
}

// connect creates a database connection handle.
func connect(cc *config.ConnectionConfig) (*sql.DB, error) {
	dsn := BuildDSN(cc)

	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, err
	}

	// One session per handle: every phase in this system addresses exactly
	// one connection, and workers own theirs exclusively.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// BuildDSN constructs a SQL Server connection URL from configuration.
func BuildDSN(cc *config.ConnectionConfig) string {
	query := url.Values{}
	if cc.Database != "" {
		query.Set("database", cc.Database)
	}
	switch cc.Encrypt {
	case "disable":
		query.Set("encrypt", "disable")
	case "mandatory":
		query.Set("encrypt", "true")
	case "optional", "":
		query.Set("encrypt", "false")
	}
	if cc.ConnectTimeoutSeconds > 0 {
		query.Set("dial timeout", fmt.Sprintf("%d", cc.ConnectTimeoutSeconds))
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cc.User, cc.Password),
		Host:     fmt.Sprintf("%s:%d", cc.Host, cc.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// CommandTimeout returns the configured command timeout for the given side.
func (m *Manager) CommandTimeout(target bool) time.Duration {
	cc := &m.config.Source
	if target {
		cc = &m.config.Target
	}
	if cc.CommandTimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(cc.CommandTimeoutSeconds) * time.Second
}

// Close closes all database connections gracefully.
func (m *Manager) Close() error {
	var errs []error

	if m.Target != nil {
		if err := m.Target.Close(); err != nil {
			errs = append(errs, fmt.Errorf("target close: %w", err))
		}
	}

	if m.Source != nil {
		if err := m.Source.Close(); err != nil {
			errs = append(errs, fmt.Errorf("source close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing connections: %v", errs)
	}
	return nil
}

// Ping verifies all open connections are alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.Source != nil {
		if err := m.Source.PingContext(ctx); err != nil {
			return fmt.Errorf("source ping failed: %w", err)
		}
	}

	if m.Target != nil {
		if err := m.Target.PingContext(ctx); err != nil {
			return fmt.Errorf("target ping failed: %w", err)
		}
	}

	return nil
}
