// Package store persists the automation schedule and serves the leads table.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-lead-finder/internal/config"
	"github.com/sells-group/seo-lead-finder/internal/model"
)

// Store defines the persistence interface for the lead finder.
type Store interface {
	// Automation schedule. GetAutomationConfig returns nil when none is saved.
	GetAutomationConfig(ctx context.Context) (*model.AutomationConfig, error)
	SaveAutomationConfig(ctx context.Context, cfg model.AutomationConfig) (*model.AutomationConfig, error)

	// Leads, newest first. A limit <= 0 returns every row.
	ListLeads(ctx context.Context, limit int) ([]model.StoredLead, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

type scannable interface {
	Scan(dest ...any) error
}
