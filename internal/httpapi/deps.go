package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"

	"habita-engine/internal/config"
	"habita-engine/internal/domain"
	"habita-engine/internal/events"
	"habita-engine/internal/fetch"
	"habita-engine/internal/notify"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic store for the live config snapshot
	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Search entrypoint (inject for testability)
	RunSearch func(ctx context.Context, c domain.Criteria) domain.SearchResult

	// Mailer for alert confirmations; nil disables them
	Mailer notify.Mailer

	// Diagnostics probing
	Fetcher     fetch.Fetcher
	Portals     []Portal
	HasProxyKey bool
}
