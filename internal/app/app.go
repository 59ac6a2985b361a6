// Package app wires configuration, stores and services together for the
// server, worker and admin binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/sumire/lostfound/internal/config"
	"github.com/sumire/lostfound/internal/database"
	"github.com/sumire/lostfound/internal/memstore"
	"github.com/sumire/lostfound/internal/repository"
	"github.com/sumire/lostfound/internal/service"
)

// Stores is the persistence layer picked by STORE_BACKEND.
type Stores struct {
	Reports       service.ReportStore
	Claims        service.ClaimStore
	Notifications service.NotificationStore
	Users         service.UserStore

	db *sqlx.DB
}

// OpenStores connects the configured backend. For postgres the schema is
// created when missing.
func OpenStores(ctx context.Context, cfg config.Config) (*Stores, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		mem := memstore.New()
		slog.Warn("using in-memory store; data is lost on restart")
		return &Stores{
			Reports:       mem.Reports,
			Claims:        mem.Claims,
			Notifications: mem.Notifications,
			Users:         mem.Users,
		}, nil
	case config.StorePostgres:
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		slog.Info("database connected")
		return &Stores{
			Reports:       repository.NewReportRepository(db),
			Claims:        repository.NewClaimRepository(db),
			Notifications: repository.NewNotificationRepository(db),
			Users:         repository.NewUserRepository(db),
			db:            db,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Shared reports whether other processes see the same data.
func (s *Stores) Shared() bool {
	return s.db != nil
}

// Close releases the database handle, if any.
func (s *Stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewAuthService builds the identity provider from cfg.
func NewAuthService(users service.UserStore, cfg config.Config) *service.AuthService {
	return service.NewAuthService(users, service.AuthConfig{
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
		GitHubClientID:     cfg.GitHubClientID,
		GitHubClientSecret: cfg.GitHubClientSecret,
		JWTSecret:          cfg.JWTSecret,
		FrontendURL:        cfg.FrontendURL,
	})
}

// NewNotificationService builds the notification dispatcher over s.
func (s *Stores) NewNotificationService() *service.NotificationService {
	return service.NewNotificationService(s.Notifications, s.Claims, s.Reports, s.Users)
}

// NewReportService builds the report lifecycle service over s.
func (s *Stores) NewReportService(cfg config.Config) *service.ReportService {
	return service.NewReportService(s.Reports, service.ReportPolicy{
		RequireImageForFound: cfg.RequireImageForFound,
	})
}
