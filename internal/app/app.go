// Package app wires configuration, storage and the ledger services together
// for the server and the admin CLI.
package app

import (
	"fmt"
	"log/slog"

	"github.com/mmynk/cotisations/internal/api"
	"github.com/mmynk/cotisations/internal/auth"
	"github.com/mmynk/cotisations/internal/config"
	"github.com/mmynk/cotisations/internal/service"
	"github.com/mmynk/cotisations/internal/storage/sqlite"
)

// App holds the opened store and the services built on it.
type App struct {
	Config     *config.Config
	Store      *sqlite.SQLiteStore
	JWTManager *auth.JWTManager
	Services   api.Services
}

// Settings converts the configuration into service settings.
func Settings(cfg *config.Config) service.Settings {
	settings := service.DefaultSettings()
	settings.DefaultDueAmount = cfg.DefaultDueAmount
	settings.MinImportAmount = cfg.MinImportAmount
	settings.ParcelPrice = cfg.ParcelPrice
	settings.PhoneCountryCode = cfg.PhoneCountryCode
	settings.OrgName = cfg.OrgName
	return settings
}

// New opens the database named in cfg and builds every service.
func New(cfg *config.Config) (*App, error) {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	slog.Info("Storage initialized", "database", cfg.DBPath)

	settings := Settings(cfg)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	participants := service.NewParticipantService(store, settings)
	dues := service.NewDueService(store, settings)

	return &App{
		Config:     cfg,
		Store:      store,
		JWTManager: jwtManager,
		Services: api.Services{
			Participants: participants,
			Dues:         dues,
			History:      service.NewHistoryService(store),
			Import:       service.NewImportService(participants, dues, settings),
			Reports:      service.NewReportService(store, settings),
			Reminders:    service.NewReminderService(store, settings),
			Auth: service.NewAuthService(
				auth.NewPasswordAuthenticator(store), jwtManager, store, slog.Default(),
			),
		},
	}, nil
}

// Handler returns the HTTP API over the app's services.
func (a *App) Handler() *api.Server {
	return api.NewServer(a.Services, a.JWTManager, a.Store, api.BackupConfig{
		Dir:  a.Config.BackupDir,
		Keep: a.Config.BackupKeep,
	})
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}
