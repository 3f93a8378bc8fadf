// Package api exposes the ledger services over HTTP as JSON.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/cotisations/internal/auth"
	"github.com/mmynk/cotisations/internal/backup"
	"github.com/mmynk/cotisations/internal/middleware"
	"github.com/mmynk/cotisations/internal/service"
)

// Services groups the ledger services the handlers call.
type Services struct {
	Participants *service.ParticipantService
	Dues         *service.DueService
	History      *service.HistoryService
	Import       *service.ImportService
	Reports      *service.ReportService
	Reminders    *service.ReminderService
	Auth         *service.AuthService
}

// BackupConfig says where on-demand backups go and how many are kept.
type BackupConfig struct {
	Dir  string
	Keep int
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	services   Services
	jwtManager *auth.JWTManager
	snapshots  backup.Snapshotter
	backup     BackupConfig
}

// NewServer creates a new Server.
func NewServer(services Services, jwtManager *auth.JWTManager, snapshots backup.Snapshotter, backupCfg BackupConfig) *Server {
	return &Server{
		services:   services,
		jwtManager: jwtManager,
		snapshots:  snapshots,
		backup:     backupCfg,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(chimw.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.jwtManager))

			r.Route("/participants", func(r chi.Router) {
				r.Get("/", s.handleListParticipants)
				r.Post("/", s.handleCreateParticipant)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetParticipant)
					r.Put("/", s.handleUpdateParticipant)
					r.Delete("/", s.handleDeleteParticipant)
					r.Get("/stats", s.handleParticipantStats)
					r.Get("/history", s.handleParticipantHistory)
				})
			})
			r.Route("/dues", func(r chi.Router) {
				r.Get("/", s.handleListDues)
				r.Post("/", s.handleAddDue)
				r.Post("/generate", s.handleGenerateMonth)
				r.Post("/{id}/payment", s.handleSetPaid)
				r.Delete("/{id}", s.handleDeleteDue)
			})
			r.Post("/import", s.handleImport)
			r.Route("/reports", func(r chi.Router) {
				r.Get("/dashboard", s.handleDashboard)
				r.Get("/export.csv", s.handleExport)
			})
			r.Route("/reminders", func(r chi.Router) {
				r.Get("/", s.handleReminderCandidates)
				r.Get("/{participantID}", s.handleBuildReminder)
			})
			r.Get("/history", s.handleListHistory)
			r.Post("/admin/backup", s.handleBackup)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"status":  "available",
		"version": "0.1.0",
	}

	if err := writeJSON(w, http.StatusOK, data); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
