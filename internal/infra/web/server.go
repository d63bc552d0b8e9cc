// Package web exposes the JSON HTTP API.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"jobflow/internal/app"
	"jobflow/internal/domain/application"
	"jobflow/internal/domain/attachment"
	"jobflow/internal/infra/export"
	"jobflow/internal/infra/settings"
	"jobflow/internal/infra/templates"
)

// Server wires the HTTP API over the application services.
type Server struct {
	httpServer *http.Server

	repo      application.Repository
	followups *app.FollowupService
	sender    *app.SendService
	analytics *app.AnalyticsService
	resolver  attachment.Resolver
	templates *templates.Manager
	settings  *settings.Store
	exporter  *export.Exporter
	log       *logrus.Logger
}

func NewServer(
	addr string,
	repo application.Repository,
	followups *app.FollowupService,
	sender *app.SendService,
	analytics *app.AnalyticsService,
	resolver attachment.Resolver,
	tpls *templates.Manager,
	settingsStore *settings.Store,
	exporter *export.Exporter,
	log *logrus.Logger,
) *Server {
	s := &Server{
		repo:      repo,
		followups: followups,
		sender:    sender,
		analytics: analytics,
		resolver:  resolver,
		templates: tpls,
		settings:  settingsStore,
		exporter:  exporter,
		log:       log,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/timeline", s.handleTimeline)
		r.Get("/companies/top", s.handleTopCompanies)
		r.Get("/effectiveness", s.handleEffectiveness)
		r.Get("/weekly", s.handleWeekly)

		r.Get("/followups/process", s.handleFollowupsPreview)
		r.Post("/followups/process", s.handleFollowupsProcess)

		r.Post("/send", s.handleSend)

		r.Get("/applications", s.handleListApplications)
		r.Post("/applications", s.handleAddDraft)
		r.Get("/applications/{id}", s.handleGetApplication)
		r.Put("/applications/{id}", s.handleUpdateApplication)

		r.Get("/attachments/{language}", s.handleListAttachments)
		r.Get("/activity", s.handleActivity)

		r.Route("/templates/{category}/{language}", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Post("/", s.handleSaveTemplate)
			r.Delete("/{name}", s.handleDeleteTemplate)
		})

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)

		r.Get("/export", s.handleExport)
	})

	return r
}

// Start blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.log.Infof("HTTP server listening on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Debug("Request handled")
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Errorf("Encode response failed: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
