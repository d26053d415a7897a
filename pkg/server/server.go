package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	handlers "github.com/de-tools/cost-radar/pkg/handlers/radar"
	radarmiddleware "github.com/de-tools/cost-radar/pkg/server/middleware"
	"github.com/de-tools/cost-radar/pkg/services/analysis"
	"github.com/de-tools/cost-radar/pkg/services/lifecycle"
	"github.com/de-tools/cost-radar/pkg/services/recommend"
)

type WebAPI struct {
	router *chi.Mux
	logger *zerolog.Logger
	server *http.Server
}

type Dependencies struct {
	Analysis  analysis.Service
	Tracker   lifecycle.Service
	Generator recommend.Generator
	Logger    zerolog.Logger
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

// ConfigureRouter builds the radar API router. Exposed separately from
// NewWebAPI so handler tests can mount it on httptest.
func ConfigureRouter(config Config) *chi.Mux {
	radarHandler := handlers.NewHandler(
		config.Dependencies.Analysis,
		config.Dependencies.Tracker,
		config.Dependencies.Generator,
	)

	router := chi.NewRouter()

	router.Use(radarmiddleware.Logger(&config.Dependencies.Logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/ingest/{provider}", radarHandler.Ingest)
		r.Post("/analysis", radarHandler.Analyze)
		r.Get("/opportunities", radarHandler.ListOpportunities)
		r.Get("/opportunities/{key}", radarHandler.GetOpportunity)
		r.Post("/opportunities/{key}/status", radarHandler.UpdateStatus)
		r.Post("/opportunities/{key}/assign", radarHandler.Assign)
		r.Get("/stats/sla", radarHandler.SLAStats)
	})

	return router
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	config.Dependencies.Logger = logger
	router := ConfigureRouter(config)

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
	}
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
