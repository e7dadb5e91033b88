package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"kbdedup/internal/config"
	"kbdedup/internal/http/handlers/docs"
	"kbdedup/internal/http/middleware"
	"kbdedup/internal/models"
	utils "kbdedup/internal/utils/http_errors"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func StartServer(
	ctx context.Context,
	cfg *config.HTTPServer,
	log *slog.Logger,
	documentService DocumentService,
	registry *prometheus.Registry,
) error {
	handler, err := NewHandler(cfg, log, documentService, registry)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Address,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		IdleTimeout:  cfg.IdleTimeout,
		Handler:      handler,
	}

	errChan := make(chan error, 1)

	go func() {
		log.Info("server started", slog.String("address", cfg.Address))
		if err := srv.ListenAndServe(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				log.Info("server closed gracefully")
			} else {
				log.Error("could not start server:", "error", err)
				errChan <- err
			}
		}
	}()
	select {
	case <-ctx.Done():
		log.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("error shutting down server", "error", err)
			return err
		}
		log.Info("server exited gracefully")
		return nil
	case err := <-errChan:
		return err
	}
}

// NewHandler builds the routed, instrumented HTTP handler.
func NewHandler(cfg *config.HTTPServer, log *slog.Logger, documentService DocumentService, registry *prometheus.Registry) (http.Handler, error) {
	prom, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()

	r.Use(middleware.Logger(log))
	r.Use(prom.Handler)

	setupRoutes(r, log, cfg.MaxUploadBytes, documentService, registry)

	return otelhttp.NewHandler(r, "kbdedup"), nil
}

func setupRoutes(r *mux.Router, log *slog.Logger, maxUploadBytes int64, doc DocumentService, registry *prometheus.Registry) {
	// GET metrics
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	protected := r.NewRoute().Subrouter()

	protected.Use(middleware.Identity(log))

	// POST document into knowledge base
	protected.HandleFunc("/api/kbs/{kb}/documents", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		kbID := mux.Vars(r)["kb"]
		docs.Upload(ctx, log, w, r, kbID, maxUploadBytes, doc)
	}).Methods(http.MethodPost)

	// GET visible documents of knowledge base
	protected.HandleFunc("/api/kbs/{kb}/documents", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		kbID := mux.Vars(r)["kb"]
		docs.Get(ctx, log, w, r, kbID, doc)
	}).Methods(http.MethodGet)

	// HEAD visible documents of knowledge base
	protected.HandleFunc("/api/kbs/{kb}/documents", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		kbID := mux.Vars(r)["kb"]
		docs.Head(ctx, log, w, r, kbID, doc)
	}).Methods(http.MethodHead)

	// GET single document
	protected.HandleFunc("/api/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := mux.Vars(r)["id"]
		docs.GetByID(ctx, log, w, id, doc)
	}).Methods(http.MethodGet)

	// GET quota of requester
	protected.HandleFunc("/api/quota", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		docs.Quota(ctx, log, w, doc)
	}).Methods(http.MethodGet)

	// Not allowed
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONError(w, http.StatusMethodNotAllowed, models.ErrMethodNotAllowed.Error())
	})
}
