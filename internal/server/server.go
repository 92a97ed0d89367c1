// Package server exposes the workflow steps over HTTP. Each step endpoint
// receives a full state snapshot, runs one step, and returns the new
// snapshot; clients carry the state between calls.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/medhansh29/ia-agent/internal/workflow"
)

// Server is the HTTP front end of the workflow engine.
type Server struct {
	engine *workflow.Engine
	addr   string
	logger *slog.Logger
}

// Config holds configuration for the HTTP server.
type Config struct {
	Engine *workflow.Engine
	Addr   string
	Logger *slog.Logger
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine: cfg.Engine,
		addr:   cfg.Addr,
		logger: logger,
	}
}

// Routes assembles the step endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/step", func(r chi.Router) {
		r.Post("/generate-variables", s.step(s.engine.GenerateVariables))
		r.Post("/analyze-dependencies", s.step(s.engine.AnalyzeDependencies))
		r.Post("/modify-variables", s.step(s.engine.ModifyVariables))
		r.Post("/synchronize-variables", s.step(s.engine.SynchronizeVariables))
		r.Post("/finalize-variables", s.step(s.engine.FinalizeVariables))
		r.Post("/generate-questionnaire", s.step(s.engine.GenerateQuestionnaire))
		r.Post("/modify-questionnaire", s.step(s.engine.ModifyQuestionnaire))
		r.Post("/analyze-impact", s.step(s.engine.AnalyzeImpact))
		r.Post("/save-questionnaire", s.step(s.engine.SaveQuestionnaire))
	})
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
