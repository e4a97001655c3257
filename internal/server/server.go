// Package server provides the HTTP surface of the docaccordion macro.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/docaccordion/internal/config"
	"github.com/hyperjump/docaccordion/internal/macro"
	"github.com/hyperjump/docaccordion/internal/rendering"
	"github.com/hyperjump/docaccordion/internal/storage"
	"github.com/hyperjump/docaccordion/pkg/utils"
)

// Macro runs accordion invocations.
type Macro interface {
	Execute(ctx context.Context, params macro.Parameters, content string, tctx macro.TransformationContext) ([]*rendering.Block, error)
	Descriptor(locale string) macro.Descriptor
}

// Server is the HTTP server rendering accordions and the documents they link to.
type Server struct {
	macro   Macro
	storage storage.Storage
	rights  macro.Authorizer
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	m Macro,
	store storage.Storage,
	auth macro.Authorizer,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		macro:   m,
		storage: store,
		rights:  auth,
		config:  cfg,
		logger:  utils.OrNop(logger),
	}
}

// Router returns the HTTP handler with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Delete("/api/v1/documents/{fullName}", s.handleDeleteDocument)
	r.Get("/macro/docaccordion", s.handleAccordionPage)
	r.Get("/macro/docaccordion.json", s.handleAccordionJSON)
	r.Get("/macro/docaccordion/descriptor", s.handleDescriptor)
	r.Get("/get/{fullName}", s.handleGetDocument)
	r.Get("/skin/{resource}", s.handleSkin)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr), zap.String("base_url", s.config.Server.BaseURL))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
