// Package server exposes the configuration store, the strategy registry and
// the backtest engine over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/tradeview-lab/tradeview/internal/configstore"
	"github.com/tradeview-lab/tradeview/internal/logger"
	"github.com/tradeview-lab/tradeview/internal/resolver"
	"github.com/tradeview-lab/tradeview/internal/strategy"
	"go.uber.org/zap"
)

// Server routes API requests to the config store, resolver and engine.
type Server struct {
	registry *strategy.Registry
	store    configstore.Store
	resolver *resolver.Resolver
	logger   *logger.Logger
	router   *mux.Router

	httpServer *http.Server
}

// NewServer wires the API together. Call Router for tests or Start to listen.
func NewServer(registry *strategy.Registry, store configstore.Store, resolver *resolver.Resolver, logger *logger.Logger) *Server {
	s := &Server{
		registry: registry,
		store:    store,
		resolver: resolver,
		logger:   logger,
	}

	router := mux.NewRouter()

	router.HandleFunc("/api/strategies", s.handleListStrategies).Methods("GET")
	router.HandleFunc("/api/strategies/{name}", s.handleGetStrategy).Methods("GET")
	router.HandleFunc("/api/strategies/{name}/params", s.handleResolveParams).Methods("GET")

	router.HandleFunc("/api/configs", s.handleListConfigs).Methods("GET")
	router.HandleFunc("/api/configs", s.handleSaveConfig).Methods("POST")
	router.HandleFunc("/api/configs/import", s.handleImportConfig).Methods("POST")
	router.HandleFunc("/api/configs/{id}", s.handleGetConfig).Methods("GET")
	router.HandleFunc("/api/configs/{id}", s.handleDeleteConfig).Methods("DELETE")
	router.HandleFunc("/api/configs/{id}/export", s.handleExportConfig).Methods("GET")
	router.HandleFunc("/api/configs/{id}/duplicate", s.handleDuplicateConfig).Methods("POST")

	router.HandleFunc("/api/backtest", s.handleRunBacktest).Methods("POST")

	s.router = router

	return s
}

// Router returns the HTTP handler, for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("HTTP server listening", zap.String("addr", addr))

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}

	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}
