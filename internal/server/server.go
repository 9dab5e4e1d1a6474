// Package server exposes the classification engine and the merchant and
// transaction stores over HTTP with JSON bodies.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/spicecat/internal/classify"
	"github.com/Veraticus/spicecat/internal/model"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 8 << 20

// Store is the persistence the merchant and transaction endpoints need.
type Store interface {
	GetMerchant(ctx context.Context, id string) (*model.Merchant, error)
	ListMerchants(ctx context.Context) ([]model.Merchant, error)
	SaveMerchant(ctx context.Context, merchant *model.Merchant) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
}

// Server routes HTTP requests to the engine and store.
type Server struct {
	engine       *classify.Engine
	store        Store
	logger       *slog.Logger
	mux          *http.ServeMux
	maxBodyBytes int64
}

// New creates a server. A nil store disables the merchant and transaction
// endpoints.
func New(engine *classify.Engine, store Store) *Server {
	s := &Server{
		engine:       engine,
		store:        store,
		logger:       slog.Default().With("component", "server"),
		mux:          http.NewServeMux(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /classify", s.handleClassify)
	s.mux.HandleFunc("POST /classify/bulk", s.handleBulk)
	s.mux.HandleFunc("POST /classify/bulk/stream", s.handleBulkStream)

	if s.store != nil {
		s.mux.HandleFunc("GET /merchants", s.handleListMerchants)
		s.mux.HandleFunc("GET /merchants/{id}", s.handleGetMerchant)
		s.mux.HandleFunc("POST /merchants", s.handleSaveMerchant)
		s.mux.HandleFunc("GET /transactions/{id}", s.handleGetTransaction)
		s.mux.HandleFunc("POST /transactions", s.handleSaveTransactions)
	}
}

// Handler returns the root handler with request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(rec, r)
		s.logger.Debug("Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
