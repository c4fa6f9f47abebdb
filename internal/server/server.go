// Package server expone los pipelines y las consultas de picks por HTTP y MCP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/capcea/bet-backend/internal/adapters/oddsapi"
	"github.com/capcea/bet-backend/internal/application/scanner"
	"github.com/capcea/bet-backend/internal/application/settlement"
	"github.com/capcea/bet-backend/internal/domain"
	"github.com/capcea/bet-backend/internal/ports"
)

// ScanRunner es lo que el servidor necesita del pipeline de scan.
type ScanRunner interface {
	RunOnce(ctx context.Context, p scanner.Params) (scanner.Result, error)
	Defaults() scanner.Params
}

// SettleRunner es lo que el servidor necesita del pipeline de liquidación.
type SettleRunner interface {
	RunOnce(ctx context.Context) (settlement.Result, error)
}

// OddsProber diagnostica la conexión con el proveedor de cuotas.
type OddsProber interface {
	Ping(ctx context.Context) (oddsapi.Probe, error)
	HasKey() bool
}

// Store son las lecturas que sirve la API.
type Store interface {
	ports.PickReader
	RecentRuns(ctx context.Context, limit int) ([]domain.Run, error)
	Ping(ctx context.Context) error
}

// Config contiene la configuración del servidor HTTP.
type Config struct {
	Addr        string
	CORSOrigins []string
	MCPEnabled  bool
	Version     string
}

// Server es la API HTTP.
type Server struct {
	cfg     Config
	scan    ScanRunner
	settle  SettleRunner
	store   Store
	odds    OddsProber
	handler http.Handler
}

// New construye el router con todas las rutas. odds puede ser nil.
func New(cfg Config, scan ScanRunner, settle SettleRunner, store Store, odds OddsProber) *Server {
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	s := &Server{cfg: cfg, scan: scan, settle: settle, store: store, odds: odds}
	s.handler = s.routes()
	return s
}

// Handler devuelve el http.Handler del servidor (tests y embebido).
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Mcp-Session-Id"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/diag", s.handleDiag)
		r.Post("/scan", s.handleScan)
		r.Post("/settle", s.handleSettle)
		r.Get("/upcoming", s.handleUpcoming)
		r.Get("/logs", s.handleLogs)
		r.Get("/stats", s.handleStats)
		r.Get("/runs", s.handleRuns)
	})

	if s.cfg.MCPEnabled {
		r.Handle("/mcp", s.mcpHandler())
	}
	return r
}

// Run sirve hasta que el contexto se cancele y luego hace un shutdown ordenado.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.cfg.Addr, "mcp", s.cfg.MCPEnabled)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server.Run: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server.Run: shutdown: %w", err)
	}
	slog.Info("http server stopped")
	return nil
}

// requestLogger registra cada request con slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if r.URL.Path == "/api/health" {
			level = slog.LevelDebug
		}
		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}
