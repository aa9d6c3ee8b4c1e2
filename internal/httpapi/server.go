// Package httpapi provides the HTTP surface of the govledger server: Google
// sign-in, register entries, weekly documents, and the weekly summary.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/quorumworks/govledger/pkg/auth"
	"github.com/quorumworks/govledger/pkg/config"
	"github.com/quorumworks/govledger/pkg/docs"
	"github.com/quorumworks/govledger/pkg/register"
	"github.com/quorumworks/govledger/pkg/remote"
	"github.com/quorumworks/govledger/pkg/rescache"
	"github.com/quorumworks/govledger/pkg/week"
)

// StoresFactory builds the remote stores for one authenticated request.
// The server deployment returns Google-backed stores from the session's
// access token; mock mode returns a shared in-memory store.
type StoresFactory func(ctx context.Context, claims *auth.Claims) (remote.ContainerStore, remote.TabularStore, error)

// Summarizer produces the weekly narrative.
type Summarizer interface {
	Summarize(ctx context.Context, entries []register.Entry) (string, error)
}

// Server is the govledger HTTP API.
type Server struct {
	addr       string
	sessions   *auth.Sessions
	oauth      *auth.OAuth
	stores     StoresFactory
	summarizer Summarizer
	logger     *slog.Logger
	clock      week.Clock

	// Resolution caches are process-wide; request-scoped registers share
	// them, keyed by tenant.
	folderCache *rescache.Cache
	sheetCache  *rescache.Cache

	server *http.Server
}

// Config wires the HTTP server.
type Config struct {
	Addr       string
	Sessions   *auth.Sessions
	OAuth      *auth.OAuth
	Stores     StoresFactory
	Summarizer Summarizer
	Logger     *slog.Logger
	Clock      week.Clock
}

// NewServer initializes the API server and its shared caches.
func NewServer(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = config.DefaultListenAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	ttls := config.DefaultCacheTTLs()
	return &Server{
		addr:        cfg.Addr,
		sessions:    cfg.Sessions,
		oauth:       cfg.OAuth,
		stores:      cfg.Stores,
		summarizer:  cfg.Summarizer,
		logger:      cfg.Logger,
		clock:       cfg.Clock,
		folderCache: rescache.New(ttls.Folder),
		sheetCache:  rescache.New(ttls.Spreadsheet),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/auth/login", s.handleLogin)
	mux.HandleFunc("/auth/callback", s.handleCallback)
	mux.HandleFunc("/auth/logout", s.handleLogout)

	mux.HandleFunc("/api/entries", s.handleEntries)
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/links", s.handleLinks)

	return mux
}

// Start runs the server until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	s.logger.Info("Starting govledger server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// registerFor assembles the request-scoped register and document bucket for
// an authenticated session. Both share one resolver, so the folder cache
// warms across the two surfaces.
func (s *Server) registerFor(ctx context.Context, claims *auth.Claims) (*register.Register, *docs.Bucket, error) {
	containers, tabular, err := s.stores(ctx, claims)
	if err != nil {
		return nil, nil, err
	}

	reg := register.New(register.Config{
		Containers:       containers,
		Tabular:          tabular,
		Tenant:           claims.UserID,
		FolderCache:      s.folderCache,
		SpreadsheetCache: s.sheetCache,
		Clock:            s.clock,
		Logger:           s.logger,
	})
	bucket := docs.New(docs.Config{
		Resolver:   reg.Resolver(),
		Containers: containers,
		Clock:      s.clock,
		Logger:     s.logger,
	})
	return reg, bucket, nil
}
