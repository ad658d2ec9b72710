// Package web serves the crudweb HTML pages. Each route handler parses the
// request, calls the records query layer, and renders a page or redirects.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mesh-intelligence/crudweb/pkg/types"
)

// Default server settings.
const (
	DefaultAddr            = ":7000"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 5 * time.Second

	// maxFormBytes bounds a POST body.
	maxFormBytes = 1 << 20
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures a Server. Zero values select the defaults above.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Health backs GET /healthz. When nil the endpoint always reports ok.
	Health Pinger
}

func (o Options) withDefaults() Options {
	if o.Addr == "" {
		o.Addr = DefaultAddr
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = DefaultShutdownTimeout
	}
	return o
}

// Server holds the dependencies shared by all route handlers.
type Server struct {
	records types.RecordTable
	logger  *slog.Logger
	pages   pages
	opts    Options
}

// NewServer parses the page templates and returns a Server backed by records.
func NewServer(records types.RecordTable, logger *slog.Logger, opts Options) (*Server, error) {
	if records == nil {
		return nil, errors.New("web: records table is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	p, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Server{
		records: records,
		logger:  logger,
		pages:   p,
		opts:    opts.withDefaults(),
	}, nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.opts.Addr
}

// Handler returns the routed handler wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.route(mux, "GET /read/{id}", s.handleRead)
	s.route(mux, "GET /create", s.handleCreateForm)
	s.route(mux, "POST /create", s.handleCreate)
	s.route(mux, "GET /delete/{id}", s.handleDelete)
	s.route(mux, "GET /update/{id}", s.handleUpdateForm)
	s.route(mux, "POST /update/{id}", s.handleUpdate)

	searches := []struct {
		path  string
		field types.SearchField
	}{
		{"/allsearch", types.FieldEither},
		{"/titlesearch", types.FieldTitle},
		{"/descriptionsearch", types.FieldDescription},
	}
	for _, sr := range searches {
		h := s.searchHandler(sr.field)
		s.route(mux, "GET "+sr.path, h)
		s.route(mux, "POST "+sr.path, h)
	}

	return s.withRecovery(s.withRequestLog(mux))
}

// route registers pattern and its trailing-slash form, so /read/3 and
// /read/3/ reach the same handler.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, h)
	mux.HandleFunc(pattern+"/{$}", h)
}

// ListenAndServe listens on the configured address and serves until ctx
// is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("server started", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
