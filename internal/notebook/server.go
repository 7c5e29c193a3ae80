// SPDX-License-Identifier: MPL-2.0

package notebook

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/shellplus/shellplus/internal/core/lifecycle"
	"github.com/shellplus/shellplus/internal/namespace"
)

const (
	// DefaultAddr is used when Config.Addr is empty.
	DefaultAddr = "127.0.0.1:8888"

	defaultEvalTimeout = 30 * time.Second
	maxCellSize        = 1 << 20
)

//go:embed index.html
var indexHTML []byte

type (
	// Config configures a Server.
	Config struct {
		// Addr is the listen address. Use port 0 for a random port.
		Addr      string
		Namespace *namespace.Namespace
		// Token authenticates requests. Generated when empty.
		Token string
		// EvalTimeout bounds one cell evaluation. Defaults to 30s.
		EvalTimeout time.Duration
		Logger      *log.Logger
	}

	// Cell is one evaluated input.
	Cell struct {
		ID         string    `json:"id"`
		Count      int       `json:"count"`
		Source     string    `json:"source"`
		Output     string    `json:"output,omitempty"`
		Display    string    `json:"display,omitempty"`
		Error      string    `json:"error,omitempty"`
		ExecutedAt time.Time `json:"executed_at"`
	}

	// Server is the notebook HTTP server.
	//
	// State machine: Created → Starting → Running → Stopping → Stopped, or
	// Failed when the listener cannot be opened or Serve fails.
	Server struct {
		*lifecycle.Base

		cfg        Config
		token      string
		logger     *log.Logger
		httpServer *http.Server

		addrMu sync.Mutex
		addr   string

		cellsMu sync.Mutex
		cells   []Cell
	}

	cellRequest struct {
		Source string `json:"source"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

// New creates a Server. It does not listen until Start.
func New(cfg Config) (*Server, error) {
	if cfg.Namespace == nil {
		return nil, errors.New("notebook: namespace is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.EvalTimeout <= 0 {
		cfg.EvalTimeout = defaultEvalTimeout
	}
	token := cfg.Token
	if token == "" {
		t, err := generateToken(24)
		if err != nil {
			return nil, fmt.Errorf("notebook: generate token: %w", err)
		}
		token = t
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Server{
		Base:   lifecycle.NewBase(),
		cfg:    cfg,
		token:  token,
		logger: logger.WithPrefix("notebook"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /{$}", s.authenticated(http.HandlerFunc(s.handleIndex)))
	mux.Handle("GET /api/names", s.authenticated(http.HandlerFunc(s.handleNames)))
	mux.Handle("GET /api/cells", s.authenticated(http.HandlerFunc(s.handleListCells)))
	mux.Handle("POST /api/cells", s.authenticated(http.HandlerFunc(s.handleEvalCell)))

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Start opens the listener and begins serving. It returns once the server
// accepts connections.
func (s *Server) Start(ctx context.Context) error {
	if err := s.TransitionToStarting(ctx); err != nil {
		return err
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		err = fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
		s.TransitionToFailed(err)
		return err
	}
	s.addrMu.Lock()
	s.addr = listener.Addr().String()
	s.addrMu.Unlock()

	s.Go(func() {
		err := s.httpServer.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve", "err", err)
			s.TransitionToFailed(fmt.Errorf("serve: %w", err))
		}
	})

	s.TransitionToRunning()
	s.logger.Info("notebook server started", "address", s.Addr())
	return nil
}

// Stop shuts the server down, waiting up to five seconds for in-flight
// requests. Safe to call more than once.
func (s *Server) Stop() error {
	var shutdownErr error
	s.Shutdown(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownErr = s.httpServer.Shutdown(ctx)
	})
	return shutdownErr
}

// Addr returns the listen address, known after Start.
func (s *Server) Addr() string {
	s.addrMu.Lock()
	defer s.addrMu.Unlock()
	return s.addr
}

// Token returns the authentication token.
func (s *Server) Token() string {
	return s.token
}

// URL returns the page URL including the token.
func (s *Server) URL() string {
	return "http://" + s.Addr() + "/?token=" + url.QueryEscape(s.token)
}

// Cells returns the evaluated cells in order.
func (s *Server) Cells() []Cell {
	s.cellsMu.Lock()
	defer s.cellsMu.Unlock()
	out := make([]Cell, len(s.cells))
	copy(out, s.cells)
	return out
}

// authenticated rejects requests without the server token.
func (s *Server) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		given := r.URL.Query().Get("token")
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			given = strings.TrimPrefix(auth, "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(given), []byte(s.token)) != 1 {
			s.sendError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleNames(w http.ResponseWriter, _ *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string][]string{
		"models":  s.cfg.Namespace.Names(),
		"globals": s.cfg.Namespace.Globals(),
	})
}

func (s *Server) handleListCells(w http.ResponseWriter, _ *http.Request) {
	s.sendJSON(w, http.StatusOK, s.Cells())
}

func (s *Server) handleEvalCell(w http.ResponseWriter, r *http.Request) {
	var req cellRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCellSize))
	if err := dec.Decode(&req); err != nil {
		s.sendError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		s.sendError(w, "source is empty", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.EvalTimeout)
	defer cancel()

	cell := Cell{
		ID:         uuid.NewString(),
		Source:     req.Source,
		ExecutedAt: time.Now().UTC(),
	}
	res, err := s.cfg.Namespace.Eval(ctx, req.Source)
	if res != nil {
		cell.Output = res.Output
		cell.Display = res.Display
	}
	if err != nil {
		cell.Error = err.Error()
	}

	s.cellsMu.Lock()
	cell.Count = len(s.cells) + 1
	s.cells = append(s.cells, cell)
	s.cellsMu.Unlock()

	s.logger.Debug("cell evaluated", "id", cell.ID, "error", cell.Error != "")
	s.sendJSON(w, http.StatusOK, cell)
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) sendError(w http.ResponseWriter, msg string, status int) {
	s.sendJSON(w, status, errorResponse{Error: msg})
}

// generateToken returns a random hex token of n bytes.
func generateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
