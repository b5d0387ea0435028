// Package server exposes the compiler over HTTP so editors and build
// coordinators can compile buffers without touching the filesystem.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ruka-lang/ruka/internal/compiler"
)

// MaxBodyBytes bounds a compile request.
const MaxBodyBytes = 1 << 20

type UnitRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

type CompileRequest struct {
	Units    []UnitRequest `json:"units"`
	EmitTree bool          `json:"emit_tree"`
}

type errMSG struct {
	Message string `json:"error"`
}

type Server struct {
	opts   []compiler.Option
	logger *slog.Logger
}

// New returns a Server that compiles with opts. Per-request settings such
// as emit_tree are appended to them.
func New(logger *slog.Logger, opts ...compiler.Option) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{opts: opts, logger: logger}
}

// Handler returns the routes of the service.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.Health).Methods(http.MethodGet)
	r.HandleFunc("/v1/compile", s.Compile).Methods(http.MethodPost)
	r.Use(s.logRequests)
	return r
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

// Compile implements POST /v1/compile. The response is a compiler.Result;
// a failed compilation is still a 200, since the diagnostics are the
// answer.
func (s *Server) Compile(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, &errMSG{"request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, &errMSG{"trouble decoding request body: " + err.Error()})
		return
	}
	if len(req.Units) == 0 {
		writeJSON(w, http.StatusBadRequest, &errMSG{"no units to compile"})
		return
	}

	sources := make([]compiler.Source, 0, len(req.Units))
	for _, u := range req.Units {
		if u.Name == "" {
			writeJSON(w, http.StatusBadRequest, &errMSG{"every unit needs a name"})
			return
		}
		sources = append(sources, compiler.NewSource(u.Name, u.Source))
	}

	opts := append([]compiler.Option{compiler.WithLogger(s.logger)}, s.opts...)
	if req.EmitTree {
		opts = append(opts, compiler.WithEmitTree())
	}
	res := compiler.New(opts...).Compile(r.Context(), sources)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
