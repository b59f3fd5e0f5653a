// Package api exposes the operations over HTTP as `POST /api/<operation>` with JSON bodies.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andrew2loo/RethinkBI/internal/api/middleware"
	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/config"
	"github.com/andrew2loo/RethinkBI/internal/debug"
	"github.com/andrew2loo/RethinkBI/internal/service"
)

const maxBodyBytes = 1 << 20

// NewServer builds the HTTP server for cfg.
func NewServer(cfg config.ServerConfig, svc *service.Services) (*http.Server, error) {
	addr := strings.TrimSpace(cfg.Listen)
	if err := validateListenAddr(addr); err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              addr,
		Handler:           NewHandler(svc, strings.TrimSpace(cfg.Token)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, nil
}

// NewHandler routes every operation. A non-empty token enables bearer authentication.
func NewHandler(svc *service.Services, token string) http.Handler {
	h := &handlers{svc: svc}

	routes := map[string]http.HandlerFunc{
		service.OpGetSchema:        h.getSchema,
		service.OpRunQuery:         h.runQuery,
		service.OpStartQuery:       h.startQuery,
		service.OpGetQueryResult:   h.getQueryResult,
		service.OpCancelQuery:      h.cancelQuery,
		service.OpImportDataset:    h.importDataset,
		service.OpExportDataset:    h.exportDataset,
		service.OpListConnections:  h.listConnections,
		service.OpCreateConnection: h.createConnection,
		service.OpDeleteConnection: h.deleteConnection,
		service.OpGetStatus:        h.getStatus,
		service.OpGetCapabilities:  h.getCapabilities,
	}

	mux := http.NewServeMux()
	for op, fn := range routes {
		mux.Handle("/api/"+op, postOnly(fn))
	}
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, apierr.NewNotFound("operation", strings.TrimPrefix(r.URL.Path, "/api/")))
	})

	var handler http.Handler = mux
	handler = middleware.Auth(token, unauthorized, handler)
	handler = middleware.Logging(debug.With("component", "http"), handler)
	return handler
}

func postOnly(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, apierr.New(apierr.Validation, "method %s not allowed", r.Method))
			return
		}
		next(w, r)
	})
}

func unauthorized(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSON(w, http.StatusUnauthorized, map[string]any{"code": "UNAUTHORIZED", "message": "unauthorized"})
}

// decodeBody reads an optional JSON body into dst. Numbers stay json.Number so integers
// survive validation exactly.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apierr.NewValidation("", "invalid JSON body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apierr.NewValidation("", "invalid JSON body: trailing data")
	}
	return nil
}

func validateListenAddr(addr string) error {
	if addr == "" {
		return errors.New("server.listen is required")
	}

	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return errors.New("server.listen must be in host:port format")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return errors.New("server.listen port is invalid")
	}
	return nil
}
