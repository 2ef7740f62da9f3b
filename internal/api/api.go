// Package api exposes the bridge as JSON over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ppiankov/offhours/internal/bridge"
	"github.com/ppiankov/offhours/internal/logger"
)

// maxBody caps request bodies; UI trees are the largest payloads.
const maxBody = 1 << 20

// Server is a thin wrapper over chi and http.Server.
type Server struct {
	svc *bridge.Service
	mux *chi.Mux
	srv *http.Server
	log *logger.Logger
}

// NewServer builds the router for svc.
func NewServer(addr string, svc *bridge.Service) *Server {
	s := &Server{svc: svc, mux: chi.NewRouter(), log: logger.Named("http")}
	s.mux.Use(chimw.RequestID, chimw.Recoverer, s.accessLog, chimw.Timeout(10*time.Second))

	s.mux.Get("/healthz", s.health)
	s.mux.Route("/v1", func(r chi.Router) {
		r.Post("/calls/screen", handle(s.svc.ScreenCall))
		r.Post("/messages", handle(s.svc.InboundMessage))
		r.Post("/ui-events", handle(s.svc.UIEvent))
		r.Get("/decision", s.decision)
		r.Post("/dnd/reconcile", handle(s.svc.DND))
		r.Get("/commands", s.commands)
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.mux }

// Serve serves on lis until Shutdown.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info().Str("addr", lis.Addr().String()).Msg("http bridge listening")
	err := s.srv.Serve(lis)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Run listens on the configured address and serves.
func (s *Server) Run() error {
	lis, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decision(w http.ResponseWriter, r *http.Request) {
	req := bridge.DecideRequest{Feature: r.URL.Query().Get("feature")}
	if at := r.URL.Query().Get("at"); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			writeError(w, http.StatusBadRequest, "at must be RFC 3339")
			return
		}
		req.At = t
	}
	resp, err := s.svc.Decide(r.Context(), &req)
	respond(w, resp, err)
}

func (s *Server) commands(w http.ResponseWriter, r *http.Request) {
	resp, err := s.svc.Commands(r.Context(), &bridge.CommandsRequest{})
	respond(w, resp, err)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("request")
	})
}

// handle decodes a JSON body into Req and encodes the bridge response.
func handle[Req, Resp any](call func(context.Context, *Req) (*Resp, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := new(Req)
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
		if err := dec.Decode(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
		resp, err := call(r.Context(), req)
		respond(w, resp, err)
	}
}

func respond(w http.ResponseWriter, resp any, err error) {
	switch {
	case errors.Is(err, bridge.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
