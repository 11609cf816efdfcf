package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/puyokura/cmppfeed/logging"
	"github.com/puyokura/cmppfeed/model"
)

// Server answers post and registration requests. It validates nothing and
// stores nothing: every payload is logged and acknowledged.
type Server struct {
	config *Config
	logger logging.Logger

	posts         atomic.Int64
	registrations atomic.Int64
	failures      atomic.Int64
}

func NewServer(config *Config, logger logging.Logger) *Server {
	return &Server{config: config, logger: logger}
}

// Stats is a snapshot of the acknowledgment counters.
type Stats struct {
	Posts         int64
	Registrations int64
	Failures      int64
}

func (s *Server) Stats() Stats {
	return Stats{
		Posts:         s.posts.Load(),
		Registrations: s.registrations.Load(),
		Failures:      s.failures.Load(),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("POST /api/posts", s.acknowledge("post", model.MsgPostSubmitted, model.MsgPostSubmitFailed, &s.posts))
	mux.Handle("POST /api/register", s.acknowledge("register", model.MsgRegistered, model.MsgRegisterFailed, &s.registrations))
	mux.HandleFunc("OPTIONS /api/", s.handlePreflight)
	return s.withRequestID(mux)
}

type ctxKey struct{}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), ctxKey{}, s.logger.With("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) log(ctx context.Context) logging.Logger {
	if l, ok := ctx.Value(ctxKey{}).(logging.Logger); ok {
		return l
	}
	return s.logger
}

// acknowledge builds an echo-and-acknowledge endpoint. The body may be any
// JSON value. Failures, panics included, produce a 500 with failMsg and never
// expose the cause.
func (s *Server) acknowledge(kind, okMsg, failMsg string, counter *atomic.Int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := s.log(ctx).With("endpoint", r.URL.Path)

		defer func() {
			if p := recover(); p != nil {
				s.failures.Add(1)
				log.Error(ctx, "handler panic", "panic", fmt.Sprint(p))
				s.writeJSON(w, http.StatusInternalServerError, model.Ack{Message: failMsg})
			}
		}()

		payload, err := s.readPayload(w, r)
		if err != nil {
			s.failures.Add(1)
			log.Error(ctx, kind+" failed", "error", err)
			s.writeJSON(w, http.StatusInternalServerError, model.Ack{Message: failMsg})
			return
		}

		log.Info(ctx, kind+" received", "payload", string(payload))
		counter.Add(1)
		s.writeJSON(w, http.StatusCreated, model.Ack{Message: okMsg})
	})
}

func (s *Server) readPayload(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	s.config.mu.RLock()
	limit := s.config.MaxBodyBytes
	s.config.mu.RUnlock()

	body := http.MaxBytesReader(w, r.Body, limit)
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("decode body: not valid JSON")
	}
	return json.RawMessage(data), nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	s.setCORS(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn(context.Background(), "write response failed", "error", err)
	}
}

func (s *Server) setCORS(w http.ResponseWriter) {
	s.config.mu.RLock()
	origin := s.config.AllowOrigin
	s.config.mu.RUnlock()
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	s.setCORS(w)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusNoContent)
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Name}}</title>
    <style>
        body { font-family: sans-serif; text-align: center; padding-top: 50px; }
        code { background: #f4f4f4; padding: 5px; border-radius: 5px; }
    </style>
</head>
<body>
    <h1>Welcome to {{.Name}}</h1>
    <p>{{.Welcome}}</p>
    <p>Endpoints: <code>POST /api/posts</code> and <code>POST /api/register</code>.</p>
    <p>Run: <code>./client --server {{.Addr}}</code></p>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.config.mu.RLock()
	data := struct{ Name, Welcome, Addr string }{
		Name:    s.config.ServerName,
		Welcome: s.config.WelcomeMessage,
		Addr:    s.config.Host + ":" + s.config.Port,
	}
	s.config.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		s.log(r.Context()).Warn(r.Context(), "render index failed", "error", err)
	}
}
