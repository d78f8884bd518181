package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/arbitrageur/internal/broadcast"
	"github.com/sawpanic/arbitrageur/internal/circuit"
	"github.com/sawpanic/arbitrageur/internal/metrics"
)

type ctxKey int

const ctxRequestID ctxKey = iota

// ServerConfig mirrors server.go's ServerConfig shape: host/port plus the
// three http.Server timeouts.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default configuration, listening on all
// interfaces (0.0.0.0) at port, or 8080 when port is not positive.
func DefaultServerConfig(port int) ServerConfig {
	if port <= 0 {
		port = 8080
	}
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server is the read-only pull/push HTTP surface.
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *Handlers
	config   ServerConfig
}

// NewServer wires the router, handlers and /metrics endpoint together.
func NewServer(config ServerConfig, hub *broadcast.Hub, cb *circuit.Manager, venues []string, promReg *prometheus.Registry) *Server {
	router := mux.NewRouter()
	h := &Handlers{Hub: hub, Circuit: cb, Venues: venues}

	s := &Server{router: router, handlers: h, config: config}
	s.setupRoutes(promReg)

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes(promReg *prometheus.Registry) {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.corsMiddleware)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)

	api.HandleFunc("/health", s.handlers.Health).Methods(http.MethodGet)
	api.HandleFunc("/api/opportunities", s.handlers.Opportunities).Methods(http.MethodGet)
	api.HandleFunc("/api/signals/tether-bot", s.handlers.TetherBot).Methods(http.MethodGet)
	api.HandleFunc("/api/monitor/spreads", s.handlers.Spreads).Methods(http.MethodGet)

	// The websocket upgrade and /metrics both need to skip the
	// application/json content-type middleware, so they're registered
	// directly on the root router rather than the api subrouter.
	s.router.HandleFunc("/api/ws/opportunities", s.handlers.WebsocketOpportunities).Methods(http.MethodGet)
	s.router.Handle("/metrics", metrics.Handler(promReg)).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), ctxRequestID, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		log.Info().
			Str("request_id", fmt.Sprint(r.Context().Value(ctxRequestID))).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting http server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
