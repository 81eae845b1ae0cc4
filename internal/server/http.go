package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/codeduel/platform/internal/auth"
	"github.com/codeduel/platform/internal/config"
	"github.com/codeduel/platform/internal/logging"
)

// WSUpgrader handles WebSocket upgrades. Origins are enforced by the CORS
// middleware for browsers; the socket itself authenticates by token.
var WSUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Routes groups the feature handlers mounted on the API mux.
// Nil handlers are left unmounted.
type Routes struct {
	Auth           *auth.HTTPHandlers
	Profile        http.HandlerFunc
	Problems       http.HandlerFunc
	Submit         http.HandlerFunc
	SolvedProblems http.HandlerFunc
	Leaderboard    http.HandlerFunc
	MatchWS        http.HandlerFunc
}

// NewHTTPServer wires base routes (health, metrics) and the feature routes.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, validator auth.TokenValidator, deps []Pinger, routes Routes) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), deps); err != nil {
			reqLogger := logging.FromContext(r.Context())
			reqLogger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	if routes.Auth != nil {
		mux.HandleFunc("/v1/auth/register", routes.Auth.Register)
		mux.HandleFunc("/v1/auth/login", routes.Auth.Login)
		mux.HandleFunc("/v1/auth/refresh", routes.Auth.RefreshToken)
	}

	private := func(h http.HandlerFunc) http.Handler {
		return auth.AuthMiddleware(validator, logger)(auth.RequireAuth(h))
	}
	mount := func(pattern string, h http.HandlerFunc, authenticated bool) {
		if h == nil {
			return
		}
		if authenticated {
			mux.Handle(pattern, private(h))
			return
		}
		mux.HandleFunc(pattern, h)
	}

	mount("/v1/profile/me", routes.Profile, true)
	mount("/v1/submit", routes.Submit, true)
	mount("/v1/solved-problems/me", routes.SolvedProblems, true)
	mount("/v1/problems", routes.Problems, false)
	mount("/v1/leaderboard", routes.Leaderboard, false)

	if routes.MatchWS != nil {
		mux.HandleFunc("/ws/matches", routes.MatchWS)
	} else {
		mux.HandleFunc("/ws/matches", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "WebSocket handler not yet integrated", http.StatusNotImplemented)
		})
	}

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           withCORS(cfg.CORS, withRequestLog(logger, mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func pingDependencies(ctx context.Context, deps []Pinger) error {
	for _, d := range deps {
		if err := d.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// withCORS answers preflight requests and stamps allow headers on responses
// whose Origin is permitted.
func withCORS(cfg config.CORS, next http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			_, ok := allowed[origin]
			if ok || allowAll {
				h := w.Header()
				if allowAll && !cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Origin", "*")
				} else {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
					h.Set("Access-Control-Allow-Methods", methods)
					h.Set("Access-Control-Allow-Headers", headers)
					if cfg.MaxAge > 0 {
						h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
					}
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the hijacker for WebSocket upgrades.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func withRequestLog(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws/matches" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r.WithContext(logging.IntoContext(r.Context(), logger)))
			return
		}
		start := time.Now()
		reqLogger := logger.With().Str("method", r.Method).Str("path", r.URL.Path).Logger()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(logging.IntoContext(r.Context(), reqLogger)))
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
