package server

import (
	"context"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/studykit/studykit/internal/auth"
	"github.com/studykit/studykit/internal/config"
	"github.com/studykit/studykit/internal/dashboard"
	"github.com/studykit/studykit/internal/generate"
	"github.com/studykit/studykit/internal/result"
	"github.com/studykit/studykit/internal/summarize"
)

// WSUpgrader handles WebSocket upgrades.
var WSUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handlers bundles the per-domain HTTP handlers wired into the mux.
// AttemptWS is the /ws/attempts upgrade endpoint; it is injected as a
// plain HandlerFunc so this package never depends on the session
// engine.
type Handlers struct {
	Auth      *auth.HTTPHandlers
	Generate  *generate.HTTPHandler
	Summarize *summarize.HTTPHandler
	Result    *result.HTTPHandler
	Dashboard *dashboard.HTTPHandler
	Tests     TestHandlers
	AttemptWS http.HandlerFunc
}

// TestHandlers are the test lifecycle endpoints from the session
// package, passed as funcs for the same reason as AttemptWS.
type TestHandlers struct {
	Create  http.HandlerFunc
	GetSpec http.HandlerFunc
	Submit  http.HandlerFunc
}

// NewHTTPServer wires all routes for the API service.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, rdb *redis.Client, authSvc *auth.Service, h Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, rdb); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	// Auth endpoints
	if h.Auth != nil {
		mux.HandleFunc("/v1/auth/register", h.Auth.Register)
		mux.HandleFunc("/v1/auth/login", h.Auth.Login)
		mux.HandleFunc("/v1/auth/refresh", h.Auth.Refresh)
		mux.Handle("/v1/auth/me", auth.RequireAuth(http.HandlerFunc(h.Auth.Me)))
	}

	// Generation and summarization
	if h.Generate != nil {
		mux.HandleFunc("/v1/mcq/generate", h.Generate.HandleGenerate)
		mux.Handle("/v1/mcq/history", auth.RequireAuth(http.HandlerFunc(h.Generate.HandleHistory)))
		mux.Handle("/v1/mcq/sets/", auth.RequireAuth(http.HandlerFunc(h.Generate.HandleSet)))
	}
	if h.Summarize != nil {
		mux.HandleFunc("/v1/summary/generate", h.Summarize.HandleGenerate)
	}

	// Test lifecycle. /v1/tests handles creation (POST) and history
	// (GET); /v1/tests/{id} serves stored results. The more specific
	// submit and specs routes register first.
	if h.Tests.Submit != nil {
		mux.HandleFunc("/v1/tests/submit", h.Tests.Submit)
	}
	if h.Tests.GetSpec != nil {
		mux.HandleFunc("/v1/tests/specs/", h.Tests.GetSpec)
	}
	if h.Tests.Create != nil && h.Result != nil {
		history := auth.RequireAuth(http.HandlerFunc(h.Result.HandleHistory))
		mux.HandleFunc("/v1/tests", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				h.Tests.Create(w, r)
				return
			}
			history.ServeHTTP(w, r)
		})
		mux.HandleFunc("/v1/tests/", h.Result.HandleGet)
	}

	if h.Dashboard != nil {
		mux.Handle("/v1/dashboard", auth.RequireAuth(http.HandlerFunc(h.Dashboard.HandleGet)))
	}

	// WebSocket endpoint
	if h.AttemptWS != nil {
		mux.HandleFunc("/ws/attempts", h.AttemptWS)
	}

	var root http.Handler = mux
	root = auth.Middleware(authSvc, logger)(root)
	root = cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	})(root)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: root,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	return rdb.Ping(ctx).Err()
}
