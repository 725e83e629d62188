// Package server assembles the HTTP surface: routes, handlers and the
// middleware chain.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/josh-kwaku/khata/internal/handler"
	"github.com/josh-kwaku/khata/internal/middleware"
)

type Handlers struct {
	Health       *handler.HealthHandler
	Friends      *handler.FriendHandler
	Transactions *handler.TransactionHandler
	Analytics    *handler.AnalyticsHandler
	Docs         *handler.DocsHandler
}

type Options struct {
	Logger         *slog.Logger
	Idempotency    middleware.IdempotencyStore
	IdempotencyTTL time.Duration
}

func NewRouter(h Handlers, opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health.Liveness)
	mux.HandleFunc("GET /health/ready", h.Health.Readiness)

	if h.Docs != nil {
		mux.HandleFunc("GET /docs", h.Docs.UI)
		mux.HandleFunc("GET /docs/openapi.yaml", h.Docs.Spec)
	}

	mux.HandleFunc("POST /api/v1/friends", h.Friends.Create)
	mux.HandleFunc("GET /api/v1/friends", h.Friends.List)
	mux.HandleFunc("DELETE /api/v1/friends/{id}", h.Friends.Delete)
	mux.HandleFunc("GET /api/v1/friends/{id}/summary", h.Friends.Summary)
	mux.HandleFunc("GET /api/v1/summaries", h.Friends.Summaries)

	mux.HandleFunc("GET /api/v1/friends/{id}/transactions", h.Transactions.ListForFriend)
	mux.HandleFunc("POST /api/v1/friends/{id}/transactions", h.Transactions.Create)
	mux.HandleFunc("PUT /api/v1/transactions/{id}", h.Transactions.Update)
	mux.HandleFunc("PATCH /api/v1/transactions/{id}/settlement", h.Transactions.Settle)
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", h.Transactions.Delete)

	mux.HandleFunc("GET /api/v1/analytics/overview", h.Analytics.Overview)
	mux.HandleFunc("GET /api/v1/analytics/distribution", h.Analytics.Distribution)
	mux.HandleFunc("GET /api/v1/analytics/trend", h.Analytics.Trend)
	mux.HandleFunc("GET /api/v1/analytics/weekly", h.Analytics.Weekly)
	mux.HandleFunc("GET /api/v1/analytics/stream", h.Analytics.Stream)

	var root http.Handler = mux
	if opts.Idempotency != nil {
		root = middleware.Idempotency(opts.Idempotency, opts.IdempotencyTTL)(root)
	}
	root = middleware.Recovery(root)
	root = middleware.Logging(opts.Logger)(root)
	return middleware.Tracing(root)
}
