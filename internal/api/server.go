package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coinwatch/crypto-tracker/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const maxQueryLimit = 1000

type Server struct {
	pool       *pgxpool.Pool
	users      *repository.UserRepo
	assets     *repository.AssetRepo
	txs        *repository.TransactionRepo
	httpServer *http.Server
	apiKey     string
	logger     *zap.Logger
}

func NewServer(pool *pgxpool.Pool, port int, apiKey, corsOrigin string, logger *zap.Logger) *Server {
	s := &Server{
		pool:   pool,
		users:  repository.NewUserRepo(pool),
		assets: repository.NewAssetRepo(pool),
		txs:    repository.NewTransactionRepo(pool),
		apiKey: apiKey,
		logger: logger,
	}

	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/users", s.handleListUsers)
		r.Get("/users/{id}/transactions", s.handleUserTransactions)

		r.Get("/assets", s.handleListAssets)
		r.Get("/assets/{symbol}/price", s.handleAssetPrice)
		r.Get("/assets/{symbol}/transactions", s.handleAssetTransactions)

		r.Get("/transactions", s.handleTransactions)
		r.Get("/transactions/stats", s.handleTransactionStats)
	})

	// CORS sits outermost so browser preflights (sent without Authorization)
	// short-circuit before the auth check.
	handler := corsMiddleware(s.authMiddleware(r), corsOrigin)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info("REST API server starting",
		zap.String("addr", s.httpServer.Addr),
		zap.Bool("auth", s.apiKey != ""),
	)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- query helpers ---

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// parseRangeFilter reads from/to/limit. Bounds accept RFC3339 or YYYY-MM-DD.
func parseRangeFilter(r *http.Request) (repository.RangeFilter, error) {
	f := repository.RangeFilter{Limit: parseLimit(r, 100)}

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := parseTimeParam(v)
		if err != nil {
			return f, fmt.Errorf("invalid 'from': %w", err)
		}
		f.From = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := parseTimeParam(v)
		if err != nil {
			return f, fmt.Errorf("invalid 'to': %w", err)
		}
		f.To = &t
	}
	return f, nil
}

func parseTimeParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("expected RFC3339 or YYYY-MM-DD, got %q", v)
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
