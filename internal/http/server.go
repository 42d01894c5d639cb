// Package http exposes the REST API: auth, categories, transactions,
// budgets, dashboard, export, and the admin panel.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/http/respond"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Deps bundles what the server needs to serve requests.
type Deps struct {
	Store        storage.Store
	Tokens       *auth.TokenManager
	Budgets      *services.BudgetService
	Transactions *services.TransactionService
	Exports      *services.ExportService
	BcryptCost   int
}

type Server struct {
	http.Server
	deps         Deps
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		deps:        deps,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/v1/auth/register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("POST /api/v1/auth/login", s.withSecurityHeaders(s.handleLogin))

	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return s.withSecurityHeaders(s.requireAuth(h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return s.withSecurityHeaders(s.requireAuth(s.requireAdmin(h)))
	}

	mux.HandleFunc("GET /api/v1/me", authed(s.handleMe))

	mux.HandleFunc("GET /api/v1/categories", authed(s.handleListCategories))
	mux.HandleFunc("POST /api/v1/categories", authed(s.handleCreateCategory))
	mux.HandleFunc("GET /api/v1/categories/{id}", authed(s.handleGetCategory))
	mux.HandleFunc("PUT /api/v1/categories/{id}", authed(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/v1/categories/{id}", authed(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/v1/transactions", authed(s.handleListTransactions))
	mux.HandleFunc("POST /api/v1/transactions", authed(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/v1/transactions/{id}", authed(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/v1/transactions/{id}", authed(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", authed(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/v1/budgets", authed(s.handleListBudgets))
	mux.HandleFunc("POST /api/v1/budgets", authed(s.handleCreateBudget))
	mux.HandleFunc("GET /api/v1/budgets/{id}", authed(s.handleGetBudget))
	mux.HandleFunc("PUT /api/v1/budgets/{id}", authed(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/v1/budgets/{id}", authed(s.handleDeleteBudget))
	mux.HandleFunc("GET /api/v1/budgets/{id}/usage", authed(s.handleBudgetUsage))

	mux.HandleFunc("GET /api/v1/dashboard", authed(s.handleDashboard))
	mux.HandleFunc("GET /api/v1/alerts", authed(s.handleListAlerts))
	mux.HandleFunc("GET /api/v1/export", authed(s.handleExport))

	mux.HandleFunc("GET /api/v1/admin/users", admin(s.handleAdminListUsers))
	mux.HandleFunc("POST /api/v1/admin/users", admin(s.handleAdminCreateUser))
	mux.HandleFunc("GET /api/v1/admin/users/{id}", admin(s.handleAdminGetUser))
	mux.HandleFunc("PUT /api/v1/admin/users/{id}", admin(s.handleAdminUpdateUser))
	mux.HandleFunc("DELETE /api/v1/admin/users/{id}", admin(s.handleAdminDeleteUser))

	mux.HandleFunc("GET /api/v1/admin/users/{id}/categories", admin(s.handleAdminListUserCategories))
	mux.HandleFunc("POST /api/v1/admin/users/{id}/categories", admin(s.handleAdminCreateUserCategory))
	mux.HandleFunc("GET /api/v1/admin/users/{id}/categories/{itemID}", admin(s.handleAdminGetUserCategory))
	mux.HandleFunc("PUT /api/v1/admin/users/{id}/categories/{itemID}", admin(s.handleAdminUpdateUserCategory))
	mux.HandleFunc("DELETE /api/v1/admin/users/{id}/categories/{itemID}", admin(s.handleAdminDeleteUserCategory))

	mux.HandleFunc("GET /api/v1/admin/users/{id}/transactions", admin(s.handleAdminListUserTransactions))
	mux.HandleFunc("POST /api/v1/admin/users/{id}/transactions", admin(s.handleAdminCreateUserTransaction))
	mux.HandleFunc("GET /api/v1/admin/users/{id}/transactions/{itemID}", admin(s.handleAdminGetUserTransaction))
	mux.HandleFunc("PUT /api/v1/admin/users/{id}/transactions/{itemID}", admin(s.handleAdminUpdateUserTransaction))
	mux.HandleFunc("DELETE /api/v1/admin/users/{id}/transactions/{itemID}", admin(s.handleAdminDeleteUserTransaction))

	mux.HandleFunc("GET /api/v1/admin/users/{id}/budgets", admin(s.handleAdminListUserBudgets))
	mux.HandleFunc("POST /api/v1/admin/users/{id}/budgets", admin(s.handleAdminCreateUserBudget))
	mux.HandleFunc("GET /api/v1/admin/users/{id}/budgets/{itemID}", admin(s.handleAdminGetUserBudget))
	mux.HandleFunc("PUT /api/v1/admin/users/{id}/budgets/{itemID}", admin(s.handleAdminUpdateUserBudget))
	mux.HandleFunc("DELETE /api/v1/admin/users/{id}/budgets/{itemID}", admin(s.handleAdminDeleteUserBudget))

	mux.HandleFunc("GET /api/v1/admin/roles", admin(s.handleAdminListRoles))
	mux.HandleFunc("POST /api/v1/admin/roles", admin(s.handleAdminCreateRole))
	mux.HandleFunc("PUT /api/v1/admin/roles/{id}", admin(s.handleAdminUpdateRole))
	mux.HandleFunc("DELETE /api/v1/admin/roles/{id}", admin(s.handleAdminDeleteRole))

	mux.HandleFunc("GET /api/v1/admin/accounts", admin(s.handleAdminListAccounts))
	mux.HandleFunc("POST /api/v1/admin/accounts", admin(s.handleAdminCreateAccount))
	mux.HandleFunc("GET /api/v1/admin/accounts/{id}", admin(s.handleAdminGetAccount))
	mux.HandleFunc("PUT /api/v1/admin/accounts/{id}", admin(s.handleAdminUpdateAccount))
	mux.HandleFunc("DELETE /api/v1/admin/accounts/{id}", admin(s.handleAdminDeleteAccount))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		// Rate limit mutating requests only.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

// requireAuth verifies the bearer token, checks the account is still
// active, and stores the principal in the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respond.Error(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		principal, err := s.deps.Tokens.Verify(token)
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		user, err := s.deps.Store.GetUser(r.Context(), principal.UserID)
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "unknown user")
			return
		}
		if !user.Active {
			respond.Error(w, http.StatusForbidden, "account is deactivated")
			return
		}

		next(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	}
}

// requireAdmin gates the admin surface.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFrom(r.Context())
		if !ok || !principal.IsAdmin() {
			respond.Error(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	}
}

// writeDomainError maps domain and storage errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, "already exists")
	case errors.Is(err, storage.ErrInUse):
		respond.Error(w, http.StatusConflict, "category has transactions and cannot be deleted")
	case errors.Is(err, storage.ErrDuplicateActiveBudget):
		respond.Error(w, http.StatusConflict, "an active budget already exists for this category")
	case errors.Is(err, core.ErrIncomeCategoryBudget):
		respond.Error(w, http.StatusBadRequest, "budgets can only be set on expense categories")
	case isValidationError(err):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrEmptyName,
		core.ErrEmptyUsername,
		core.ErrEmptyDescription,
		core.ErrInvalidDate,
		core.ErrInvalidCategoryType,
		core.ErrInvalidPeriod,
		core.ErrInvalidColor,
		core.ErrEndBeforeStart,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
