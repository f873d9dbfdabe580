package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/BillboardMonitor/BM-Backend/internal/db"
	"github.com/BillboardMonitor/BM-Backend/internal/utils"
	"golang.org/x/time/rate"
)

type SessionFetcher interface {
	FindSessionByID(id string) (utils.SessionData, error)
}

func SessionMiddleware(fetcher SessionFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("session_id")
			if err != nil {
				http.Error(w, "Couldn't find cookie", http.StatusUnauthorized)
				return
			}

			session, err := fetcher.FindSessionByID(cookie.Value)
			if err != nil {
				http.Error(w, "Couldn't find session", http.StatusUnauthorized)
				return
			}

			if session.ExpiresAt.Before(time.Now()) {
				http.Error(w, "Session expired", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), utils.ContextUserIDKey, session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var allowed = map[string]struct{}{
	"http://localhost:5173":               {},
	"http://localhost:5174":               {},
	"https://billboardmonitor.github.io":  {},
	"https://app.billboardmonitor.in":     {},
	"https://officer.billboardmonitor.in": {},
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Echo the origin back only if it's on our allow-list
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin") // important for caches
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods",
				"GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, Authorization")
		}

		w.Header().Set("Access-Control-Expose-Headers", "Retry-After, Cache-Control")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type User struct {
	UserID string `gorm:"primaryKey"`
	Role   string
}

func (User) TableName() string { return "app_auth.users" }

// OfficerMiddleware restricts a route to enforcement officers (and admins).
// It must run after SessionMiddleware.
func OfficerMiddleware(fetcher SessionFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
				return
			}

			var user User
			if err := db.DB.First(&user, "user_id = ?", userID).Error; err != nil {
				http.Error(w, "Unauthorized: user not found", http.StatusUnauthorized)
				return
			}

			if user.Role != "officer" && user.Role != "admin" {
				http.Error(w, "Forbidden: officer access required", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), utils.ContextUserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Submission rate limit: a citizen may burst a handful of reports, then one
// every few seconds. Keeps a runaway client from flooding the review queue.
const (
	submitInterval = 5 * time.Second
	submitBurst    = 5
)

type limiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func (lr *limiterRegistry) get(userID string) *rate.Limiter {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	l, ok := lr.limiters[userID]
	if !ok {
		l = rate.NewLimiter(rate.Every(submitInterval), submitBurst)
		lr.limiters[userID] = l
	}
	return l
}

// RateLimitMiddleware applies the per-user submission limit. Must run after
// SessionMiddleware so the user identity is in context.
func RateLimitMiddleware() func(http.Handler) http.Handler {
	registry := &limiterRegistry{limiters: make(map[string]*rate.Limiter)}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
				return
			}

			if !registry.get(userID).Allow() {
				w.Header().Set("Retry-After", "5")
				http.Error(w, "Too many reports, slow down", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
