package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MailPilot/MP-Backend/internal/apperror"
	"github.com/MailPilot/MP-Backend/internal/auth"
	"github.com/MailPilot/MP-Backend/internal/httpx"
	"github.com/MailPilot/MP-Backend/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionFetcher resolves and expires the login session a token refers to.
type SessionFetcher interface {
	FindActiveSession(ctx context.Context, sessionID, userID uuid.UUID) (utils.SessionData, error)
	ExpireSession(ctx context.Context, sessionID uuid.UUID) error
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	payload := r.Header.Get("Authorization")
	parts := strings.SplitN(payload, " ", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}

// AuthGuard verifies the bearer token, loads the referenced session and
// attaches the user and session ids to the request context. An expired
// token or session yields the session-expired code; a bad signature the
// invalid-token code; a missing or OFF session the invalid-session-user
// code.
func AuthGuard(tokens *auth.TokenManager, fetcher SessionFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, sessionID, err := tokens.Parse(bearerToken(r))
			if errors.Is(err, auth.ErrTokenExpired) {
				httpx.SendError(w, http.StatusUnauthorized, apperror.SessionExpired, err)
				return
			}
			if err != nil {
				httpx.SendError(w, http.StatusUnauthorized, apperror.InvalidToken, err)
				return
			}

			session, err := fetcher.FindActiveSession(r.Context(), sessionID, userID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				httpx.SendError(w, http.StatusUnauthorized, apperror.InvalidSessionUser, err)
				return
			}
			if err != nil {
				httpx.SendError(w, http.StatusUnauthorized, apperror.UnableToCompleteRequest, err)
				return
			}

			if !session.ValidityEndDate.After(time.Now()) {
				if err := fetcher.ExpireSession(r.Context(), session.ID); err != nil {
					httpx.SendError(w, http.StatusUnauthorized, apperror.UnableToCompleteRequest, err)
					return
				}
				httpx.SendError(w, http.StatusUnauthorized, apperror.SessionExpired, nil)
				return
			}

			ctx := utils.WithAuth(r.Context(), session.UserID, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CORSMiddleware echoes the origin back only when it is on the allow-list.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin") // important for caches
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods",
					"GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers",
					"Content-Type, Authorization")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
