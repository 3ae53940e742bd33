package utils

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const (
	ContextUserIDKey  contextKey = "userID"
	ContextSessionKey contextKey = "loginSession"
)

// SessionData is the authenticated-session snapshot the auth guard attaches
// to the request context. Handlers hold ids and fetch fresh entity copies.
type SessionData struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	ValidityEndDate time.Time
}

// WithAuth returns a context carrying the authenticated user id and session.
func WithAuth(ctx context.Context, userID uuid.UUID, session SessionData) context.Context {
	ctx = context.WithValue(ctx, ContextUserIDKey, userID)
	return context.WithValue(ctx, ContextSessionKey, session)
}

// GetUserIDFromContext returns the authenticated user's id, if any.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ContextUserIDKey).(uuid.UUID)
	return id, ok
}

// GetSessionFromContext returns the authenticated session, if any.
func GetSessionFromContext(ctx context.Context) (SessionData, bool) {
	s, ok := ctx.Value(ContextSessionKey).(SessionData)
	return s, ok
}
