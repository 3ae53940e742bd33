package auth

import (
	"context"

	"github.com/MailPilot/MP-Backend/internal/db"
	"github.com/MailPilot/MP-Backend/internal/repository"
	"github.com/MailPilot/MP-Backend/internal/utils"
	"github.com/google/uuid"
)

// SessionInfo implements the auth guard's session lookups without exposing
// the full service to the middleware package.
type SessionInfo struct {
	svc *Service
}

func NewSessionInfo(svc *Service) SessionInfo {
	return SessionInfo{svc: svc}
}

// FindActiveSession looks up the session referenced by a token, requiring
// the ON status bit and the owning user to match.
func (si SessionInfo) FindActiveSession(ctx context.Context, sessionID, userID uuid.UUID) (utils.SessionData, error) {
	session, err := si.svc.sessions.FindOne(ctx, repository.Filter{
		"id":      sessionID,
		"user_id": userID,
		"status":  db.BitOn,
	})
	if err != nil {
		return utils.SessionData{}, err
	}

	return utils.SessionData{
		ID:              session.ID,
		UserID:          session.UserID,
		ValidityEndDate: session.ValidityEndDate,
	}, nil
}

// ExpireSession transitions a session whose validity has elapsed to EXPIRED.
func (si SessionInfo) ExpireSession(ctx context.Context, sessionID uuid.UUID) error {
	return si.svc.MarkExpired(ctx, sessionID)
}
