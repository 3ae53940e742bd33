package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MailPilot/MP-Backend/internal/db"
	"github.com/MailPilot/MP-Backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// Service errors mapped to catalog codes by the handlers.
var (
	ErrInvalidLogin   = errors.New("invalid email or password")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrDuplicatePhone = errors.New("phone already exists")
)

const uniqueViolation = "23505"

var titleCaser = cases.Title(language.English)

// SessionMeta is the client fingerprint recorded on a new login session.
type SessionMeta struct {
	OS      string
	Version string
	Device  string
	IP      string
}

// SignupPayload is the validated signup input. Password arrives in plain
// text and is hashed here.
type SignupPayload struct {
	FirstName  string
	LastName   string
	MiddleName string
	Email      string
	Phone      string
	Gender     string
	Password   string
}

// Service owns the login-session lifecycle: signup, credential checks,
// single-active-session enforcement, password rotation and token issuance.
type Service struct {
	db        *gorm.DB
	users     *repository.Repository[User]
	passwords *repository.Repository[UserPassword]
	sessions  *repository.Repository[LoginSession]
	tokens    *TokenManager
	validity  time.Duration
}

func NewService(gdb *gorm.DB, tokens *TokenManager, sessionValidity time.Duration) *Service {
	return &Service{
		db:        gdb,
		users:     repository.New[User](gdb),
		passwords: repository.New[UserPassword](gdb),
		sessions:  repository.New[LoginSession](gdb),
		tokens:    tokens,
		validity:  sessionValidity,
	}
}

// Users exposes the user repository for read paths (me, admin listings).
func (s *Service) Users() *repository.Repository[User] { return s.users }

// EmailForUser resolves a user's email address.
func (s *Service) EmailForUser(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.users.FindByID(ctx, userID, "email")
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

// Signup creates the user, their active password and a first login session
// in one transaction, and returns the user plus a signed token.
func (s *Service) Signup(ctx context.Context, payload SignupPayload, meta SessionMeta) (*User, string, error) {
	user := &User{
		FirstName:  titleCaser.String(payload.FirstName),
		LastName:   titleCaser.String(payload.LastName),
		MiddleName: payload.MiddleName,
		Email:      strings.ToLower(payload.Email),
		Phone:      payload.Phone,
		Gender:     strings.ToLower(payload.Gender),
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	var token string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		serial, err := NextNumber(ctx, tx, "users")
		if err != nil {
			return err
		}
		user.SerialNumber = serial

		if err := s.users.WithTx(tx).Save(ctx, user); err != nil {
			return classifyDuplicate(err)
		}

		password := &UserPassword{
			Password: string(hash),
			Email:    user.Email,
			UserID:   user.ID,
		}
		if err := s.passwords.WithTx(tx).Save(ctx, password); err != nil {
			return err
		}

		_, token, err = s.startSession(ctx, tx, user.ID, meta)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies the credential against the single active password hash for
// the email, closes any live session for the user and opens a new one.
func (s *Service) Login(ctx context.Context, email, password string, meta SessionMeta) (*User, string, error) {
	active, err := s.passwords.FindOneAndPopulate(ctx,
		repository.Filter{"email": strings.ToLower(email), "status": db.PasswordActive},
		[]string{"User"},
	)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrInvalidLogin
	}
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(active.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidLogin
	}

	var token string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.closeActiveSessions(ctx, tx, active.UserID); err != nil {
			return err
		}
		_, token, err = s.startSession(ctx, tx, active.UserID, meta)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return active.User, token, nil
}

// Logout closes the session: logged_out when its validity window is still
// open, expired otherwise. Either way the status bit flips to OFF.
func (s *Service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}

	update := map[string]any{"status": db.BitOff}
	if session.ValidityEndDate.After(time.Now()) {
		update["logged_out"] = true
		update["validity_end_date"] = time.Now()
	} else {
		update["expired"] = true
	}
	_, err = s.sessions.UpdateByID(ctx, sessionID, update)
	return err
}

// MarkExpired transitions a session whose validity window has elapsed to its
// terminal EXPIRED state.
func (s *Service) MarkExpired(ctx context.Context, sessionID uuid.UUID) error {
	_, err := s.sessions.UpdateByID(ctx, sessionID, map[string]any{
		"status":  db.BitOff,
		"expired": true,
	})
	return err
}

// UpdatePassword rotates the user's password: a new active hash is written,
// the previous one deactivated, the current session closed and a fresh
// session opened — all in one transaction, so a failure leaves no partial
// state.
func (s *Service) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string, meta SessionMeta) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}

	previous, err := s.passwords.FindOne(ctx,
		repository.Filter{"email": user.Email, "status": db.PasswordActive})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidLogin
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(previous.Password), []byte(currentPassword)); err != nil {
		return "", ErrInvalidLogin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	var token string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next := &UserPassword{
			Password: string(hash),
			Email:    user.Email,
			UserID:   user.ID,
		}
		if err := s.passwords.WithTx(tx).Save(ctx, next); err != nil {
			return err
		}

		if _, err := s.passwords.WithTx(tx).UpdateByID(ctx, previous.ID,
			map[string]any{"status": db.PasswordDeactivated}); err != nil {
			return err
		}

		if err := s.closeActiveSessions(ctx, tx, user.ID); err != nil {
			return err
		}

		_, token, err = s.startSession(ctx, tx, user.ID, meta)
		return err
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// startSession inserts a new ON session and signs a token referencing it.
func (s *Service) startSession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, meta SessionMeta) (*LoginSession, string, error) {
	session := &LoginSession{
		UserID:          userID,
		Status:          db.BitOn,
		ValidityEndDate: time.Now().Add(s.validity),
		OS:              meta.OS,
		Version:         meta.Version,
		Device:          meta.Device,
		IP:              meta.IP,
	}
	if err := s.sessions.WithTx(tx).Save(ctx, session); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Create(userID, session.ID)
	if err != nil {
		return nil, "", err
	}
	return session, token, nil
}

// closeActiveSessions flips every ON session of the user to its terminal
// state in a single conditional UPDATE: logged_out when the validity window
// is still open, expired otherwise. Being one statement, concurrent logins
// cannot leave two ON sessions behind.
func (s *Service) closeActiveSessions(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return tx.WithContext(ctx).Model(&LoginSession{}).
		Where("user_id = ? AND status = ?", userID, db.BitOn).
		Updates(map[string]any{
			"status":            db.BitOff,
			"logged_out":        gorm.Expr("validity_end_date > now()"),
			"expired":           gorm.Expr("validity_end_date <= now()"),
			"validity_end_date": gorm.Expr("least(validity_end_date, now())"),
		}).Error
}

// classifyDuplicate maps a postgres unique violation to the duplicate-email
// or duplicate-phone sentinel by inspecting the violated constraint.
func classifyDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrDuplicateEmail
		case strings.Contains(pgErr.ConstraintName, "phone"):
			return ErrDuplicatePhone
		}
	}
	return err
}
