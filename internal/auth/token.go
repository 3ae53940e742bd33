package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenExpired distinguishes an expired token from an invalid one so the
// guard can return the session-expired code instead of invalid-token.
var ErrTokenExpired = errors.New("token expired")

// Claims carries the user and login-session ids inside the signed token.
type Claims struct {
	jwt.RegisteredClaims
	UserID         string `json:"user"`
	LoginSessionID string `json:"login_session"`
}

// TokenManager signs and verifies auth tokens with symmetric HMAC. The token
// expiry is independent of the session validity window.
type TokenManager struct {
	secret string
	expiry time.Duration
}

func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{secret: secret, expiry: expiry}
}

// Create signs a token embedding the user and session ids.
func (m *TokenManager) Create(userID, sessionID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
		UserID:         userID.String(),
		LoginSessionID: sessionID.String(),
	})

	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry and returns the embedded ids.
// Returns ErrTokenExpired for a structurally valid but expired token.
func (m *TokenManager) Parse(tokenString string) (userID, sessionID uuid.UUID, err error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(m.secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, uuid.Nil, ErrTokenExpired
		}
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return uuid.Nil, uuid.Nil, errors.New("token is invalid")
	}

	userID, err = uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("bad user id in token: %w", err)
	}
	sessionID, err = uuid.Parse(claims.LoginSessionID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("bad session id in token: %w", err)
	}
	return userID, sessionID, nil
}
