package gmail

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GmailToken stores one OAuth refresh token and its granted scopes for a
// user. Reauthorization deactivates older rows instead of deleting them; at
// most one row per user is active.
type GmailToken struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Email     string         `gorm:"not null" json:"email"`
	Token     string         `gorm:"not null" json:"-"`
	Scope     pq.StringArray `gorm:"type:text[]" json:"scope"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	Status    string         `gorm:"default:'active'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (t GmailToken) PrimaryKey() uuid.UUID { return t.ID }

func (t *GmailToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
