package webhooks

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PushNotification records one mailbox change notification delivered by the
// pub/sub subscription.
type PushNotification struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EmailAddress string    `gorm:"index" json:"email_address"`
	HistoryID    uint64    `json:"history_id"`
	MessageID    string    `json:"message_id"`
	Payload      string    `json:"payload"`
	Status       string    `gorm:"default:'active'" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (n PushNotification) PrimaryKey() uuid.UUID { return n.ID }

func (n *PushNotification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
