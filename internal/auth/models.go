package auth

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/MailPilot/MP-Backend/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName        string    `gorm:"not null;index" json:"first_name"`
	LastName         string    `gorm:"not null;index" json:"last_name"`
	MiddleName       string    `json:"middle_name,omitempty"`
	Email            string    `gorm:"not null;uniqueIndex" json:"email"`
	Phone            string    `gorm:"not null;uniqueIndex" json:"phone"`
	PhoneCountryCode string    `gorm:"default:'234'" json:"phone_country_code"`
	Gender           string    `gorm:"not null" json:"gender"`
	SerialNumber     int64     `gorm:"index" json:"serial_number"`
	Status           string    `gorm:"default:'active'" json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (u User) PrimaryKey() uuid.UUID { return u.ID }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(u.Email)
	return nil
}

// FullName joins the name parts, skipping an absent middle name.
func (u User) FullName() string {
	if u.MiddleName != "" {
		return u.FirstName + " " + u.MiddleName + " " + u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// PhoneWithCountryCode renders the phone in international form, dropping a
// leading zero from the local part.
func (u User) PhoneWithCountryCode() string {
	if u.Phone == "" || u.PhoneCountryCode == "" {
		return ""
	}
	return "+" + u.PhoneCountryCode + strings.TrimLeft(u.Phone, "0")
}

// MarshalJSON adds the derived full_name and phone_with_country_code fields
// to the serialized user.
func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		FullName             string `json:"full_name"`
		PhoneWithCountryCode string `json:"phone_with_country_code,omitempty"`
	}{
		alias:                alias(u),
		FullName:             u.FullName(),
		PhoneWithCountryCode: u.PhoneWithCountryCode(),
	})
}

// UserPassword is one password hash for a user. Rotation inserts a new
// active row and deactivates the previous one; rows are never deleted.
type UserPassword struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Password  string    `gorm:"not null" json:"-"`
	Email     string    `gorm:"not null;index" json:"email"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status    string    `gorm:"default:'active'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p UserPassword) PrimaryKey() uuid.UUID { return p.ID }

func (p *UserPassword) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = db.PasswordActive
	}
	return nil
}

// LoginSession is one authenticated session. Status is a bit: ON while the
// session is live, OFF once logged out or expired (terminal either way).
type LoginSession struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User            *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status          int       `gorm:"default:0" json:"status"`
	ValidityEndDate time.Time `json:"validity_end_date"`
	LoggedOut       bool      `gorm:"default:false" json:"logged_out"`
	Expired         bool      `gorm:"default:false" json:"expired"`
	OS              string    `json:"os,omitempty"`
	Version         string    `json:"version,omitempty"`
	Device          string    `json:"device,omitempty"`
	IP              string    `json:"ip,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (s LoginSession) PrimaryKey() uuid.UUID { return s.ID }

func (s *LoginSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.ValidityEndDate.IsZero() {
		s.ValidityEndDate = time.Now().Add(24 * time.Hour)
	}
	return nil
}

// SequenceCounter is a named monotonic counter, optionally linked to its
// neighbours. NextNumber increments it atomically, creating it on first use.
type SequenceCounter struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string     `gorm:"not null;uniqueIndex" json:"name"`
	CurrentCount      int64      `gorm:"not null" json:"current_count"`
	PreviousCounterID *uuid.UUID `gorm:"type:uuid" json:"previous_counter,omitempty"`
	NextCounterID     *uuid.UUID `gorm:"type:uuid" json:"next_counter,omitempty"`
	Status            string     `gorm:"default:'active'" json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (c SequenceCounter) PrimaryKey() uuid.UUID { return c.ID }

func (c *SequenceCounter) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
