package auth

import (
	"log"

	"github.com/MailPilot/MP-Backend/internal/db"
)

func Init() {
	if err := db.DB.AutoMigrate(&User{}, &UserPassword{}, &LoginSession{}, &SequenceCounter{}); err != nil {
		log.Fatal("Failed to auto-migrate auth tables: ", err)
	}
}
