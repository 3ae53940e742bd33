package gmail

import (
	"log"

	"github.com/MailPilot/MP-Backend/internal/db"
)

func Init() {
	if err := db.DB.AutoMigrate(&GmailToken{}); err != nil {
		log.Fatal("Failed to auto-migrate gmail tables: ", err)
	}
}
