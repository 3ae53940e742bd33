package webhooks

import (
	"log"

	"github.com/MailPilot/MP-Backend/internal/db"
)

func Init() {
	if err := db.DB.AutoMigrate(&PushNotification{}); err != nil {
		log.Fatal("Failed to auto-migrate webhook tables: ", err)
	}
}
