package verify

import (
	"log"

	"github.com/nanumsa/server/internal/db"
)

func Init(mailCfg MailConfig, notifyURL string) {
	if err := db.EnsureSchema(db.DB, "nanumsa"); err != nil {
		log.Fatal("Failed to ensure schema nanumsa: ", err)
	}

	if err := db.DB.AutoMigrate(&EmailVerify{}); err != nil {
		log.Fatal("Failed to auto-migrate verify tables: ", err)
	}

	DefaultStore = NewStore(db.DB)

	if mailCfg.Host != "" {
		DefaultSender = NewSMTPSender(mailCfg)
	} else {
		log.Println("[verify] SMTP not configured, mail delivery disabled")
	}

	if notifyURL != "" {
		DefaultNotifier = NewNotifier(notifyURL)
	}
}
