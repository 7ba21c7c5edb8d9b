package auth

import (
	"log"

	"github.com/nanumsa/server/internal/db"
)

func Init(socialCfg SocialConfig) {
	if err := db.EnsureSchema(db.DB, "nanumsa"); err != nil {
		log.Fatal("Failed to ensure schema nanumsa: ", err)
	}

	if err := db.DB.AutoMigrate(&User{}, &LoginToken{}, &ResetPassword{}); err != nil {
		log.Fatal("Failed to auto-migrate auth tables: ", err)
	}

	// Tags are handed out by a sequence so they are never reused,
	// even after an account is soft-deleted.
	if err := db.DB.Exec(`CREATE SEQUENCE IF NOT EXISTS nanumsa.user_tag_seq START 1`).Error; err != nil {
		log.Fatal("Failed to create user tag sequence: ", err)
	}

	DefaultStore = NewStore(db.DB)
	DefaultUnlinker = NewUnlinker(socialCfg)
}
