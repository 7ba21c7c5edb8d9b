package share

import (
	"log"

	"github.com/nanumsa/server/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "nanumsa"); err != nil {
		log.Fatal("Failed to ensure schema nanumsa: ", err)
	}

	if err := db.DB.AutoMigrate(&ShareInfo{}, &StarredShare{}); err != nil {
		log.Fatal("Failed to auto-migrate share tables: ", err)
	}

	DefaultStore = NewStore(db.DB)
}
