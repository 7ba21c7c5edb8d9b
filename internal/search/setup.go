package search

import (
	"log"

	"github.com/nanumsa/server/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "nanumsa"); err != nil {
		log.Fatal("Failed to ensure schema nanumsa: ", err)
	}

	if err := db.DB.AutoMigrate(&RecentSearchKeyword{}); err != nil {
		log.Fatal("Failed to auto-migrate search tables: ", err)
	}

	DefaultStore = NewStore(db.DB)
}
