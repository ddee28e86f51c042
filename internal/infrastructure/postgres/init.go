package postgres

import (
	"log"

	"github.com/LavaJover/shvark-monetico-service/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MustInitDB opens the notification database. The schema is owned by the
// SQL migrations, not by AutoMigrate.
func MustInitDB(cfg *config.IPNConfig) *gorm.DB {
	dsn := cfg.IPNDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	return db
}
