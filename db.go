package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"timetable/pkg/store"
)

// initDB opens the configured database, migrates when DB_AUTO_MIGRATE allows
// it and seeds the admin account.
func initDB(cfg appConfig) (*store.Store, error) {
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}
	db, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s database: %w", cfg.DBDriver, err)
	}
	// permission errors are logged and ignored
	if cfg.AutoMigrate {
		if err := store.Migrate(db); err != nil {
			log.Printf("migration warning: %v", err)
		}
	}
	st := store.New(db)
	seedDB(st, cfg)
	return st, nil
}

func seedDB(st *store.Store, cfg appConfig) {
	created, err := st.EnsureAdmin(context.Background(), "admin", cfg.AdminPassword)
	if err != nil {
		log.Printf("failed to seed admin user: %v", err)
	} else if created {
		log.Println("Seeded admin user: username=admin")
	}
	ensureUploadBase(cfg.UploadBase)
}

// ensureUploadBase creates the base uploads directory.
func ensureUploadBase(base string) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		log.Printf("failed to create upload base dir %s: %v", base, err)
	}
}
