package main

import (
	"os"

	"timetable/pkg/envconf"
)

// appConfig is read once from the environment (after .env is loaded).
type appConfig struct {
	DBDriver      string
	DBDSN         string
	AutoMigrate   bool
	JWTSecret     []byte
	AuthRequired  bool
	AdminPassword string
	OutputRoot    string
	UploadBase    string
	ListenAddr    string
	MaxImageBytes int64
	Language      string
}

func loadConfig() appConfig {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	return appConfig{
		DBDriver:      envconf.String("DB_DRIVER", "postgres"),
		DBDSN:         os.Getenv("DB_DSN"),
		AutoMigrate:   envconf.Bool("DB_AUTO_MIGRATE", true),
		JWTSecret:     []byte(secret),
		AuthRequired:  envconf.Bool("AUTH_REQUIRED", false),
		AdminPassword: envconf.String("ADMIN_PASSWORD", "admin123"),
		OutputRoot:    envconf.String("OUTPUT_ROOT", "output"),
		UploadBase:    envconf.String("UPLOAD_BASE", "uploads"),
		ListenAddr:    envconf.String("LISTEN_ADDR", ":5000"),
		MaxImageBytes: envconf.Int("MAX_IMAGE_BYTES", 10<<20),
		Language:      envconf.String("OCR_LANG", "eng"),
	}
}
