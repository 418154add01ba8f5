package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"timetable/pkg/envconf"
	"timetable/pkg/ocr"
	"timetable/pkg/runner"
	"timetable/pkg/timetable"
)

func main() {
	// Auto-load ./.env if present before reading vars
	envconf.LoadDotEnv("")
	cfg := loadConfig()

	// `./timetable migrate` runs AutoMigrate and seeding then exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		cfg.AutoMigrate = true
		if _, err := initDB(cfg); err != nil {
			log.Fatal(err)
		}
		fmt.Println("migration and seeding completed")
		return
	}

	st, err := initDB(cfg)
	if err != nil {
		log.Fatal(err)
	}
	layout, vocab, err := envconf.Tables()
	if err != nil {
		log.Fatal(err)
	}
	engine, err := ocr.NewEngine(cfg.Language)
	if err != nil {
		log.Fatal("failed to start tesseract:", err)
	}
	defer engine.Close()

	locker, closeLocker, err := envconf.Locker(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	defer closeLocker()

	ws := timetable.Workspace{Root: cfg.OutputRoot}
	if err := ws.Prepare(); err != nil {
		log.Fatal(err)
	}
	s := &server{
		cfg:   cfg,
		store: st,
		runner: &runner.Runner{
			Pipeline: timetable.New(layout, vocab, engine, ws),
			Store:    st,
			Locker:   locker,
		},
	}

	r := gin.Default()
	setupRoutes(r, s)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}
