package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"timetable/models"
	"timetable/pkg/envconf"
	"timetable/pkg/store"
)

func main() {
	admin := flag.Bool("admin", false, "create the user with the administrator role")
	flag.Parse()
	if flag.NArg() < 2 {
		fmt.Println("usage: go run ./cmd/create_user [-admin] <username> <password>")
		os.Exit(2)
	}
	username := flag.Arg(0)
	password := flag.Arg(1)
	envconf.LoadDotEnv("")

	st := envconf.MustStore()
	if err := store.Migrate(st.DB()); err != nil {
		log.Printf("migration warning: %v", err)
	}
	role := models.RoleUser
	if *admin {
		role = models.RoleAdmin
	}
	user, err := st.CreateUser(context.Background(), username, password, role)
	if errors.Is(err, store.ErrUserExists) {
		fmt.Printf("user %s already exists\n", username)
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d role=%s\n", user.Username, user.ID, user.Role)
}
