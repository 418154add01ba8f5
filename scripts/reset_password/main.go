package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"timetable/pkg/envconf"
	"timetable/pkg/store"
)

func main() {
	username := flag.String("username", "", "username to reset")
	password := flag.String("password", "", "new plaintext password (min 6 chars)")
	flag.Parse()
	if *username == "" || *password == "" {
		log.Fatal("--username and --password are required")
	}
	if len(*password) < store.MinPasswordLen {
		log.Fatalf("password too short (min %d)", store.MinPasswordLen)
	}
	envconf.LoadDotEnv("")
	st := envconf.MustStore()
	if err := st.SetPassword(context.Background(), *username, *password); err != nil {
		log.Fatalf("update failed: %v", err)
	}
	fmt.Printf("Password reset for user %s\n", *username)
}
