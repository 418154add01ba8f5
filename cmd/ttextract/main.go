package main

import (
	"context"
	"log"
	"os"

	"timetable/pkg/envconf"
)

func main() {
	envconf.LoadDotEnv("")
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
