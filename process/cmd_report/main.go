package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"timetable/pkg/envconf"
	"timetable/process/report"
)

func main() {
	day := flag.String("day", "", "only report this day")
	list := flag.Bool("list", false, "list every entry")
	flag.Parse()
	envconf.LoadDotEnv("")

	if os.Getenv("DB_DSN") == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN and retry")
		os.Exit(2)
	}
	layout, _, err := envconf.Tables()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := report.Write(context.Background(), envconf.MustStore(), os.Stdout, layout.DayNames(), *day, *list); err != nil {
		fmt.Fprintf(os.Stderr, "report failed: %v\n", err)
		os.Exit(1)
	}
}
