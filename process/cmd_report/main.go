package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"sushida/process/report"
)

func main() {
	username := flag.String("username", "admin", "username to report for")
	month := flag.String("month", time.Now().UTC().Format("2006-01"), "month to report (YYYY-MM)")
	list := flag.Bool("list", false, "list matching rows")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN and retry")
		os.Exit(2)
	}
	db, err := report.Open(dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	rep, err := report.Monthly(context.Background(), db, *username, *month, *list)
	if err != nil {
		log.Fatalf("report failed: %v", err)
	}
	rep.Write(os.Stdout)
}
