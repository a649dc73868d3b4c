// Command sethours sets the monthly hour allotment for every user except the
// system account. Run at the start of each month, or ad hoc with MONTH and
// TOTAL_HOURS overrides.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/oyucel/timeledger/internal/ledger"
	"github.com/oyucel/timeledger/internal/repository/postgres"
	"github.com/oyucel/timeledger/internal/timefmt"
)

func main() {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		connStr = "postgres://localhost/timeledger?sslmode=disable"
	}

	month := os.Getenv("MONTH")
	if month == "" {
		month = ledger.CurrentMonth(time.Now())
	}
	if !ledger.ValidMonth(month) {
		log.Fatalf("invalid MONTH %q, expected YYYY-MM", month)
	}

	totalMinutes := ledger.DefaultTotalMinutes
	if totalHours := os.Getenv("TOTAL_HOURS"); totalHours != "" {
		if !timefmt.Valid(totalHours) {
			log.Fatalf("invalid TOTAL_HOURS %q, expected HH:MM", totalHours)
		}
		totalMinutes = timefmt.ParseHHMM(totalHours)
	}

	db, err := postgres.Connect(connStr)
	if err != nil {
		log.Fatal(err)
	}

	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	directory := postgres.NewDirectoryRepository(db)
	ledgers := postgres.NewLedgerRepository(db)

	ctx := context.Background()
	users, err := directory.ListUsers(ctx)
	if err != nil {
		log.Fatal(err)
	}

	for _, user := range users {
		if _, err := ledgers.SetTotal(ctx, user.ID, month, totalMinutes); err != nil {
			log.Fatalf("failed to set hours for user %s: %v", user.ID, err)
		}
	}

	log.Printf("Set %s hours for %d users for %s", timefmt.FormatMinutes(totalMinutes), len(users), month)
}
