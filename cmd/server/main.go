package main

import (
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oyucel/timeledger/internal/api"
	"github.com/oyucel/timeledger/internal/dashboard"
	"github.com/oyucel/timeledger/internal/middleware"
	"github.com/oyucel/timeledger/internal/notify"
	"github.com/oyucel/timeledger/internal/progress"
	"github.com/oyucel/timeledger/internal/repository/postgres"
	"github.com/oyucel/timeledger/internal/statuscache"
	"github.com/oyucel/timeledger/internal/tracking"
)

func main() {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		connStr = "postgres://localhost/timeledger?sslmode=disable"
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

	timers := postgres.NewTimerRepository(db)
	ledgers := postgres.NewLedgerRepository(db)
	directory := postgres.NewDirectoryRepository(db)

	var cache *statuscache.Cache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cache, err = statuscache.New(redisAddr)
		if err != nil {
			log.Fatal(err)
		}

		defer func() {
			if err := cache.Close(); err != nil {
				log.Printf("failed to close status cache: %v", err)
			}
		}()

		log.Printf("Connected to Redis at %s", redisAddr)
	}

	var notifier tracking.Notifier
	if os.Getenv("EMAIL_API_KEY") != "" {
		notifier = notify.NewEmailNotifierFromEnv()
	}

	svc := tracking.NewService(timers, ledgers, directory, cache, notifier)
	prog := progress.NewRecalculator(directory)
	dash := dashboard.NewDashboard(timers, directory)
	apiHandler := api.NewAPI(svc, prog, directory, dash)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", middleware.MetricsMiddleware(apiHandler))

	go startMetricsCollector(timers)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal(err)
	}
}
