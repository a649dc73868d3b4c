package main

import (
	"context"
	"log"
	"time"

	"github.com/oyucel/timeledger/internal/metrics"
	"github.com/oyucel/timeledger/internal/repository"
)

func startMetricsCollector(timers repository.TimerRepository) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		updateTimerMetrics(timers)
	}
}

func updateTimerMetrics(timers repository.TimerRepository) {
	all, err := timers.List(context.Background())
	if err != nil {
		log.Printf("Failed to list timers for metrics: %v", err)
		return
	}

	running := 0
	for _, t := range all {
		if t.IsRunning() {
			running++
		}
	}

	metrics.UpdateRunningTimers(running)
}
