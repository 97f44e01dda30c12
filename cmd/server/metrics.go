package main

import (
	"context"
	"log"
	"time"

	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/metrics"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/mis"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/session"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/task"
)

func startMetricsCollector(ctx context.Context, src mis.Source, reg *session.Registry, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	updateBoardMetrics(ctx, src)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateBoardMetrics(ctx, src)
			if n := reg.Sweep(idle); n > 0 {
				log.Printf("evicted %d idle report sessions", n)
			}
		}
	}
}

func updateBoardMetrics(ctx context.Context, src mis.Source) {
	users, err := src.GetTotalUsersCount(ctx)
	if err != nil {
		log.Printf("Failed to count users for metrics: %v", err)
	} else {
		metrics.UpdateUsersTotal(users)
	}

	for _, category := range task.Categories() {
		n, err := src.GetStaffTasksCount(ctx, category, task.AllStaff)
		if err != nil {
			log.Printf("Failed to count %s staff for metrics: %v", category, err)
			continue
		}
		metrics.UpdateStaffTotal(string(category), n)
	}
}
