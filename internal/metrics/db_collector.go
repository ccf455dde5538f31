package metrics

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StartDBCollectors periodically refreshes the schedule status gauges from
// the database so operators can watch queue depth without polling the API.
func StartDBCollectors(ctx context.Context, db *pgxpool.Pool, interval time.Duration, logger *log.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = log.Default()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		updateScheduleGauges(ctx, db, logger)
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				updateScheduleGauges(ctx, db, logger)
			}
		}
	}()
}

func updateScheduleGauges(ctx context.Context, db *pgxpool.Pool, logger *log.Logger) {
	rows, err := db.Query(ctx, `SELECT status, COUNT(*) FROM ai_content_schedules GROUP BY status`)
	if err != nil {
		// table may not exist yet on first boot
		return
	}
	defer rows.Close()

	var pending int64
	for rows.Next() {
		var status string
		var cnt int64
		if err := rows.Scan(&status, &cnt); err != nil {
			logger.Printf("metrics db scan schedules: %v", err)
			continue
		}
		SetScheduleStatusCount(status, cnt)
		if status == "pending" {
			pending = cnt
		}
	}
	SetSchedulePendingCount(pending)
}
