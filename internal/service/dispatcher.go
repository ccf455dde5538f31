package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"teamops/internal/kafka"
	"teamops/internal/metrics"
	"teamops/internal/models"
	"teamops/internal/publisher"
	"teamops/internal/repository"
)

// DispatcherStore is the claim-and-transition surface of the schedule
// repository. All mutation goes through guarded status transitions, the
// dispatcher never does read-then-write on rows it did not claim.
type DispatcherStore interface {
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.Schedule, error)
	UpdateStatus(ctx context.Context, id int, newStatus string, patch models.Metadata) (*models.Schedule, error)
	ReleaseStuck(ctx context.Context, olderThan time.Duration) (int, error)
}

// JobReader loads the read-only job a schedule delivers.
type JobReader interface {
	Get(ctx context.Context, id int) (*models.Job, error)
}

// PublisherResolver maps a platform name to its adapter, if any.
type PublisherResolver interface {
	Resolve(platform string) (publisher.Publisher, bool)
}

// failure reasons for metrics
const (
	failNoAdapter = "no_adapter"
	failConfig    = "config"
	failDelivery  = "delivery"
	failStore     = "store"
)

// Dispatcher is the background polling loop that drives due schedules
// through queued -> publishing -> published/error. Multiple dispatcher
// instances may run against the same database; exclusivity comes from the
// store's skip-locked claim, not from anything in here.
type Dispatcher struct {
	store      DispatcherStore
	jobs       JobReader
	publishers PublisherResolver

	interval       time.Duration
	batchSize      int
	publishTimeout time.Duration
	stuckAfter     time.Duration
	sweepEvery     time.Duration

	audit  chan<- kafka.AuditEvent
	logger *log.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewDispatcher(
	store DispatcherStore,
	jobs JobReader,
	publishers PublisherResolver,
	interval time.Duration,
	batchSize int,
	publishTimeout time.Duration,
	stuckAfter time.Duration,
	audit chan<- kafka.AuditEvent,
	logger *log.Logger,
) *Dispatcher {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	if publishTimeout <= 0 {
		publishTimeout = 30 * time.Second
	}
	if stuckAfter <= 0 {
		stuckAfter = 10 * time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Dispatcher{
		store:          store,
		jobs:           jobs,
		publishers:     publishers,
		interval:       interval,
		batchSize:      batchSize,
		publishTimeout: publishTimeout,
		stuckAfter:     stuckAfter,
		// the sweep only matters after a crash, no need to hammer the table
		sweepEvery: 5 * time.Minute,
		audit:      audit,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// Start launches the polling goroutine. A startup sweep releases rows a
// previous process left stuck in queued/publishing, then the first tick runs
// immediately.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.logger.Println("schedule dispatcher started")
		defer d.logger.Println("schedule dispatcher stopped")

		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		sweepTicker := time.NewTicker(d.sweepEvery)
		defer sweepTicker.Stop()

		d.sweepOnce(ctx)
		d.Tick(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-d.stopCh:
				return
			case <-ticker.C:
				d.Tick(ctx)
			case <-sweepTicker.C:
				d.sweepOnce(ctx)
			}
		}
	}()
}

// Stop signals the loop and waits for the in-flight tick to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
	d.wg.Wait()
}

// Tick runs one dispatch iteration: claim due rows, deliver each in
// publish_at order. One row's failure never blocks the rest of the batch.
func (d *Dispatcher) Tick(ctx context.Context) int {
	metrics.IncDispatcherTick()

	now := time.Now().UTC()
	claimed, err := d.store.ClaimDue(ctx, now, d.batchSize)
	if err != nil {
		metrics.IncDispatcherTickError()
		d.logger.Printf("dispatcher claim failed: %v", err)
		return 0
	}
	if len(claimed) == 0 {
		return 0
	}
	metrics.AddSchedulesClaimed(len(claimed))

	for _, sched := range claimed {
		d.deliver(ctx, now, sched)
	}
	return len(claimed)
}

func (d *Dispatcher) deliver(ctx context.Context, now time.Time, sched *models.Schedule) {
	metrics.ObserveScheduleLagSeconds(now.Sub(sched.PublishAt).Seconds())

	attempts := metaInt(sched.Metadata, "retry_count")

	cur, err := d.store.UpdateStatus(ctx, sched.ID, models.ScheduleStatusPublishing, models.Metadata{
		"last_attempted_at": now.Format(time.RFC3339),
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			// canceled underneath us between claim and pickup; not ours anymore
			d.logger.Printf("schedule %d left queued state before pickup: %v", sched.ID, err)
			d.emitAudit(kafka.AuditEvent{
				ScheduleID: sched.ID,
				JobID:      sched.JobID,
				Platform:   sched.Platform,
				Status:     models.ScheduleStatusCanceled,
				Detail:     "canceled before pickup",
				At:         time.Now().UTC(),
			})
			return
		}
		metrics.IncScheduleFailed(failStore)
		d.logger.Printf("schedule %d: transition to publishing failed: %v", sched.ID, err)
		d.emitAudit(kafka.AuditEvent{
			ScheduleID: sched.ID,
			JobID:      sched.JobID,
			Platform:   sched.Platform,
			Status:     sched.Status,
			Detail:     "transition to publishing failed: " + err.Error(),
			At:         time.Now().UTC(),
		})
		return
	}

	pub, ok := d.publishers.Resolve(cur.Platform)
	if !ok {
		d.fail(ctx, cur, failNoAdapter, "no adapter for platform: "+cur.Platform, attempts)
		return
	}

	job, err := d.jobs.Get(ctx, cur.JobID)
	if err != nil {
		d.fail(ctx, cur, failStore, "load job: "+err.Error(), attempts)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, d.publishTimeout)
	start := time.Now()
	res, err := pub.Publish(pubCtx, job, cur)
	cancel()
	metrics.ObservePublishDuration(cur.Platform, time.Since(start))

	if err != nil {
		reason := failDelivery
		var confErr *publisher.ConfigError
		if errors.As(err, &confErr) {
			reason = failConfig
		}
		d.fail(ctx, cur, reason, err.Error(), attempts)
		return
	}
	if res == nil || !res.Success {
		detail := "publisher reported failure"
		if res != nil && res.Detail != "" {
			detail = res.Detail
		}
		d.fail(ctx, cur, failDelivery, detail, attempts)
		return
	}

	if _, err := d.store.UpdateStatus(ctx, cur.ID, models.ScheduleStatusPublished, models.Metadata{
		"published_at":   time.Now().UTC().Format(time.RFC3339),
		"publish_result": res,
	}); err != nil {
		metrics.IncScheduleFailed(failStore)
		d.logger.Printf("schedule %d: transition to published failed: %v", cur.ID, err)
		d.emitAudit(kafka.AuditEvent{
			ScheduleID: cur.ID,
			JobID:      cur.JobID,
			Platform:   cur.Platform,
			Status:     cur.Status,
			Detail:     "transition to published failed: " + err.Error(),
			At:         time.Now().UTC(),
		})
		return
	}

	metrics.IncSchedulePublished()
	d.emitAudit(kafka.AuditEvent{
		ScheduleID: cur.ID,
		JobID:      cur.JobID,
		Platform:   cur.Platform,
		Status:     models.ScheduleStatusPublished,
		Detail:     res.Detail,
		At:         time.Now().UTC(),
	})
}

// fail records a terminal error on the row: failure reason and timestamp in
// metadata, retry counter bumped for the operator's benefit.
func (d *Dispatcher) fail(ctx context.Context, sched *models.Schedule, reason, detail string, attempts int) {
	metrics.IncScheduleFailed(reason)

	if _, err := d.store.UpdateStatus(ctx, sched.ID, models.ScheduleStatusError, models.Metadata{
		"last_error":  detail,
		"failed_at":   time.Now().UTC().Format(time.RFC3339),
		"retry_count": attempts + 1,
	}); err != nil {
		d.logger.Printf("schedule %d: transition to error failed: %v", sched.ID, err)
	}

	d.logger.Printf("schedule %d (%s) failed: %s", sched.ID, sched.Platform, detail)
	d.emitAudit(kafka.AuditEvent{
		ScheduleID: sched.ID,
		JobID:      sched.JobID,
		Platform:   sched.Platform,
		Status:     models.ScheduleStatusError,
		Detail:     detail,
		At:         time.Now().UTC(),
	})
}

func (d *Dispatcher) sweepOnce(ctx context.Context) {
	n, err := d.store.ReleaseStuck(ctx, d.stuckAfter)
	if err != nil {
		d.logger.Printf("stuck sweep failed: %v", err)
		return
	}
	if n > 0 {
		metrics.AddSchedulesReleased(n)
		d.logger.Printf("stuck sweep: released %d schedules back to pending", n)
	}
}

func (d *Dispatcher) emitAudit(event kafka.AuditEvent) {
	if d.audit == nil {
		return
	}
	select {
	case d.audit <- event:
	default:
		metrics.IncAuditEventDropped()
	}
}

// metaInt reads an integer out of metadata, tolerating the float64 values
// json decoding produces.
func metaInt(md models.Metadata, key string) int {
	switch v := md[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
