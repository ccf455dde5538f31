package service

import (
	"log"
	"sync"

	"teamops/internal/kafka"
	"teamops/internal/metrics"
)

// AuditProducer is what the worker needs from the kafka layer.
type AuditProducer interface {
	SendAuditEvent(event kafka.AuditEvent) error
}

// StartAuditWorker drains dispatcher audit events into Kafka in the
// background so a slow broker never stalls a tick. Returns when the channel
// is closed.
func StartAuditWorker(ch <-chan kafka.AuditEvent, producer AuditProducer, logger *log.Logger) *sync.WaitGroup {
	if logger == nil {
		logger = log.Default()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for event := range ch {
			if err := producer.SendAuditEvent(event); err != nil {
				metrics.IncAuditEventDropped()
				logger.Printf("audit event for schedule %d not sent: %v", event.ScheduleID, err)
				continue
			}
			metrics.IncAuditEventSent()
		}
		logger.Println("audit worker stopped")
	}()
	return &wg
}
