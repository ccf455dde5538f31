package kafka

import "time"

// AuditEvent is the per-row audit record the dispatcher emits after every
// processed schedule, terminal or not.
type AuditEvent struct {
	ScheduleID int       `json:"schedule_id"`
	JobID      int       `json:"job_id"`
	Platform   string    `json:"platform"`
	Status     string    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}
