package models

import (
	"time"
)

// Schedule statuses. The full lifecycle is:
// pending -> queued -> publishing -> published
// pending|queued -> canceled
// publishing -> error, error -> pending (operator retry only)
const (
	ScheduleStatusPending    = "pending"
	ScheduleStatusQueued     = "queued"
	ScheduleStatusPublishing = "publishing"
	ScheduleStatusPublished  = "published"
	ScheduleStatusError      = "error"
	ScheduleStatusCanceled   = "canceled"
)

// Metadata is the open key/value blob stored in the jsonb `metadata` column:
// last attempt time, error text, retry count, publish result payload.
type Metadata map[string]any

// Schedule is a request to deliver one generated job to one platform at a
// future time. Rows are never deleted; cancellation is a terminal status.
type Schedule struct {
	ID        int       `db:"id" json:"id"`
	JobID     int       `db:"job_id" json:"job_id"`
	Platform  string    `db:"platform" json:"platform"`
	Status    string    `db:"status" json:"status"`
	PublishAt time.Time `db:"publish_at" json:"publish_at"` // stored as UTC
	Metadata  Metadata  `db:"metadata" json:"metadata"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// transitions encodes the allowed status edges. Anything not listed here is
// rejected with ErrInvalidTransition by the store layer.
var transitions = map[string][]string{
	ScheduleStatusPending:    {ScheduleStatusQueued, ScheduleStatusCanceled},
	ScheduleStatusQueued:     {ScheduleStatusPublishing, ScheduleStatusCanceled},
	ScheduleStatusPublishing: {ScheduleStatusPublished, ScheduleStatusError},
	ScheduleStatusError:      {ScheduleStatusPending}, // operator reset, not automatic
	ScheduleStatusPublished:  nil,
	ScheduleStatusCanceled:   nil,
}

// CanTransition reports whether from -> to is a legal status edge.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionSources returns every status from which `to` may be reached.
// Used by the store to build guarded UPDATE ... WHERE status = ANY(...) calls.
func TransitionSources(to string) []string {
	var from []string
	for src, nexts := range transitions {
		for _, next := range nexts {
			if next == to {
				from = append(from, src)
			}
		}
	}
	return from
}

// IsScheduleStatus reports whether s is a known schedule status value.
func IsScheduleStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether a schedule in status s can never move again on
// its own (error is terminal for the dispatcher, operator reset excepted).
func IsTerminal(s string) bool {
	switch s {
	case ScheduleStatusPublished, ScheduleStatusCanceled, ScheduleStatusError:
		return true
	}
	return false
}
