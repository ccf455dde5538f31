package models

import "time"

// Job statuses. Jobs are produced by the content generator and are read-only
// inputs to scheduling; the dispatcher never mutates one.
const (
	JobStatusDraft       = "draft"
	JobStatusGenerated   = "generated"
	JobStatusNeedsConfig = "needs_config"
)

// Job is a generated content artifact (title, body, captions).
type Job struct {
	ID               int        `db:"id" json:"id"`
	ProfileID        *int       `db:"profile_id" json:"profile_id,omitempty"`
	Title            string     `db:"title" json:"title"`
	Keywords         string     `db:"keywords" json:"keywords,omitempty"`
	ContentType      string     `db:"content_type" json:"content_type"`
	Brief            string     `db:"brief" json:"brief,omitempty"`
	Extra            string     `db:"extra" json:"extra,omitempty"`
	GeneratedContent string     `db:"generated_content" json:"generated_content"`
	Status           string     `db:"status" json:"status"`
	ProfileName      string     `db:"-" json:"profile_name,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Profile carries the brand voice settings used to build generation prompts.
type Profile struct {
	ID             int        `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Tone           string     `db:"tone" json:"tone,omitempty"`
	Voice          string     `db:"voice" json:"voice,omitempty"`
	TargetPlatform string     `db:"target_platform" json:"target_platform,omitempty"`
	Guidelines     string     `db:"guidelines" json:"guidelines,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// DeliveryResult is what a publisher adapter returns from Publish.
type DeliveryResult struct {
	Success    bool           `json:"success"`
	Detail     string         `json:"detail"`
	ExternalID string         `json:"external_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}
