package publisher

import (
	"context"
	"fmt"
	"strings"

	"teamops/internal/models"
)

const SlugTwitter = "twitter_x"

var twitterRequiredEnv = []string{
	"PUBLISHER_TWITTER_API_KEY",
	"PUBLISHER_TWITTER_API_SECRET",
	"PUBLISHER_TWITTER_ACCESS_TOKEN",
	"PUBLISHER_TWITTER_ACCESS_SECRET",
	"PUBLISHER_TWITTER_BEARER_TOKEN",
}

// TwitterPublisher posts tweets or threads via the v2 API with OAuth 1.0a
// user context. Dry-run only.
type TwitterPublisher struct{}

func NewTwitterPublisher() *TwitterPublisher { return &TwitterPublisher{} }

func (p *TwitterPublisher) Info() Info {
	return Info{
		Slug:        SlugTwitter,
		DisplayName: "Twitter / X (API v2)",
		Description: "Publishes threads or tweets using the v2 API and OAuth 1.0a user context.",
		RequiredEnv: twitterRequiredEnv,
		Notes:       "Provide `handle` in schedule metadata to target the posting account.",
	}
}

func (p *TwitterPublisher) HealthCheck() error {
	_, err := loadCredentials(SlugTwitter, twitterRequiredEnv)
	return err
}

func (p *TwitterPublisher) Publish(ctx context.Context, job *models.Job, schedule *models.Schedule) (*models.DeliveryResult, error) {
	if _, err := loadCredentials(SlugTwitter, twitterRequiredEnv); err != nil {
		return nil, err
	}

	handle := metaString(schedule.Metadata, "handle", "account")
	if handle == "" {
		return nil, fmt.Errorf("schedule metadata must include `handle` for Twitter/X publishing")
	}

	body := strings.TrimSpace(job.GeneratedContent)
	if body == "" {
		return nil, fmt.Errorf("job has no generated content for Twitter/X publishing")
	}
	preview := body
	if i := strings.IndexByte(preview, '\n'); i >= 0 {
		preview = preview[:i]
	}
	if len(preview) > 240 {
		preview = preview[:240]
	}

	return &models.DeliveryResult{
		Success: true,
		Detail:  "Simulated Twitter/X publish (dry run)",
		Payload: map[string]any{
			"handle":  handle,
			"preview": preview,
		},
	}, nil
}
