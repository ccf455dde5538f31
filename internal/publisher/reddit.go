package publisher

import (
	"context"
	"fmt"
	"strings"

	"teamops/internal/models"
)

const SlugReddit = "reddit"

var redditRequiredEnv = []string{
	"PUBLISHER_REDDIT_CLIENT_ID",
	"PUBLISHER_REDDIT_CLIENT_SECRET",
	"PUBLISHER_REDDIT_USERNAME",
	"PUBLISHER_REDDIT_PASSWORD",
	"PUBLISHER_REDDIT_USER_AGENT",
}

// RedditPublisher posts text submissions through a personal script-type OAuth
// application. Publishing is dry-run: the payload is validated and returned,
// nothing leaves the process.
type RedditPublisher struct{}

func NewRedditPublisher() *RedditPublisher { return &RedditPublisher{} }

func (p *RedditPublisher) Info() Info {
	return Info{
		Slug:        SlugReddit,
		DisplayName: "Reddit (OAuth script app)",
		Description: "Publishes text posts using a personal script-type OAuth application.",
		RequiredEnv: redditRequiredEnv,
		Notes:       "Set target subreddit via schedule metadata `subreddit`.",
	}
}

func (p *RedditPublisher) HealthCheck() error {
	_, err := loadCredentials(SlugReddit, redditRequiredEnv)
	return err
}

func (p *RedditPublisher) Publish(ctx context.Context, job *models.Job, schedule *models.Schedule) (*models.DeliveryResult, error) {
	creds, err := loadCredentials(SlugReddit, redditRequiredEnv)
	if err != nil {
		return nil, err
	}

	subreddit := metaString(schedule.Metadata, "subreddit", "target")
	if subreddit == "" {
		return nil, fmt.Errorf("schedule metadata is missing `subreddit` for Reddit publish")
	}

	title := metaString(schedule.Metadata, "title")
	if title == "" {
		title = job.Title
	}
	if title == "" {
		title = "Untitled"
	}

	body := strings.TrimSpace(job.GeneratedContent)
	if body == "" {
		return nil, fmt.Errorf("job has no generated content to post to Reddit")
	}
	preview := strings.Join(strings.Fields(body), " ")
	if len(preview) > 180 {
		preview = preview[:180]
	}

	return &models.DeliveryResult{
		Success: true,
		Detail:  "Simulated Reddit publish (dry run)",
		Payload: map[string]any{
			"subreddit": subreddit,
			"title":     title,
			"preview":   preview,
			"username":  creds["PUBLISHER_REDDIT_USERNAME"],
		},
	}, nil
}
