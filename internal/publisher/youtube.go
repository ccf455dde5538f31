package publisher

import (
	"context"
	"fmt"
	"strings"

	"teamops/internal/models"
)

const SlugYouTube = "youtube_shorts"

var youtubeRequiredEnv = []string{
	"PUBLISHER_YOUTUBE_CLIENT_ID",
	"PUBLISHER_YOUTUBE_CLIENT_SECRET",
	"PUBLISHER_YOUTUBE_REFRESH_TOKEN",
	"PUBLISHER_YOUTUBE_CHANNEL_ID",
}

// YouTubePublisher uploads scripted Shorts via the YouTube Data API. Dry-run
// only.
type YouTubePublisher struct{}

func NewYouTubePublisher() *YouTubePublisher { return &YouTubePublisher{} }

func (p *YouTubePublisher) Info() Info {
	return Info{
		Slug:        SlugYouTube,
		DisplayName: "YouTube Shorts",
		Description: "Uploads scripted Shorts via the YouTube Data API.",
		RequiredEnv: youtubeRequiredEnv,
		Notes:       "Schedule metadata may include `privacy_status` and `tags` for Shorts uploads.",
	}
}

func (p *YouTubePublisher) HealthCheck() error {
	_, err := loadCredentials(SlugYouTube, youtubeRequiredEnv)
	return err
}

func (p *YouTubePublisher) Publish(ctx context.Context, job *models.Job, schedule *models.Schedule) (*models.DeliveryResult, error) {
	creds, err := loadCredentials(SlugYouTube, youtubeRequiredEnv)
	if err != nil {
		return nil, err
	}

	title := metaString(schedule.Metadata, "title")
	if title == "" {
		title = job.Title
	}
	if title == "" {
		title = "Untitled Short"
	}

	script := strings.TrimSpace(job.GeneratedContent)
	if script == "" {
		return nil, fmt.Errorf("job has no generated script to upload to YouTube Shorts")
	}
	preview := script
	if len(preview) > 200 {
		preview = preview[:200]
	}

	privacy := metaString(schedule.Metadata, "privacy_status")
	if privacy == "" {
		privacy = "unlisted"
	}

	return &models.DeliveryResult{
		Success: true,
		Detail:  "Simulated YouTube Shorts publish (dry run)",
		Payload: map[string]any{
			"channel":             creds["PUBLISHER_YOUTUBE_CHANNEL_ID"],
			"title":               title,
			"privacy_status":      privacy,
			"tags":                metaTags(schedule.Metadata),
			"description_preview": preview,
		},
	}, nil
}

// metaTags accepts tags as a comma-separated string or a list.
func metaTags(md models.Metadata) []string {
	switch v := md["tags"].(type) {
	case string:
		var tags []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		return tags
	case []any:
		var tags []string
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				tags = append(tags, strings.TrimSpace(s))
			}
		}
		return tags
	case []string:
		return v
	}
	return nil
}
