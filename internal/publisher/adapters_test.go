package publisher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamops/internal/models"
)

func setEnv(t *testing.T, keys []string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "test-"+strings.ToLower(k))
	}
}

func TestHealthCheckReportsMissingCredentials(t *testing.T) {
	// leave one key unset for each adapter
	for _, k := range redditRequiredEnv[:len(redditRequiredEnv)-1] {
		t.Setenv(k, "x")
	}
	t.Setenv("PUBLISHER_REDDIT_USER_AGENT", "")

	err := NewRedditPublisher().HealthCheck()
	var confErr *ConfigError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, SlugReddit, confErr.Slug)
	assert.Equal(t, []string{"PUBLISHER_REDDIT_USER_AGENT"}, confErr.Missing)
	assert.Contains(t, confErr.Error(), "missing credentials")
}

func TestHealthCheckPassesWithCredentials(t *testing.T) {
	setEnv(t, twitterRequiredEnv)
	assert.NoError(t, NewTwitterPublisher().HealthCheck())
}

func TestRedditPublish(t *testing.T) {
	setEnv(t, redditRequiredEnv)

	job := &models.Job{Title: "My story", GeneratedContent: "line one\nline two  with   spaces"}
	sched := &models.Schedule{Metadata: models.Metadata{"subreddit": "nosleep"}}

	res, err := NewRedditPublisher().Publish(context.Background(), job, sched)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "nosleep", res.Payload["subreddit"])
	assert.Equal(t, "My story", res.Payload["title"])
	assert.Equal(t, "line one line two with spaces", res.Payload["preview"])
}

func TestRedditPublishRequiresSubreddit(t *testing.T) {
	setEnv(t, redditRequiredEnv)

	job := &models.Job{Title: "t", GeneratedContent: "body"}
	_, err := NewRedditPublisher().Publish(context.Background(), job, &models.Schedule{Metadata: models.Metadata{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subreddit")

	var confErr *ConfigError
	assert.False(t, errors.As(err, &confErr), "missing metadata is a delivery problem, not a credentials one")
}

func TestRedditPublishWithoutCredentials(t *testing.T) {
	for _, k := range redditRequiredEnv {
		t.Setenv(k, "")
	}
	job := &models.Job{Title: "t", GeneratedContent: "body"}
	sched := &models.Schedule{Metadata: models.Metadata{"subreddit": "golang"}}

	_, err := NewRedditPublisher().Publish(context.Background(), job, sched)
	var confErr *ConfigError
	require.ErrorAs(t, err, &confErr)
	assert.Len(t, confErr.Missing, len(redditRequiredEnv))
}

func TestTwitterPublish(t *testing.T) {
	setEnv(t, twitterRequiredEnv)

	job := &models.Job{GeneratedContent: "first line\nrest of the thread"}
	sched := &models.Schedule{Metadata: models.Metadata{"handle": "@teamops"}}

	res, err := NewTwitterPublisher().Publish(context.Background(), job, sched)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "@teamops", res.Payload["handle"])
	assert.Equal(t, "first line", res.Payload["preview"])
}

func TestTwitterPublishRequiresHandle(t *testing.T) {
	setEnv(t, twitterRequiredEnv)

	job := &models.Job{GeneratedContent: "body"}
	_, err := NewTwitterPublisher().Publish(context.Background(), job, &models.Schedule{Metadata: models.Metadata{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handle")
}

func TestYouTubePublish(t *testing.T) {
	setEnv(t, youtubeRequiredEnv)

	job := &models.Job{Title: "Short title", GeneratedContent: "script body"}
	sched := &models.Schedule{Metadata: models.Metadata{"tags": "a, b,,c"}}

	res, err := NewYouTubePublisher().Publish(context.Background(), job, sched)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "unlisted", res.Payload["privacy_status"])
	assert.Equal(t, []string{"a", "b", "c"}, res.Payload["tags"])
	assert.Equal(t, "Short title", res.Payload["title"])
}

func TestYouTubePublishRequiresScript(t *testing.T) {
	setEnv(t, youtubeRequiredEnv)

	_, err := NewYouTubePublisher().Publish(context.Background(), &models.Job{Title: "t"}, &models.Schedule{Metadata: models.Metadata{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script")
}

func TestMetaTagsShapes(t *testing.T) {
	assert.Equal(t, []string{"x", "y"}, metaTags(models.Metadata{"tags": []any{"x", " y "}}))
	assert.Equal(t, []string{"x"}, metaTags(models.Metadata{"tags": []string{"x"}}))
	assert.Nil(t, metaTags(models.Metadata{}))
}
