package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamops/internal/ai"
	"teamops/internal/models"
)

type memJobStore struct {
	created *models.Job
	nextID  int
}

func (m *memJobStore) Create(_ context.Context, job *models.Job) error {
	m.nextID++
	job.ID = m.nextID
	m.created = job
	return nil
}

func (m *memJobStore) Get(_ context.Context, id int) (*models.Job, error) { return m.created, nil }

func (m *memJobStore) List(_ context.Context, _ int) ([]*models.Job, error) {
	return []*models.Job{m.created}, nil
}

type stubGenerator struct {
	out string
	err error
}

func (g stubGenerator) Generate(_ context.Context, _ []ai.Message, _ float64) (string, error) {
	return g.out, g.err
}

func TestGenerateUsesFallbackWhenNoProvider(t *testing.T) {
	store := &memJobStore{}
	svc := NewContentService(store, nil, nil, nil)

	res, err := svc.Generate(context.Background(), GenerateRequest{
		Title:       "Cave diving gone wrong",
		ContentType: "reddit-story",
		Keywords:    "caves, diving",
		Brief:       "true-story tone, 2 minute read",
	})
	require.NoError(t, err)
	assert.Contains(t, res.Note, "fallback")
	assert.Equal(t, models.JobStatusGenerated, res.Job.Status)
	assert.Contains(t, res.Job.GeneratedContent, "# Cave diving gone wrong")
	assert.Contains(t, res.Job.GeneratedContent, "caves mode")
	require.NotNil(t, store.created)
	assert.Equal(t, res.Job.ID, store.created.ID)
}

func TestGenerateUsesFallbackWhenProviderFails(t *testing.T) {
	svc := NewContentService(&memJobStore{}, nil, stubGenerator{err: errors.New("connection refused")}, nil)

	res, err := svc.Generate(context.Background(), GenerateRequest{Title: "T", ContentType: "video-script"})
	require.NoError(t, err)
	assert.Contains(t, res.Note, "fallback")
	assert.Contains(t, res.Job.GeneratedContent, "0-2s: Cold open")
}

func TestGenerateStoresProviderOutput(t *testing.T) {
	svc := NewContentService(&memJobStore{}, nil, stubGenerator{out: "model text"}, nil)

	res, err := svc.Generate(context.Background(), GenerateRequest{Title: "T"})
	require.NoError(t, err)
	assert.Equal(t, "AI generated", res.Note)
	assert.Equal(t, "model text", res.Job.GeneratedContent)
}

func TestGenerateWithoutBriefNeedsConfig(t *testing.T) {
	svc := NewContentService(&memJobStore{}, nil, stubGenerator{out: "model text"}, nil)

	res, err := svc.Generate(context.Background(), GenerateRequest{Title: "T", Brief: "   "})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusNeedsConfig, res.Job.Status)

	res, err = svc.Generate(context.Background(), GenerateRequest{Title: "T", Brief: "three posts"})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusGenerated, res.Job.Status)
}

func TestGenerateRequiresTitle(t *testing.T) {
	svc := NewContentService(&memJobStore{}, nil, nil, nil)
	_, err := svc.Generate(context.Background(), GenerateRequest{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFallbackGenerateAppendsBriefAndNotes(t *testing.T) {
	out := fallbackGenerate(GenerateRequest{
		Title:       "Launch recap",
		ContentType: "social-post",
		Keywords:    "launch",
		Brief:       "keep it short",
		Extra:       "tag the team account",
	})
	assert.True(t, strings.Contains(out, "Brief:\nkeep it short"))
	assert.True(t, strings.Contains(out, "Operator notes:\ntag the team account"))
	assert.Contains(t, out, "Post 3:")
}
