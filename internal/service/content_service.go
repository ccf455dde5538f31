package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"teamops/internal/ai"
	"teamops/internal/models"
)

// Generator is the AI backend; nil when no provider is configured.
type Generator interface {
	Generate(ctx context.Context, messages []ai.Message, temperature float64) (string, error)
}

// JobStore persists generated jobs.
type JobStore interface {
	Create(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id int) (*models.Job, error)
	List(ctx context.Context, limit int) ([]*models.Job, error)
}

// ProfileReader loads brand profiles for prompt building.
type ProfileReader interface {
	Get(ctx context.Context, id int) (*models.Profile, error)
}

// GenerateRequest is the body of POST /api/content.
type GenerateRequest struct {
	ProfileID   *int   `json:"profile_id"`
	Title       string `json:"title"`
	Keywords    string `json:"keywords"`
	ContentType string `json:"content_type"`
	Brief       string `json:"brief"`
	Extra       string `json:"extra"`
}

// GenerateResponse pairs the stored job with a note on how the text was
// produced.
type GenerateResponse struct {
	Job  *models.Job `json:"job"`
	Note string      `json:"note"`
}

// ContentService produces content jobs, via the AI provider when one is
// configured and via the deterministic template otherwise.
type ContentService struct {
	jobs     JobStore
	profiles ProfileReader
	ai       Generator
	logger   *log.Logger
}

func NewContentService(jobs JobStore, profiles ProfileReader, generator Generator, logger *log.Logger) *ContentService {
	if logger == nil {
		logger = log.Default()
	}
	return &ContentService{jobs: jobs, profiles: profiles, ai: generator, logger: logger}
}

// Generate builds a prompt from the request and its profile, asks the AI
// provider for text, and stores the result as a job. Provider failures never
// fail the request: the fallback template keeps the pipeline moving.
func (s *ContentService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if req.ContentType == "" {
		req.ContentType = "custom"
	}

	text, note := s.generateText(ctx, req)

	// a job without a brief still generates, but operators should review the
	// inputs before scheduling it anywhere
	status := models.JobStatusGenerated
	if strings.TrimSpace(req.Brief) == "" {
		status = models.JobStatusNeedsConfig
	}

	job := &models.Job{
		ProfileID:        req.ProfileID,
		Title:            req.Title,
		Keywords:         req.Keywords,
		ContentType:      req.ContentType,
		Brief:            req.Brief,
		Extra:            req.Extra,
		GeneratedContent: text,
		Status:           status,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("store job: %w", err)
	}
	return &GenerateResponse{Job: job, Note: note}, nil
}

func (s *ContentService) GetJob(ctx context.Context, id int) (*models.Job, error) {
	return s.jobs.Get(ctx, id)
}

func (s *ContentService) ListJobs(ctx context.Context, limit int) ([]*models.Job, error) {
	return s.jobs.List(ctx, limit)
}

func (s *ContentService) generateText(ctx context.Context, req GenerateRequest) (text, note string) {
	if s.ai == nil {
		return fallbackGenerate(req), "AI disabled - used fallback template"
	}

	system, user := s.buildPrompt(ctx, req)
	out, err := s.ai.Generate(ctx, ai.BuildMessages(system, user), 0.7)
	if err != nil {
		s.logger.Printf("ai generation failed, using fallback: %v", err)
		return fallbackGenerate(req), "AI unavailable - used fallback template"
	}
	return out, "AI generated"
}

func (s *ContentService) buildPrompt(ctx context.Context, req GenerateRequest) (system, user string) {
	system = "You are a content generation assistant."
	if req.ProfileID != nil && s.profiles != nil {
		if p, err := s.profiles.Get(ctx, *req.ProfileID); err == nil {
			system = strings.Join([]string{
				"You write on-brand content.",
				"Tone: " + p.Tone,
				"Voice: " + p.Voice,
				"Primary platforms: " + p.TargetPlatform,
				"Guidelines: " + p.Guidelines,
			}, "\n")
		}
	}
	user = fmt.Sprintf("Title: %s\nKeywords: %s\nBrief: %s\nExtra: %s",
		req.Title, req.Keywords, req.Brief, req.Extra)
	return system, user
}

// fallbackGenerate renders a deterministic content template so operators can
// keep scheduling even with no AI provider reachable.
func fallbackGenerate(req GenerateRequest) string {
	title := req.Title
	if title == "" {
		title = "Untitled"
	}
	keywords := req.Keywords
	if keywords == "" {
		keywords = "-"
	}

	var lines []string
	switch strings.ToLower(req.ContentType) {
	case "social-post":
		tag := firstKeyword(keywords, "content")
		lines = []string{
			"# " + title,
			"Keywords: " + keywords,
			"",
			"Post 1:",
			fmt.Sprintf("- Hook: %s - you won't believe this %s twist.", title, tag),
			"- Body: Quick hit: what happened, why it matters, and the hidden detail everyone misses.",
			fmt.Sprintf("- CTA: Follow for more %s drops like this.", tag),
			"",
			"Post 2:",
			fmt.Sprintf("- Hook: The moment that changed everything in %s.", title),
			"- Body: Set the scene, deliver the surprise, then land the takeaway.",
			"- CTA: Share with a friend who needs this.",
			"",
			"Post 3:",
			fmt.Sprintf("- Hook: If you missed %s, here's the 15s recap.", title),
			"- Body: Three beats: setup, twist, payoff. Simple and tight.",
			"- CTA: Save this so you don't forget.",
		}
	case "reddit-story":
		tag := firstKeyword(keywords, "story")
		lines = []string{
			"# " + title,
			"Keywords: " + keywords,
			"",
			"Intro:",
			fmt.Sprintf("Last night I was deep in %s mode when something felt off. Not the usual kind of off, either.", tag),
			"",
			"The twist:",
			"Halfway in, a tiny detail changed the entire vibe. I paused, rewound, and realized what I missed.",
			"",
			"Build-up:",
			"I started connecting dots: the noise, the timing, the way the room felt colder than it should.",
			"",
			"Climax:",
			fmt.Sprintf("Suddenly, it clicked. The whole %s moment wasn't random, it was building to this.", title),
			"",
			"Aftermath:",
			"I saved the clip, turned the lights back on, and laughed at how hard I got baited.",
			"",
			"CTA:",
			"Tell me the exact second you realized something was wrong, I bet it's not where you think.",
		}
	case "video-script":
		lines = []string{
			"# " + title,
			"Keywords: " + keywords,
			"",
			"0-2s: Cold open - smash cut to the most surprising moment.",
			fmt.Sprintf("2-7s: Hook - '%s' in one line, with a visual tease.", title),
			"7-20s: Setup - where we were, what we expected, and what changed.",
			"20-45s: The twist - tight cuts, punchy lines, build tension.",
			"45-55s: Payoff - the reveal and why it matters.",
			"55-60s: CTA - follow for part 2 or comment your take.",
		}
	default:
		lines = []string{
			"# " + title,
			"Type: " + strings.ToLower(req.ContentType),
			"Keywords: " + keywords,
			"",
			"Draft outline:",
			"- Hook",
			"- Body",
			"- CTA",
		}
	}

	if brief := strings.TrimSpace(req.Brief); brief != "" {
		lines = append(lines, "", "Brief:", brief)
	}
	if extra := strings.TrimSpace(req.Extra); extra != "" {
		lines = append(lines, "", "Operator notes:", extra)
	}
	return strings.Join(lines, "\n")
}

func firstKeyword(keywords, fallback string) string {
	for _, part := range strings.Split(keywords, ",") {
		if kw := strings.TrimSpace(part); kw != "" && kw != "-" {
			return strings.ToLower(kw)
		}
	}
	return fallback
}
