package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"teamops/internal/models"
)

// ErrUnknownPlatform is returned when a platform name resolves to no
// registered publisher, aliases included.
var ErrUnknownPlatform = errors.New("unsupported publishing platform")

// ConfigError reports missing publisher credentials. Adapters return it from
// HealthCheck and Publish instead of panicking so the dispatcher can treat it
// like any other delivery failure.
type ConfigError struct {
	Slug    string
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: missing credentials: %s", e.Slug, strings.Join(e.Missing, ", "))
}

// Info describes a publisher for the catalog endpoint.
type Info struct {
	Slug        string   `json:"slug"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	RequiredEnv []string `json:"required_env"`
	Notes       string   `json:"notes,omitempty"`
}

// Publisher is the per-platform capability set used by the dispatcher.
type Publisher interface {
	Info() Info
	HealthCheck() error
	Publish(ctx context.Context, job *models.Job, schedule *models.Schedule) (*models.DeliveryResult, error)
}

// aliases maps the platform spellings accepted on input to canonical slugs.
var aliases = map[string]string{
	"reddit":         SlugReddit,
	"reddit_script":  SlugReddit,
	"twitter":        SlugTwitter,
	"twitter_x":      SlugTwitter,
	"x":              SlugTwitter,
	"youtube":        SlugYouTube,
	"youtube_shorts": SlugYouTube,
}

// Registry maps canonical platform slugs to publishers. It is populated at
// startup and read-only afterwards, so lookups need no locking.
type Registry struct {
	publishers map[string]Publisher
}

func NewRegistry(pubs ...Publisher) *Registry {
	r := &Registry{publishers: make(map[string]Publisher)}
	for _, p := range pubs {
		r.Register(p)
	}
	return r
}

// Register associates one publisher per slug; re-registering replaces.
func (r *Registry) Register(p Publisher) {
	r.publishers[p.Info().Slug] = p
}

// Normalize folds an input platform name to its canonical registered slug.
func (r *Registry) Normalize(platform string) (string, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(platform)), "-", "_")
	slug, ok := aliases[key]
	if !ok {
		slug = key
	}
	if _, ok := r.publishers[slug]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}
	return slug, nil
}

// Resolve returns the publisher for a platform name. Absence is not an error
// at this layer; the dispatcher decides what a missing adapter means.
func (r *Registry) Resolve(platform string) (Publisher, bool) {
	slug, err := r.Normalize(platform)
	if err != nil {
		return nil, false
	}
	p, ok := r.publishers[slug]
	return p, ok
}

// List returns catalog entries sorted by slug.
func (r *Registry) List() []Info {
	res := make([]Info, 0, len(r.publishers))
	for _, p := range r.publishers {
		res = append(res, p.Info())
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Slug < res[j].Slug })
	return res
}

// loadCredentials collects the required env values or reports what is missing.
func loadCredentials(slug string, required []string) (map[string]string, error) {
	creds := make(map[string]string, len(required))
	var missing []string
	for _, key := range required {
		if v := os.Getenv(key); v != "" {
			creds[key] = v
		} else {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Slug: slug, Missing: missing}
	}
	return creds, nil
}

// metaString pulls the first non-empty string value for any of the keys from
// schedule metadata.
func metaString(md models.Metadata, keys ...string) string {
	for _, k := range keys {
		if v, ok := md[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
