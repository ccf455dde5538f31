package publisher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullRegistry() *Registry {
	return NewRegistry(NewRedditPublisher(), NewTwitterPublisher(), NewYouTubePublisher())
}

func TestNormalizeAliases(t *testing.T) {
	reg := fullRegistry()

	tests := []struct {
		in   string
		want string
	}{
		{"reddit", SlugReddit},
		{"reddit_script", SlugReddit},
		{"Reddit", SlugReddit},
		{"x", SlugTwitter},
		{"twitter", SlugTwitter},
		{"Twitter-X", SlugTwitter},
		{"twitter_x", SlugTwitter},
		{"youtube", SlugYouTube},
		{"YouTube-Shorts", SlugYouTube},
		{"  youtube_shorts  ", SlugYouTube},
	}
	for _, tt := range tests {
		got, err := reg.Normalize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNormalizeUnknownPlatform(t *testing.T) {
	reg := fullRegistry()

	for _, in := range []string{"myspace", "", "tiktok"} {
		_, err := reg.Normalize(in)
		assert.ErrorIs(t, err, ErrUnknownPlatform, in)
	}
}

func TestNormalizeRequiresRegisteredPublisher(t *testing.T) {
	// the alias table alone is not enough, the slug must be registered
	reg := NewRegistry(NewRedditPublisher())
	_, err := reg.Normalize("twitter")
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestResolve(t *testing.T) {
	reg := fullRegistry()

	p, ok := reg.Resolve("x")
	require.True(t, ok)
	assert.Equal(t, SlugTwitter, p.Info().Slug)

	_, ok = reg.Resolve("telegram")
	assert.False(t, ok)
}

func TestListSortedBySlug(t *testing.T) {
	infos := fullRegistry().List()
	require.Len(t, infos, 3)
	assert.Equal(t, SlugReddit, infos[0].Slug)
	assert.Equal(t, SlugTwitter, infos[1].Slug)
	assert.Equal(t, SlugYouTube, infos[2].Slug)
	for _, info := range infos {
		assert.NotEmpty(t, info.DisplayName)
		assert.NotEmpty(t, info.RequiredEnv)
	}
}
