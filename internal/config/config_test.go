package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, "APIFY_API_TOKEN", "MEETUP_ACTOR_ID", "LUMA_ACTOR_ID",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "OPENAI_API_KEY", "OPENAI_MODEL",
		"LINKEDIN_ACCESS_TOKEN", "LINKEDIN_AUTHOR_URN", "LINKEDIN_API_VERSION",
		"LOG_LEVEL", "TIMEZONE", "METRICS_ADDRESS", "RELEVANCE_POLICY", "DAYS_AHEAD",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Filters.DaysAhead)
	assert.Equal(t, 5, cfg.Filters.MinAttendees)
	assert.Equal(t, "strong", cfg.Filters.Relevance.Policy)
	assert.Equal(t, 5, cfg.LLM.BatchSize)
	assert.Equal(t, 10, cfg.LLM.MaxTokens)
	assert.Equal(t, 500, cfg.LLM.MaxDescriptionLength)
	assert.Equal(t, 3500, cfg.Chunking.MaxLength)
	assert.Equal(t, 2*time.Second, cfg.Delays.BetweenCities)
	assert.Equal(t, "0 9 * * *", cfg.Scheduler.CronExpression)
	assert.Equal(t, "Europe/Amsterdam", cfg.Scheduler.Location().String())
	assert.Equal(t, []string{"meetup", "luma"}, cfg.Sources)
	require.Len(t, cfg.Cities, 1)
	assert.Equal(t, "amsterdam", cfg.Cities[0].Name)
	assert.False(t, cfg.LinkedIn.Enabled())
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cities:
  - name: berlin
    country: germany
filters:
  daysAhead: 14
delays:
  betweenCities: 500ms
apify:
  meetupInput:
    maxResults: 20
scheduler:
  timezone: Europe/Berlin
`), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv("TELEGRAM_CHAT_ID", "-42")
	t.Setenv("OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("TIMEZONE", "Europe/Paris")

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Cities, 1)
	assert.Equal(t, "berlin", cfg.Cities[0].Name)
	assert.Equal(t, "-42", cfg.Cities[0].ChatID, "city without chat falls back to TELEGRAM_CHAT_ID")
	assert.Equal(t, 14, cfg.Filters.DaysAhead)
	assert.Equal(t, 5, cfg.Filters.MinAttendees, "unset keys keep defaults")
	assert.Equal(t, 500*time.Millisecond, cfg.Delays.BetweenCities)
	assert.Equal(t, 20, cfg.Apify.MeetupInput["maxResults"])
	assert.Equal(t, "PHYSICAL", cfg.Apify.MeetupInput["state"])
	assert.Equal(t, "gpt-4.1-mini", cfg.OpenAI.Model)
	assert.Equal(t, "Europe/Paris", cfg.Scheduler.Location().String())
}

func TestLoadUnknownTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEZONE", "Europe/Amsterdm")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Europe/Amsterdm")
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := defaultConfig()
	valid.Apify.Token = "apify_api_x"
	valid.Telegram.BotToken = "123:abc"
	valid.OpenAI.APIKey = "sk-test"
	require.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		missing bool
	}{
		{name: "no apify token", mutate: func(c *Config) { c.Apify.Token = "" }, missing: true},
		{name: "no telegram token", mutate: func(c *Config) { c.Telegram.BotToken = "" }, missing: true},
		{name: "no openai key", mutate: func(c *Config) { c.OpenAI.APIKey = "" }, missing: true},
		{name: "telegram token without colon", mutate: func(c *Config) { c.Telegram.BotToken = "123abc" }},
		{name: "openai key without prefix", mutate: func(c *Config) { c.OpenAI.APIKey = "key-123" }},
		{name: "no cities", mutate: func(c *Config) { c.Cities = nil }},
		{name: "city without chat", mutate: func(c *Config) { c.Cities = []CityConfig{{Name: "berlin"}} }},
		{name: "zero days", mutate: func(c *Config) { c.Filters.DaysAhead = 0 }},
		{name: "chunks above bot api limit", mutate: func(c *Config) { c.Chunking.MaxLength = 5000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			cfg.Cities = append([]CityConfig(nil), valid.Cities...)
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.missing, errors.Is(err, ErrMissingCredential))
		})
	}
}
