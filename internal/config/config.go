package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"EventsDigest/internal/digest"
)

const (
	defaultTimezone = "Europe/Amsterdam"
	configPathEnv   = "EVENTS_DIGEST_CONFIG"
)

// ErrMissingCredential reports a required secret that is not configured.
var ErrMissingCredential = errors.New("missing credential")

// Config holds high-level settings required across the application.
type Config struct {
	Cities    []CityConfig    `yaml:"cities"`
	Sources   []string        `yaml:"sources"`
	Apify     ApifyConfig     `yaml:"apify"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	LinkedIn  LinkedInConfig  `yaml:"linkedin"`
	Filters   FilterConfig    `yaml:"filters"`
	LLM       LLMConfig       `yaml:"llm"`
	Delays    DelayConfig     `yaml:"delays"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CityConfig is one target city and the chat its digest goes to.
type CityConfig struct {
	Name    string `yaml:"name"`
	Country string `yaml:"country"`
	ChatID  string `yaml:"chatId"`
}

// ApifyConfig describes the scraping platform and both actors.
type ApifyConfig struct {
	Token         string         `yaml:"token"`
	BaseURL       string         `yaml:"baseUrl"`
	MeetupActorID string         `yaml:"meetupActorId"`
	LumaActorID   string         `yaml:"lumaActorId"`
	Timeout       time.Duration  `yaml:"timeout"`
	MeetupInput   map[string]any `yaml:"meetupInput"`
	LumaQuery     string         `yaml:"lumaQuery"`
	LumaMaxItems  int            `yaml:"lumaMaxItems"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken        string        `yaml:"botToken"`
	ChatID          string        `yaml:"chatId"`
	APIURL          string        `yaml:"apiUrl"`
	MessageInterval time.Duration `yaml:"messageInterval"`
}

// OpenAIConfig defines how to contact the chat completion API.
type OpenAIConfig struct {
	APIKey       string `yaml:"apiKey"`
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"baseUrl"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// LinkedInConfig enables the optional social post when token and author are set.
type LinkedInConfig struct {
	AccessToken string `yaml:"accessToken"`
	AuthorURN   string `yaml:"authorUrn"`
	APIVersion  string `yaml:"apiVersion"`
	BaseURL     string `yaml:"baseUrl"`
}

// Enabled reports whether posting is configured.
func (l LinkedInConfig) Enabled() bool {
	return l.AccessToken != "" && l.AuthorURN != ""
}

// FilterConfig holds the selection thresholds.
type FilterConfig struct {
	DaysAhead    int             `yaml:"daysAhead"`
	MinAttendees int             `yaml:"minAttendees"`
	Relevance    RelevanceConfig `yaml:"relevance"`
}

// RelevanceConfig selects the relevance policy and its keyword lists.
type RelevanceConfig struct {
	Policy  string   `yaml:"policy"`
	Strong  []string `yaml:"strong"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// LLMConfig bounds classification requests.
type LLMConfig struct {
	BatchSize            int     `yaml:"batchSize"`
	MaxTokens            int     `yaml:"maxTokens"`
	Temperature          float64 `yaml:"temperature"`
	MaxDescriptionLength int     `yaml:"maxDescriptionLength"`
}

// DelayConfig paces outbound work.
type DelayConfig struct {
	BetweenCities     time.Duration `yaml:"betweenCities"`
	BetweenLLMBatches time.Duration `yaml:"betweenLlmBatches"`
}

// ChunkingConfig holds the per-message length budget.
type ChunkingConfig struct {
	MaxLength int `yaml:"maxLength"`
}

// SchedulerConfig defines when the digest should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	if loc, err := time.LoadLocation(defaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// MetricsConfig enables the /metrics listener in scheduled mode.
type MetricsConfig struct {
	Address string `yaml:"address"`
}

// LoggingConfig sets the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

type envOverrides struct {
	ApifyToken      string `env:"APIFY_API_TOKEN"`
	MeetupActorID   string `env:"MEETUP_ACTOR_ID"`
	LumaActorID     string `env:"LUMA_ACTOR_ID"`
	TelegramToken   string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID  string `env:"TELEGRAM_CHAT_ID"`
	OpenAIKey       string `env:"OPENAI_API_KEY"`
	OpenAIModel     string `env:"OPENAI_MODEL"`
	LinkedInToken   string `env:"LINKEDIN_ACCESS_TOKEN"`
	LinkedInAuthor  string `env:"LINKEDIN_AUTHOR_URN"`
	LinkedInVersion string `env:"LINKEDIN_API_VERSION"`
	LogLevel        string `env:"LOG_LEVEL"`
	Timezone        string `env:"TIMEZONE"`
	MetricsAddress  string `env:"METRICS_ADDRESS"`
	RelevancePolicy string `env:"RELEVANCE_POLICY"`
	DaysAhead       int    `env:"DAYS_AHEAD"`
}

// Load applies defaults, the optional YAML file named by EVENTS_DIGEST_CONFIG,
// then environment overrides.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := cfg.merge(raw); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}
	cfg.bindChats()

	return cfg, nil
}

// merge decodes YAML over the current values; keys absent from the file keep their defaults.
func (c *Config) merge(raw []byte) error {
	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return err
	}
	// Lists replace rather than extend the defaults.
	if file.Cities != nil {
		c.Cities = file.Cities
	}
	if file.Sources != nil {
		c.Sources = file.Sources
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Apify.Token, o.ApifyToken)
	set(&c.Apify.MeetupActorID, o.MeetupActorID)
	set(&c.Apify.LumaActorID, o.LumaActorID)
	set(&c.Telegram.BotToken, o.TelegramToken)
	set(&c.Telegram.ChatID, o.TelegramChatID)
	set(&c.OpenAI.APIKey, o.OpenAIKey)
	set(&c.OpenAI.Model, o.OpenAIModel)
	set(&c.LinkedIn.AccessToken, o.LinkedInToken)
	set(&c.LinkedIn.AuthorURN, o.LinkedInAuthor)
	set(&c.LinkedIn.APIVersion, o.LinkedInVersion)
	set(&c.Logging.Level, o.LogLevel)
	set(&c.Scheduler.Timezone, o.Timezone)
	set(&c.Metrics.Address, o.MetricsAddress)
	set(&c.Filters.Relevance.Policy, o.RelevancePolicy)
	if o.DaysAhead > 0 {
		c.Filters.DaysAhead = o.DaysAhead
	}
	return nil
}

func (c *Config) bindTimezone() error {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("scheduler.timezone %q: %w", tz, err)
	}
	c.Scheduler.Timezone = tz
	c.Scheduler.location = loc
	return nil
}

// bindChats routes cities without their own chat to TELEGRAM_CHAT_ID.
func (c *Config) bindChats() {
	for i := range c.Cities {
		if c.Cities[i].ChatID == "" {
			c.Cities[i].ChatID = c.Telegram.ChatID
		}
	}
}

// Validate enforces the credentials and formats required for a run.
func (c Config) Validate() error {
	var missing []string
	if c.Apify.Token == "" {
		missing = append(missing, "APIFY_API_TOKEN")
	}
	if c.Telegram.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.OpenAI.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredential, strings.Join(missing, ", "))
	}

	if !strings.Contains(c.Telegram.BotToken, ":") {
		return fmt.Errorf("invalid telegram bot token format, expected <bot_id>:<token>")
	}
	if !strings.HasPrefix(c.OpenAI.APIKey, "sk-") {
		return fmt.Errorf("invalid openai api key format")
	}

	if len(c.Cities) == 0 {
		return fmt.Errorf("no cities configured")
	}
	for _, city := range c.Cities {
		if city.Name == "" || city.ChatID == "" {
			return fmt.Errorf("city %q needs a name and a chat id", city.Name)
		}
	}
	if c.Filters.DaysAhead <= 0 {
		return fmt.Errorf("filters.daysAhead must be positive")
	}
	if c.LLM.BatchSize <= 0 {
		return fmt.Errorf("llm.batchSize must be positive")
	}
	if c.Chunking.MaxLength <= 0 || c.Chunking.MaxLength > digest.TelegramLimit {
		return fmt.Errorf("chunking.maxLength must be in 1..%d", digest.TelegramLimit)
	}
	return nil
}

// DefaultMeetupInput is the curated search input for the Meetup actor.
func DefaultMeetupInput() map[string]any {
	return map[string]any{
		"maxResults":                 100,
		"scrapeActualAttendeesCount": true,
		"scrapeEventAddress":         true,
		"scrapeEventDate":            true,
		"scrapeEventDescription":     true,
		"scrapeEventName":            true,
		"scrapeEventType":            true,
		"scrapeEventUrl":             true,
		"scrapeHostedByGroup":        true,
		"scrapeMaxAttendees":         true,
		"eventType":                  "",
		"searchKeyword":              "artificial intelligence, machine learning, AI, deep learning, neural networks, LLM, GPT, ChatGPT, OpenAI, generative AI, AI art, AI tools, AI startup, AI product, data science, computer vision, NLP, prompt engineering",
		"state":                      "PHYSICAL",
	}
}

func defaultConfig() Config {
	return Config{
		Cities: []CityConfig{
			{Name: "amsterdam", Country: "netherlands", ChatID: "-1003036770271"},
		},
		Sources: []string{"meetup", "luma"},
		Apify: ApifyConfig{
			BaseURL:       "https://api.apify.com",
			MeetupActorID: "filip_cicvarek/meetup-scraper",
			LumaActorID:   "lexis-solutions/lu-ma-scraper",
			Timeout:       5 * time.Minute,
			MeetupInput:   DefaultMeetupInput(),
			LumaQuery:     "AI",
			LumaMaxItems:  100,
		},
		Telegram: TelegramConfig{
			APIURL:          "https://api.telegram.org",
			MessageInterval: time.Second,
		},
		OpenAI:   OpenAIConfig{Model: "gpt-4o-mini"},
		LinkedIn: LinkedInConfig{APIVersion: "202412", BaseURL: "https://api.linkedin.com"},
		Filters: FilterConfig{
			DaysAhead:    7,
			MinAttendees: 5,
			Relevance:    RelevanceConfig{Policy: "strong"},
		},
		LLM: LLMConfig{
			BatchSize:            5,
			MaxTokens:            10,
			Temperature:          0,
			MaxDescriptionLength: 500,
		},
		Delays: DelayConfig{
			BetweenCities:     2 * time.Second,
			BetweenLLMBatches: time.Second,
		},
		Chunking:  ChunkingConfig{MaxLength: 3500},
		Scheduler: SchedulerConfig{CronExpression: "0 9 * * *", Timezone: defaultTimezone},
		Logging:   LoggingConfig{Level: "info"},
	}
}
