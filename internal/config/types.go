package config

import "time"

// Config represents the complete codex-relay configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	GitHub   GitHubConfig   `yaml:"github"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Pushover PushoverConfig `yaml:"pushover,omitempty"`
	HTTP     HTTPConfig     `yaml:"http,omitempty"`
	Journal  JournalConfig  `yaml:"journal,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	Listen    string `yaml:"listen"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// GitHubConfig defines the watched repository and credentials.
type GitHubConfig struct {
	// Token authenticates outbound comment creation.
	Token string `yaml:"token"`

	// Repo is the watched repository in "owner/repo" form.
	Repo string `yaml:"repo"`

	// WatchUser is the single login whose issues/comments are processed.
	WatchUser string `yaml:"watch_user"`

	// WebhookSecret is the HMAC secret shared with GitHub.
	WebhookSecret string `yaml:"webhook_secret"`
}

// OpenAIConfig defines the text-generation backend settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// PushoverConfig defines optional push-notification credentials.
// Both keys must be set for notifications to be sent; when absent the
// dispatcher is a logged no-op.
type PushoverConfig struct {
	UserKey  string `yaml:"user_key,omitempty"`
	APIToken string `yaml:"api_token,omitempty"`
}

// HTTPConfig tunes outbound HTTP behaviour.
type HTTPConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	BackoffBase time.Duration `yaml:"backoff_base"`
}

// JournalConfig defines the delivery journal storage. An empty path
// disables the journal.
type JournalConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "codex-relay",
			Listen:    "127.0.0.1:8082",
			LogLevel:  "info",
			LogFormat: "json",
		},
		OpenAI: OpenAIConfig{
			Model:   "gpt-4o-mini",
			BaseURL: "https://api.openai.com/v1",
		},
		HTTP: HTTPConfig{
			Timeout:     5 * time.Second,
			MaxRetries:  3,
			BackoffBase: 500 * time.Millisecond,
		},
		Journal: JournalConfig{
			Path: "./data/deliveries.db",
		},
	}
}
