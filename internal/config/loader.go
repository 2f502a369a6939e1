package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file. Secret values may be
// written as ${ENV_VAR} references; they are expanded before parsing so
// credentials never need to live in the file itself.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if info.IsDir() {
		// Directory provided - look for config.yaml inside
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(expandEnv(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", absPath, err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// expandEnv replaces ${VAR} references with environment values. Unset
// variables expand to the empty string and are caught by validate.
func expandEnv(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// DiscoverConfigPath finds the config file by checking standard locations.
// Priority order: $CODEX_RELAY_CONFIG, ~/.config/codex-relay/config.yaml,
// /etc/codex-relay/config.yaml, ./config.yaml
func DiscoverConfigPath() (string, error) {
	if path := os.Getenv("CODEX_RELAY_CONFIG"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfig := filepath.Join(homeDir, ".config", "codex-relay", "config.yaml")
		if _, err := os.Stat(userConfig); err == nil {
			return userConfig, nil
		}
	}

	systemConfig := "/etc/codex-relay/config.yaml"
	if _, err := os.Stat(systemConfig); err == nil {
		return systemConfig, nil
	}

	legacyConfig := "./config.yaml"
	if _, err := os.Stat(legacyConfig); err == nil {
		return legacyConfig, nil
	}

	return "", fmt.Errorf("no config found (checked: $CODEX_RELAY_CONFIG, ~/.config/codex-relay, /etc/codex-relay, ./config.yaml)")
}

// validate checks that every required value is present. Missing
// credentials are fatal at startup, never a runtime surprise.
func validate(cfg *Config) error {
	var missing []string
	if cfg.GitHub.WebhookSecret == "" {
		missing = append(missing, "github.webhook_secret")
	}
	if cfg.GitHub.Token == "" {
		missing = append(missing, "github.token")
	}
	if cfg.GitHub.Repo == "" {
		missing = append(missing, "github.repo")
	}
	if cfg.GitHub.WatchUser == "" {
		missing = append(missing, "github.watch_user")
	}
	if cfg.OpenAI.APIKey == "" {
		missing = append(missing, "openai.api_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required configuration missing: %s", strings.Join(missing, ", "))
	}

	if parts := strings.Split(cfg.GitHub.Repo, "/"); len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("github.repo must be in owner/repo form, got %q", cfg.GitHub.Repo)
	}

	if cfg.Service.Listen == "" {
		return fmt.Errorf("service.listen is empty")
	}

	if cfg.HTTP.MaxRetries < 1 {
		return fmt.Errorf("http.max_retries must be >= 1, got %d", cfg.HTTP.MaxRetries)
	}
	if cfg.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %s", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.BackoffBase < 0 {
		return fmt.Errorf("http.backoff_base must not be negative, got %s", cfg.HTTP.BackoffBase)
	}

	// Pushover is optional but half a credential pair is a config mistake.
	if (cfg.Pushover.UserKey == "") != (cfg.Pushover.APIToken == "") {
		return fmt.Errorf("pushover requires both user_key and api_token (or neither)")
	}

	return nil
}
