package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config models claimwork.yml.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
		Env      string `yaml:"env"`
	} `yaml:"server"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		// SkipAuth substitutes TestUserID for the caller identity. Development only.
		SkipAuth   bool   `yaml:"skip_auth"`
		TestUserID string `yaml:"test_user_id"`
	} `yaml:"auth"`
	GitHub GitHubConfig `yaml:"github"`
	Review ReviewConfig `yaml:"review"`
	Log    struct {
		Level     string `yaml:"level"`
		SentryDSN string `yaml:"sentry_dsn"`
		File      string `yaml:"file"`
	} `yaml:"log"`
}

type GitHubConfig struct {
	Token  string `yaml:"token"`
	Domain string `yaml:"domain"`
	Owner  string `yaml:"owner"`
	// WebhookSecret verifies X-Hub-Signature-256. Empty disables verification
	// and is only accepted in development.
	WebhookSecret string `yaml:"webhook_secret"`
	WebhookURL    string `yaml:"webhook_url"`
	DefaultBranch string `yaml:"default_branch"`
	// Skip disables remote branch creation.
	Skip bool `yaml:"skip"`
}

type ReviewConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Secret         string `yaml:"secret"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	DedupeSize     int    `yaml:"dedupe_size"`
}

// Timeout returns the per-job dispatch timeout.
func (r ReviewConfig) Timeout() time.Duration {
	if r.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// Load reads config from the workspace, falling back to defaults when the
// file is absent. The result is not validated; callers overlay overrides and
// then call Validate.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return parse(data)
}

// Validate ensures the config is internally consistent.
func (c *Config) Validate() error {
	switch c.Server.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("config.server.env must be 'development' or 'production', got %q", c.Server.Env)
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	if c.Auth.SkipAuth {
		if c.Server.Env != EnvDevelopment {
			return fmt.Errorf("config.auth.skip_auth is only allowed when server.env is development")
		}
		if strings.TrimSpace(c.Auth.TestUserID) == "" {
			return fmt.Errorf("config.auth.test_user_id is required when skip_auth is set")
		}
	}
	if c.Server.Env == EnvProduction && c.InsecureWebhooks() {
		return fmt.Errorf("config.github.webhook_secret is required when server.env is production")
	}
	if c.GitHub.DefaultBranch == "" {
		return fmt.Errorf("config.github.default_branch is required")
	}
	if c.Review.TimeoutSeconds < 0 {
		return fmt.Errorf("config.review.timeout_seconds must not be negative")
	}
	if c.Review.DedupeSize < 0 {
		return fmt.Errorf("config.review.dedupe_size must not be negative")
	}
	return nil
}

// InsecureWebhooks reports whether inbound webhook signatures go unchecked.
func (c *Config) InsecureWebhooks() bool {
	return strings.TrimSpace(c.GitHub.WebhookSecret) == ""
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "claimwork.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses config over the defaults and validates it.
func FromYAML(data []byte) (*Config, error) {
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	return cfg, nil
}

// overrideKeys maps viper keys (flags / CLAIMWORK_* env) onto config fields.
func (c *Config) overrideKeys() map[string]any {
	return map[string]any{
		"server.addr":            &c.Server.Addr,
		"server.base_path":       &c.Server.BasePath,
		"server.env":             &c.Server.Env,
		"auth.jwt_secret":        &c.Auth.JWTSecret,
		"auth.skip_auth":         &c.Auth.SkipAuth,
		"auth.test_user_id":      &c.Auth.TestUserID,
		"github.token":           &c.GitHub.Token,
		"github.domain":          &c.GitHub.Domain,
		"github.owner":           &c.GitHub.Owner,
		"github.webhook_secret":  &c.GitHub.WebhookSecret,
		"github.webhook_url":     &c.GitHub.WebhookURL,
		"github.default_branch":  &c.GitHub.DefaultBranch,
		"github.skip":            &c.GitHub.Skip,
		"review.endpoint":        &c.Review.Endpoint,
		"review.secret":          &c.Review.Secret,
		"review.timeout_seconds": &c.Review.TimeoutSeconds,
		"review.dedupe_size":     &c.Review.DedupeSize,
		"log.level":              &c.Log.Level,
		"log.sentry_dsn":         &c.Log.SentryDSN,
		"log.file":               &c.Log.File,
	}
}

// BindEnv registers every config key with v so CLAIMWORK_GITHUB_TOKEN and
// friends are picked up by ApplyOverrides.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CLAIMWORK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key := range (&Config{}).overrideKeys() {
		_ = v.BindEnv(key)
	}
}

// ApplyOverrides copies every key set in v onto c and re-validates.
func (c *Config) ApplyOverrides(v *viper.Viper) error {
	for key, dst := range c.overrideKeys() {
		if !v.IsSet(key) {
			continue
		}
		switch p := dst.(type) {
		case *string:
			*p = v.GetString(key)
		case *bool:
			*p = v.GetBool(key)
		case *int:
			*p = v.GetInt(key)
		}
	}
	return c.Validate()
}

// Resolve loads the workspace config and overlays viper-provided values.
func Resolve(workspace string, v *viper.Viper) (*Config, error) {
	cfg, err := Load(workspace)
	if err != nil {
		return nil, err
	}
	if v == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err := cfg.ApplyOverrides(v); err != nil {
		return nil, err
	}
	return cfg, nil
}

const defaultTemplate = `server:
  addr: 127.0.0.1:8080
  base_path: /v0
  env: production

auth:
  jwt_secret: ""
  skip_auth: false
  test_user_id: ""

github:
  token: ""
  domain: github.com
  owner: ""
  webhook_secret: ""
  webhook_url: ""
  default_branch: main
  skip: false

review:
  endpoint: ""
  secret: ""
  timeout_seconds: 10
  dedupe_size: 512

log:
  level: info
  sentry_dsn: ""
  file: ""
`
