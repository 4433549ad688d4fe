package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRequiresWebhookSecret(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "/v0", cfg.Server.BasePath)
	assert.Equal(t, EnvProduction, cfg.Server.Env)
	assert.Equal(t, "main", cfg.GitHub.DefaultBranch)
	assert.True(t, cfg.InsecureWebhooks())
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook_secret")

	cfg.GitHub.WebhookSecret = "s3cret"
	require.NoError(t, cfg.Validate())
}

func TestEmptyWebhookSecretOnlyInDevelopment(t *testing.T) {
	_, err := FromYAML([]byte("server:\n  env: production\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook_secret")

	cfg, err := FromYAML([]byte("server:\n  env: development\n"))
	require.NoError(t, err)
	assert.True(t, cfg.InsecureWebhooks())

	v := viper.New()
	v.Set("github.webhook_secret", "")
	v.Set("server.env", EnvProduction)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte("server:\n  env: development\n"), 0o600))
	_, err = Resolve(dir, v)
	require.Error(t, err)
}

func TestWebhookSecretFromEnvSatisfiesProductionFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte("server:\n  env: production\n"), 0o600))
	_, err := Resolve(dir, nil)
	require.Error(t, err)

	t.Setenv("CLAIMWORK_GITHUB_WEBHOOK_SECRET", "hook-secret")
	v := viper.New()
	BindEnv(v)
	cfg, err := Resolve(dir, v)
	require.NoError(t, err)
	assert.Equal(t, "hook-secret", cfg.GitHub.WebhookSecret)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	data := []byte("github:\n  webhook_secret: s3cret\n  default_branch: develop\nreview:\n  timeout_seconds: 3\n")
	require.NoError(t, os.WriteFile(Path(dir), data, 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "develop", cfg.GitHub.DefaultBranch)
	assert.False(t, cfg.InsecureWebhooks())
	assert.Equal(t, "3s", cfg.Review.Timeout().String())
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
}

func TestSkipAuthRequiresDevelopment(t *testing.T) {
	_, err := FromYAML([]byte("auth:\n  skip_auth: true\n  test_user_id: u1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skip_auth")

	cfg, err := FromYAML([]byte("server:\n  env: development\nauth:\n  skip_auth: true\n  test_user_id: u1\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Auth.SkipAuth)

	_, err = FromYAML([]byte("server:\n  env: development\nauth:\n  skip_auth: true\n"))
	require.Error(t, err)
}

func TestFromYAMLRejectsGarbage(t *testing.T) {
	_, err := FromYAML([]byte("server: [unterminated"))
	require.Error(t, err)
}

func TestResolveAppliesEnvOverrides(t *testing.T) {
	t.Setenv("CLAIMWORK_GITHUB_TOKEN", "ghp_test")
	t.Setenv("CLAIMWORK_GITHUB_WEBHOOK_SECRET", "hook-secret")
	t.Setenv("CLAIMWORK_GITHUB_SKIP", "true")
	t.Setenv("CLAIMWORK_REVIEW_DEDUPE_SIZE", "64")

	v := viper.New()
	BindEnv(v)
	cfg, err := Resolve(t.TempDir(), v)
	require.NoError(t, err)
	assert.Equal(t, "ghp_test", cfg.GitHub.Token)
	assert.False(t, cfg.InsecureWebhooks())
	assert.True(t, cfg.GitHub.Skip)
	assert.Equal(t, 64, cfg.Review.DedupeSize)
}

func TestResolveRevalidatesOverrides(t *testing.T) {
	v := viper.New()
	v.Set("server.env", "staging")
	_, err := Resolve(t.TempDir(), v)
	require.Error(t, err)
}

func TestReviewTimeoutDefault(t *testing.T) {
	assert.Equal(t, "10s", ReviewConfig{}.Timeout().String())
}
