package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Token:      "ghp_test123",
		Repository: "owner/repo",
		Branch:     "main",
		Interval:   10 * time.Second,
		Timeout:    time.Hour,
	}
}

func TestValidate_Success(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing token", func(c *Config) { c.Token = "" }, "token is required"},
		{"missing repository", func(c *Config) { c.Repository = "" }, "repository is required"},
		{"malformed repository", func(c *Config) { c.Repository = "just-a-name" }, "owner/repo"},
		{"missing branch", func(c *Config) { c.Branch = "" }, "branch is required"},
		{"zero interval", func(c *Config) { c.Interval = 0 }, "interval must be positive"},
		{"negative interval", func(c *Config) { c.Interval = -time.Second }, "interval must be positive"},
		{"timeout below interval", func(c *Config) { c.Timeout = 5 * time.Second }, "at least the interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestApplyEnv_TokenFallback(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_fromenv")
	t.Setenv("GITHUB_STEP_SUMMARY", "/tmp/summary.md")

	cfg := &Config{}
	cfg.ApplyEnv()

	assert.Equal(t, "ghp_fromenv", cfg.Token)
	assert.Equal(t, "/tmp/summary.md", cfg.StepSummaryPath)
}

func TestApplyEnv_FlagWins(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_fromenv")

	cfg := &Config{Token: "ghp_fromflag"}
	cfg.ApplyEnv()

	assert.Equal(t, "ghp_fromflag", cfg.Token)
}

func TestIgnoreSet_AlwaysIncludesOwnJob(t *testing.T) {
	cfg := validConfig()
	cfg.JobName = "enforce-all-checks"
	cfg.Ignore = []string{"label", "CodeQL"}

	set := cfg.IgnoreSet()

	assert.True(t, set["enforce-all-checks"])
	assert.True(t, set["label"])
	assert.True(t, set["CodeQL"])
	assert.False(t, set["build"])
}

func TestIgnoreSet_NoJobName(t *testing.T) {
	cfg := validConfig()

	assert.Empty(t, cfg.IgnoreSet())
}

func TestSplitNames(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"label", []string{"label"}},
		{"label, CodeQL, bridgecrew", []string{"label", "CodeQL", "bridgecrew"}},
		{"label CodeQL", []string{"label", "CodeQL"}},
		{" ,, label ,", []string{"label"}},
	}

	for _, tt := range tests {
		got := SplitNames(tt.raw)
		if tt.want == nil {
			assert.Empty(t, got, "raw=%q", tt.raw)
			continue
		}
		assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
	}
}
