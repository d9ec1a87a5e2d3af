// File: internal/config/config_test.go
package config

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "visioncrawl", cfg.Logger.ServiceName)
	assert.True(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.Stealth)
	assert.Equal(t, 1200, cfg.Browser.Viewport.Width)
	assert.Equal(t, 1200, cfg.Browser.Viewport.Height)
	assert.Equal(t, 1.75, cfg.Browser.Viewport.DeviceScaleFactor)
	assert.Equal(t, 8*time.Second, cfg.Navigator.LoadTimeout)
	assert.Equal(t, "screenshot.jpg", cfg.Navigator.SnapshotPath)
	assert.Equal(t, 100, cfg.Navigator.SnapshotQuality)
	assert.Equal(t, 5.0, cfg.Navigator.MinElementSize)
	assert.Equal(t, []string{"quit", "exit", "bye"}, cfg.Navigator.ExitWords)
	assert.Equal(t, ProviderOpenAI, cfg.Agent.LLM.Provider)
	assert.Equal(t, 1024, cfg.Agent.LLM.MaxTokens)
	assert.Equal(t, 2*time.Minute, cfg.Agent.LLM.RetryMaxElapsed)

	assert.NoError(t, cfg.Validate(), "defaults must validate")
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"zero viewport", func(c *Config) { c.Browser.Viewport.Width = 0 }, "viewport width and height must be positive"},
		{"zero scale", func(c *Config) { c.Browser.Viewport.DeviceScaleFactor = 0 }, "device_scale_factor must be positive"},
		{"zero navigation timeout", func(c *Config) { c.Browser.NavigationTimeout = 0 }, "navigation_timeout"},
		{"zero load timeout", func(c *Config) { c.Navigator.LoadTimeout = 0 }, "load_timeout"},
		{"zero click timeout", func(c *Config) { c.Navigator.ClickTimeout = 0 }, "click_timeout"},
		{"empty snapshot path", func(c *Config) { c.Navigator.SnapshotPath = "" }, "snapshot_path is required"},
		{"quality too high", func(c *Config) { c.Navigator.SnapshotQuality = 101 }, "snapshot_quality"},
		{"quality zero", func(c *Config) { c.Navigator.SnapshotQuality = 0 }, "snapshot_quality"},
		{"negative min size", func(c *Config) { c.Navigator.MinElementSize = -1 }, "min_element_size"},
		{"no workers", func(c *Config) { c.Navigator.LabelWorkers = 0 }, "label_workers"},
		{"unknown provider", func(c *Config) { c.Agent.LLM.Provider = "anthropic" }, `unsupported provider "anthropic"`},
		{"empty model", func(c *Config) { c.Agent.LLM.Model = "" }, "model is required"},
		{"no max tokens", func(c *Config) { c.Agent.LLM.MaxTokens = 0 }, "max_tokens"},
		{"temperature", func(c *Config) { c.Agent.LLM.Temperature = 2.5 }, "temperature"},
		{"negative rate", func(c *Config) { c.Agent.LLM.RequestsPerMinute = -3 }, "requests_per_minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// -- Loading Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("YAML overrides defaults", func(t *testing.T) {
		yamlInput := `
logger:
  level: debug
browser:
  headless: false
  viewport:
    width: 800
navigator:
  load_timeout: 3s
  snapshot_path: /tmp/shot.jpg
agent:
  llm:
    provider: gemini
    model: gemini-2.5-pro
`
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBufferString(yamlInput)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.Logger.Level)
		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, 800, cfg.Browser.Viewport.Width)
		assert.Equal(t, 1200, cfg.Browser.Viewport.Height, "unset keys keep their default")
		assert.Equal(t, 3*time.Second, cfg.Navigator.LoadTimeout)
		assert.Equal(t, "/tmp/shot.jpg", cfg.Navigator.SnapshotPath)
		assert.Equal(t, ProviderGemini, cfg.Agent.LLM.Provider)
		assert.Equal(t, "gemini-2.5-pro", cfg.Agent.LLM.Model)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("navigator.snapshot_quality", 0)

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("Explicit API key variable", func(t *testing.T) {
		t.Setenv("VISIONCRAWL_API_KEY", "explicit-key")
		t.Setenv("OPENAI_API_KEY", "sdk-key")
		v := viper.New()
		SetDefaults(v)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "explicit-key", cfg.Agent.LLM.APIKey)
	})

	t.Run("Provider key fallback", func(t *testing.T) {
		t.Setenv("VISIONCRAWL_API_KEY", "")
		t.Setenv("GEMINI_API_KEY", "gemini-key")
		v := viper.New()
		SetDefaults(v)
		v.Set("agent.llm.provider", "gemini")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "gemini-key", cfg.Agent.LLM.APIKey)
	})

	t.Run("Home directory expansion", func(t *testing.T) {
		home, err := homedir.Dir()
		if err != nil {
			t.Skip("no home directory available")
		}
		v := viper.New()
		SetDefaults(v)
		v.Set("navigator.snapshot_path", "~/visioncrawl/shot.jpg")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "visioncrawl", "shot.jpg"), cfg.Navigator.SnapshotPath)
	})
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, "gpt-4o", DefaultModel(ProviderOpenAI))
	assert.Equal(t, "gemini-2.5-flash", DefaultModel(ProviderGemini))
	assert.Equal(t, "gpt-4o", DefaultModel(""))
}
