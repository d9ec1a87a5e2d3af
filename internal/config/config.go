// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Navigator NavigatorConfig `mapstructure:"navigator" yaml:"navigator"`
	Agent     AgentConfig     `mapstructure:"agent" yaml:"agent"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names the terminal color used for each log level.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// ViewportConfig is the emulated window size of the browser tab.
type ViewportConfig struct {
	Width             int     `mapstructure:"width" yaml:"width"`
	Height            int     `mapstructure:"height" yaml:"height"`
	DeviceScaleFactor float64 `mapstructure:"device_scale_factor" yaml:"device_scale_factor"`
}

// BrowserConfig holds settings for the headless browser instance.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Stealth           bool           `mapstructure:"stealth" yaml:"stealth"`
	Debug             bool           `mapstructure:"debug" yaml:"debug"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	LaunchTimeout     time.Duration  `mapstructure:"launch_timeout" yaml:"launch_timeout"`
}

// NavigatorConfig tunes the labeling, snapshot and load-wait behavior of the
// navigation loop.
type NavigatorConfig struct {
	LoadTimeout     time.Duration `mapstructure:"load_timeout" yaml:"load_timeout"`
	ClickTimeout    time.Duration `mapstructure:"click_timeout" yaml:"click_timeout"`
	SnapshotPath    string        `mapstructure:"snapshot_path" yaml:"snapshot_path"`
	SnapshotQuality int           `mapstructure:"snapshot_quality" yaml:"snapshot_quality"`
	MinElementSize  float64       `mapstructure:"min_element_size" yaml:"min_element_size"`
	LabelWorkers    int           `mapstructure:"label_workers" yaml:"label_workers"`
	ExitWords       []string      `mapstructure:"exit_words" yaml:"exit_words"`
}

// AgentConfig holds settings related to the model driving the browser.
type AgentConfig struct {
	LLM LLMModelConfig `mapstructure:"llm" yaml:"llm"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderGemini LLMProvider = "gemini"
)

// DefaultModel returns the vision model used for p when none is configured.
func DefaultModel(p LLMProvider) string {
	switch p {
	case ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return "gpt-4o"
	}
}

// LLMModelConfig defines the configuration for the vision model.
type LLMModelConfig struct {
	Provider          LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"-"`
	Endpoint          string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout        time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature       float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	RetryMaxElapsed   time.Duration `mapstructure:"retry_max_elapsed" yaml:"retry_max_elapsed"`
	RequestsPerMinute float64       `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "visioncrawl")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.stealth", true)
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.viewport.width", 1200)
	v.SetDefault("browser.viewport.height", 1200)
	v.SetDefault("browser.viewport.device_scale_factor", 1.75)
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.launch_timeout", "30s")

	// -- Navigator --
	v.SetDefault("navigator.load_timeout", "8s")
	v.SetDefault("navigator.click_timeout", "10s")
	v.SetDefault("navigator.snapshot_path", "screenshot.jpg")
	v.SetDefault("navigator.snapshot_quality", 100)
	v.SetDefault("navigator.min_element_size", 5.0)
	v.SetDefault("navigator.label_workers", 8)
	v.SetDefault("navigator.exit_words", []string{"quit", "exit", "bye"})

	// -- Agent --
	v.SetDefault("agent.llm.provider", string(ProviderOpenAI))
	v.SetDefault("agent.llm.model", DefaultModel(ProviderOpenAI))
	v.SetDefault("agent.llm.api_timeout", "2m")
	v.SetDefault("agent.llm.temperature", 0.0)
	v.SetDefault("agent.llm.max_tokens", 1024)
	v.SetDefault("agent.llm.retry_max_elapsed", "2m")
	v.SetDefault("agent.llm.requests_per_minute", 0.0)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind the provider-neutral key variable explicitly; it is sensitive and
	// not expected in the config file.
	_ = v.BindEnv("agent.llm.api_key", "VISIONCRAWL_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Fall back to the provider SDKs' conventional variables.
	if cfg.Agent.LLM.APIKey == "" {
		cfg.Agent.LLM.APIKey = providerAPIKey(cfg.Agent.LLM.Provider)
	}

	path, err := homedir.Expand(cfg.Navigator.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("invalid navigator.snapshot_path: %w", err)
	}
	cfg.Navigator.SnapshotPath = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func providerAPIKey(p LLMProvider) string {
	switch p {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderGemini:
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	}
	return ""
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.Navigator.Validate(); err != nil {
		return fmt.Errorf("navigator configuration invalid: %w", err)
	}
	if err := c.Agent.LLM.Validate(); err != nil {
		return fmt.Errorf("agent.llm configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the browser settings.
func (b *BrowserConfig) Validate() error {
	if b.Viewport.Width <= 0 || b.Viewport.Height <= 0 {
		return fmt.Errorf("viewport width and height must be positive integers")
	}
	if b.Viewport.DeviceScaleFactor <= 0 {
		return fmt.Errorf("viewport.device_scale_factor must be positive")
	}
	if b.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation_timeout must be a positive duration")
	}
	return nil
}

// Validate checks the navigator settings.
func (n *NavigatorConfig) Validate() error {
	if n.LoadTimeout <= 0 {
		return fmt.Errorf("load_timeout must be a positive duration")
	}
	if n.ClickTimeout <= 0 {
		return fmt.Errorf("click_timeout must be a positive duration")
	}
	if n.SnapshotPath == "" {
		return fmt.Errorf("snapshot_path is required")
	}
	if n.SnapshotQuality < 1 || n.SnapshotQuality > 100 {
		return fmt.Errorf("snapshot_quality must be between 1 and 100")
	}
	if n.MinElementSize < 0 {
		return fmt.Errorf("min_element_size must not be negative")
	}
	if n.LabelWorkers <= 0 {
		return fmt.Errorf("label_workers must be a positive integer")
	}
	return nil
}

// Validate checks the model settings. The API key is checked by the client
// factory, so a config without one still validates.
func (l *LLMModelConfig) Validate() error {
	switch l.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported provider %q", l.Provider)
	}
	if l.Model == "" {
		return fmt.Errorf("model is required")
	}
	if l.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be a positive integer")
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0.0 and 2.0")
	}
	if l.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must not be negative")
	}
	return nil
}
