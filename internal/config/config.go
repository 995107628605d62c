// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Research  ResearchConfig  `mapstructure:"research" yaml:"research"`
	Selectors SelectorsConfig `mapstructure:"selectors" yaml:"selectors"`
	Humanoid  HumanoidConfig  `mapstructure:"humanoid" yaml:"humanoid"`
}

// LoggerConfig controls the zap logger setup.
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

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chrome instance that drives NotebookLM.
// Deep Research runs for minutes, so the browser is launched visible by
// default; the persistent profile dir keeps the Google session alive between
// runs.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	ProfileDir        string         `mapstructure:"profile_dir" yaml:"profile_dir"`
	DataDir           string         `mapstructure:"data_dir" yaml:"data_dir"`
	UserAgent         string         `mapstructure:"user_agent" yaml:"user_agent"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          map[string]int `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	SettleWait        time.Duration  `mapstructure:"settle_wait" yaml:"settle_wait"`
}

// ResearchConfig tunes the completion oracle and the extraction chain.
// The stability thresholds are empirically tuned policy constants, not
// derived values; they are deliberately configurable.
type ResearchConfig struct {
	Timeout             time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval        time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	StableTicks         int           `mapstructure:"stable_ticks" yaml:"stable_ticks"`
	FallbackStableTicks int           `mapstructure:"fallback_stable_ticks" yaml:"fallback_stable_ticks"`
	FallbackMinElapsed  time.Duration `mapstructure:"fallback_min_elapsed" yaml:"fallback_min_elapsed"`
	CandidateWait       time.Duration `mapstructure:"candidate_wait" yaml:"candidate_wait"`
	ClickThroughWait    time.Duration `mapstructure:"click_through_wait" yaml:"click_through_wait"`
	MinChatChars        int           `mapstructure:"min_chat_chars" yaml:"min_chat_chars"`
	MinReportChars      int           `mapstructure:"min_report_chars" yaml:"min_report_chars"`
	MinOpenedChars      int           `mapstructure:"min_opened_chars" yaml:"min_opened_chars"`
	MinSourcesChars     int           `mapstructure:"min_sources_chars" yaml:"min_sources_chars"`
}

// SelectorsConfig carries the candidate descriptor lists for every logical
// UI element this tool touches. Each list is ordered by priority: primary
// shape first, then locale/layout fallbacks. NotebookLM's markup drifts
// between releases, so "the same control" is always a list, never a single
// expression.
type SelectorsConfig struct {
	AddSources    []string `mapstructure:"add_sources" yaml:"add_sources"`
	ModalInput    []string `mapstructure:"modal_input" yaml:"modal_input"`
	Input         []string `mapstructure:"input" yaml:"input"`
	ModeToggle    []string `mapstructure:"mode_toggle" yaml:"mode_toggle"`
	DeepMenuItem  []string `mapstructure:"deep_menu_item" yaml:"deep_menu_item"`
	Submit        []string `mapstructure:"submit" yaml:"submit"`
	Loading       []string `mapstructure:"loading" yaml:"loading"`
	SpinnerProbe  []string `mapstructure:"spinner_probe" yaml:"spinner_probe"`
	SourceItems   []string `mapstructure:"source_items" yaml:"source_items"`
	MarkerHosts   []string `mapstructure:"marker_hosts" yaml:"marker_hosts"`
	MarkerPattern string   `mapstructure:"marker_pattern" yaml:"marker_pattern"`
	Chat          []string `mapstructure:"chat" yaml:"chat"`
	Report        []string `mapstructure:"report" yaml:"report"`
	Opened        []string `mapstructure:"opened" yaml:"opened"`
	SourcesPanel  []string `mapstructure:"sources_panel" yaml:"sources_panel"`
}

// HumanoidConfig tunes the randomized delays wrapped around discrete UI
// actions. The oracle's own poll interval is fixed and never jittered.
type HumanoidConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	KeyDelayMin time.Duration `mapstructure:"key_delay_min" yaml:"key_delay_min"`
	KeyDelayMax time.Duration `mapstructure:"key_delay_max" yaml:"key_delay_max"`
	Seed        int64         `mapstructure:"seed" yaml:"seed"`
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with the static defaults, but fail loud if it does.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Load unmarshals the given viper instance (defaults + file + env + flags)
// into a Config and resolves filesystem paths.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	profile, err := homedir.Expand(cfg.Browser.ProfileDir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand profile dir %q: %w", cfg.Browser.ProfileDir, err)
	}
	cfg.Browser.ProfileDir = profile

	data, err := homedir.Expand(cfg.Browser.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand data dir %q: %w", cfg.Browser.DataDir, err)
	}
	cfg.Browser.DataDir = data

	return &cfg, nil
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "nlm-research")
	v.SetDefault("logger.log_file", "nlm-research.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.profile_dir", "~/.nlm-research/browser_profile")
	v.SetDefault("browser.data_dir", "~/.nlm-research")
	v.SetDefault("browser.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("browser.args", []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		"--no-first-run",
		"--no-default-browser-check",
	})
	v.SetDefault("browser.viewport", map[string]int{"width": 1920, "height": 1080})
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.settle_wait", "4s")

	// -- Research policy --
	v.SetDefault("research.timeout", "600s")
	v.SetDefault("research.poll_interval", "10s")
	v.SetDefault("research.stable_ticks", 5)
	v.SetDefault("research.fallback_stable_ticks", 12)
	v.SetDefault("research.fallback_min_elapsed", "60s")
	v.SetDefault("research.candidate_wait", "10s")
	v.SetDefault("research.click_through_wait", "2500ms")
	v.SetDefault("research.min_chat_chars", 100)
	v.SetDefault("research.min_report_chars", 50)
	v.SetDefault("research.min_opened_chars", 200)
	v.SetDefault("research.min_sources_chars", 50)

	// -- Selectors --
	setSelectorDefaults(v)

	// -- Humanoid timing --
	v.SetDefault("humanoid.enabled", true)
	v.SetDefault("humanoid.key_delay_min", "40ms")
	v.SetDefault("humanoid.key_delay_max", "140ms")
	v.SetDefault("humanoid.seed", 0)
}
