package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds runtime configuration resolved from file, .env and environment.
type Config struct {
	DataDir         string
	RecordingsDir   string
	UsernamesFile   string
	SettingsFile    string
	PollInterval    time.Duration
	ProbeTimeout    time.Duration
	ProbeAttempts   uint
	ProbeRetryDelay time.Duration
	StartupWait     time.Duration
	StopGrace       time.Duration
	LiveURLTemplate string
	Backends        []string
	StreamlinkPath  string
	YtDlpPath       string
	FFmpegPath      string
	Remux           bool
	Log             LogConfig
	SourcePath      string // config file that was read, empty when none
}

// LogConfig controls the rotating log file.
type LogConfig struct {
	File       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Stderr     bool
}

// duration decodes TOML strings like "90s" or "2m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

type fileConfig struct {
	DataDir         string    `toml:"data_dir"`
	RecordingsDir   string    `toml:"recordings_dir"`
	PollInterval    duration  `toml:"poll_interval"`
	ProbeTimeout    duration  `toml:"probe_timeout"`
	ProbeAttempts   uint      `toml:"probe_attempts"`
	ProbeRetryDelay duration  `toml:"probe_retry_delay"`
	StartupWait     *duration `toml:"startup_wait"`
	StopGrace       duration  `toml:"stop_grace"`
	LiveURLTemplate string    `toml:"live_url_template"`
	Backends        []string  `toml:"backends"`
	StreamlinkPath  string    `toml:"streamlink_path"`
	YtDlpPath       string    `toml:"ytdlp_path"`
	FFmpegPath      string    `toml:"ffmpeg_path"`
	Remux           *bool     `toml:"remux"`
	Log             struct {
		File       string `toml:"file"`
		Level      string `toml:"level"`
		MaxSizeMB  int    `toml:"max_size_mb"`
		MaxBackups int    `toml:"max_backups"`
		MaxAgeDays int    `toml:"max_age_days"`
		Stderr     bool   `toml:"stderr"`
	} `toml:"log"`
}

// Default returns configuration rooted at dataDir with no file applied.
func Default(dataDir string) *Config {
	if dataDir == "" {
		dataDir = "."
	}
	return &Config{
		DataDir:         dataDir,
		PollInterval:    DefaultPollInterval,
		ProbeTimeout:    DefaultProbeTimeout,
		ProbeAttempts:   DefaultProbeAttempts,
		ProbeRetryDelay: DefaultProbeRetryDelay,
		StartupWait:     DefaultStartupWait,
		StopGrace:       DefaultStopGrace,
		LiveURLTemplate: DefaultLiveURLTemplate,
		Backends:        append([]string(nil), DefaultBackends...),
		StreamlinkPath:  "streamlink",
		YtDlpPath:       "yt-dlp",
		FFmpegPath:      "ffmpeg",
		Remux:           true,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load resolves configuration. An explicit path must exist; otherwise the
// usual locations are searched and a missing file is not an error.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := Default(".")

	if path == "" {
		path = os.Getenv("LIVEWATCHER_CONFIG")
		if path == "" {
			path = configFilePath()
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}

	if path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.apply(fc)
		cfg.SourcePath = path
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the monitor loop cannot run with.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe_timeout must be positive, got %s", c.ProbeTimeout)
	}
	if c.ProbeAttempts == 0 {
		return fmt.Errorf("probe_attempts must be at least 1")
	}
	if c.StopGrace < 0 || c.StartupWait < 0 {
		return fmt.Errorf("stop_grace and startup_wait must not be negative")
	}
	if !strings.Contains(c.LiveURLTemplate, "{username}") {
		return fmt.Errorf("live_url_template must contain {username}: %q", c.LiveURLTemplate)
	}
	if len(c.Backends) == 0 {
		return fmt.Errorf("at least one capture backend is required")
	}
	for _, name := range c.Backends {
		switch name {
		case "streamlink", "yt-dlp":
		default:
			return fmt.Errorf("unknown capture backend %q", name)
		}
	}
	return nil
}

// LiveURL expands the live URL template for username.
func (c *Config) LiveURL(username string) string {
	return strings.ReplaceAll(c.LiveURLTemplate, "{username}", username)
}

func (c *Config) apply(fc fileConfig) {
	if fc.DataDir != "" {
		c.DataDir = expandTilde(fc.DataDir)
	}
	if fc.RecordingsDir != "" {
		c.RecordingsDir = expandTilde(fc.RecordingsDir)
	}
	if fc.PollInterval.Duration > 0 {
		c.PollInterval = fc.PollInterval.Duration
	}
	if fc.ProbeTimeout.Duration > 0 {
		c.ProbeTimeout = fc.ProbeTimeout.Duration
	}
	if fc.ProbeAttempts > 0 {
		c.ProbeAttempts = fc.ProbeAttempts
	}
	if fc.ProbeRetryDelay.Duration > 0 {
		c.ProbeRetryDelay = fc.ProbeRetryDelay.Duration
	}
	if fc.StartupWait != nil {
		c.StartupWait = fc.StartupWait.Duration
	}
	if fc.StopGrace.Duration > 0 {
		c.StopGrace = fc.StopGrace.Duration
	}
	if fc.LiveURLTemplate != "" {
		c.LiveURLTemplate = fc.LiveURLTemplate
	}
	if len(fc.Backends) > 0 {
		c.Backends = fc.Backends
	}
	if fc.StreamlinkPath != "" {
		c.StreamlinkPath = fc.StreamlinkPath
	}
	if fc.YtDlpPath != "" {
		c.YtDlpPath = fc.YtDlpPath
	}
	if fc.FFmpegPath != "" {
		c.FFmpegPath = fc.FFmpegPath
	}
	if fc.Remux != nil {
		c.Remux = *fc.Remux
	}
	if fc.Log.File != "" {
		c.Log.File = expandTilde(fc.Log.File)
	}
	if fc.Log.Level != "" {
		c.Log.Level = fc.Log.Level
	}
	if fc.Log.MaxSizeMB > 0 {
		c.Log.MaxSizeMB = fc.Log.MaxSizeMB
	}
	if fc.Log.MaxBackups > 0 {
		c.Log.MaxBackups = fc.Log.MaxBackups
	}
	if fc.Log.MaxAgeDays > 0 {
		c.Log.MaxAgeDays = fc.Log.MaxAgeDays
	}
	c.Log.Stderr = fc.Log.Stderr
}

// resolvePaths places relative state paths under DataDir.
func (c *Config) resolvePaths() {
	if c.RecordingsDir == "" {
		c.RecordingsDir = DefaultRecordingsDir
	}
	if c.Log.File == "" {
		c.Log.File = DefaultLogFile
	}
	c.RecordingsDir = underDir(c.DataDir, c.RecordingsDir)
	c.Log.File = underDir(c.DataDir, c.Log.File)
	c.UsernamesFile = filepath.Join(c.DataDir, DefaultUsernamesFile)
	c.SettingsFile = filepath.Join(c.DataDir, DefaultSettingsFile)
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LIVEWATCHER_DATA_DIR"); v != "" {
		cfg.DataDir = expandTilde(v)
	}
	if v := os.Getenv("LIVEWATCHER_RECORDINGS_DIR"); v != "" {
		cfg.RecordingsDir = expandTilde(v)
	}
	if v := os.Getenv("LIVEWATCHER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LIVEWATCHER_LOG_STDERR"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LIVEWATCHER_LOG_STDERR: %w", err)
		}
		cfg.Log.Stderr = enabled
	}
	for key, target := range map[string]*time.Duration{
		"LIVEWATCHER_POLL_INTERVAL": &cfg.PollInterval,
		"LIVEWATCHER_PROBE_TIMEOUT": &cfg.ProbeTimeout,
	} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*target = d
	}
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func configFilePath() string {
	if _, err := os.Stat("live-watcher.toml"); err == nil {
		return "live-watcher.toml"
	}

	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "live-watcher")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "live-watcher")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func underDir(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
