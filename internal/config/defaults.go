package config

import (
	"time"

	"live-watcher/internal/domain"
)

const (
	DefaultUsernamesFile   = "usernames.json"
	DefaultSettingsFile    = "settings.json"
	DefaultRecordingsDir   = "Recordings"
	DefaultLogFile         = "live-watcher.log"
	DefaultLiveURLTemplate = "https://www.tiktok.com/@{username}/live"

	DefaultPollInterval    = 60 * time.Second
	DefaultProbeTimeout    = 30 * time.Second
	DefaultProbeAttempts   = 3
	DefaultProbeRetryDelay = time.Second
	DefaultStartupWait     = 3 * time.Second
	DefaultStopGrace       = 5 * time.Second
)

// DefaultBackends is the capture tool preference order.
var DefaultBackends = []string{"streamlink", "yt-dlp"}

// DefaultSettings returns the state used on first launch or after a corrupt read.
func DefaultSettings() domain.Settings {
	return domain.Settings{RecordingEnabled: false}
}

// DefaultTools returns the external tools the watcher depends on, resolved
// against configured binary paths.
func DefaultTools(cfg *Config) []domain.ExternalTool {
	return []domain.ExternalTool{
		{
			ID:          "streamlink",
			Name:        "streamlink",
			Binary:      cfg.StreamlinkPath,
			Role:        domain.ToolRolePrimary,
			InstallHint: "Install with: pipx install streamlink (or pip install streamlink)",
		},
		{
			ID:          "yt-dlp",
			Name:        "yt-dlp",
			Binary:      cfg.YtDlpPath,
			Role:        domain.ToolRoleFallback,
			InstallHint: "Install with: pipx install yt-dlp (or pip install yt-dlp)",
		},
		{
			ID:          "ffmpeg",
			Name:        "ffmpeg",
			Binary:      cfg.FFmpegPath,
			Role:        domain.ToolRoleRemux,
			InstallHint: "Download from https://ffmpeg.org/ or install with your package manager",
		},
	}
}
