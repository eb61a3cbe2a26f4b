package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"live-watcher/internal/domain"
)

// Backend is one capture tool strategy. The recorder tries backends in order
// and the checker probes with the first one installed.
type Backend interface {
	Name() string
	// Binary is the executable looked up on PATH.
	Binary() string
	// Extension is the output file extension without the dot.
	Extension() string
	RecordArgs(url, outputPath string) []string
	ProbeArgs(url string) []string
	// ClassifyProbe maps a probe run to a status and a short reason.
	ClassifyProbe(result CommandResult, runErr error) (domain.LiveStatus, string)
}

// NewBackends builds backends by name in the given order.
func NewBackends(names []string, streamlinkPath, ytDlpPath string) ([]Backend, error) {
	backends := make([]Backend, 0, len(names))
	for _, name := range names {
		switch name {
		case "streamlink":
			backends = append(backends, &Streamlink{Path: streamlinkPath})
		case "yt-dlp":
			backends = append(backends, &YtDlp{Path: ytDlpPath})
		default:
			return nil, fmt.Errorf("unknown capture backend %q", name)
		}
	}
	return backends, nil
}

// offlineMarkers are lower-cased tool messages meaning the channel is not live.
var offlineMarkers = []string{
	"no playable streams found",
	"not currently live",
	"is not live",
	"is offline",
	"user is offline",
	"no live stream",
}

func mentionsOffline(texts ...string) bool {
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, marker := range offlineMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// Streamlink records HLS/FLV live streams with streamlink.
type Streamlink struct {
	Path string
}

func (s *Streamlink) Name() string      { return "streamlink" }
func (s *Streamlink) Extension() string { return "mp4" }

func (s *Streamlink) Binary() string {
	if s.Path == "" {
		return "streamlink"
	}
	return s.Path
}

func (s *Streamlink) RecordArgs(url, outputPath string) []string {
	return []string{
		"--output", outputPath,
		"--loglevel", "error",
		"--retry-streams", "3",
		"--retry-max", "10",
		"--hls-live-restart",
		url,
		"best",
	}
}

func (s *Streamlink) ProbeArgs(url string) []string {
	return []string{"--json", url}
}

// ClassifyProbe reads streamlink --json output: a streams map means live,
// an error naming missing streams means offline.
func (s *Streamlink) ClassifyProbe(result CommandResult, runErr error) (domain.LiveStatus, string) {
	if isTimeout(runErr) {
		return domain.LiveStatusUnknown, "probe timed out"
	}

	var payload struct {
		Streams map[string]json.RawMessage `json:"streams"`
		Error   string                     `json:"error"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(result.Stdout)), &payload); err != nil {
		if mentionsOffline(result.Stderr) {
			return domain.LiveStatusOffline, lastLine(result.Stderr)
		}
		if runErr != nil {
			return domain.LiveStatusUnknown, fmt.Sprintf("streamlink failed: %v", runErr)
		}
		return domain.LiveStatusUnknown, "malformed streamlink output"
	}

	if len(payload.Streams) > 0 {
		return domain.LiveStatusLive, fmt.Sprintf("%d streams available", len(payload.Streams))
	}
	if mentionsOffline(payload.Error, result.Stderr) {
		return domain.LiveStatusOffline, payload.Error
	}
	if payload.Error != "" {
		return domain.LiveStatusUnknown, payload.Error
	}
	return domain.LiveStatusUnknown, "streamlink reported no streams and no error"
}

// YtDlp records live streams with yt-dlp.
type YtDlp struct {
	Path string
}

func (y *YtDlp) Name() string      { return "yt-dlp" }
func (y *YtDlp) Extension() string { return "mp4" }

func (y *YtDlp) Binary() string {
	if y.Path == "" {
		return "yt-dlp"
	}
	return y.Path
}

func (y *YtDlp) RecordArgs(url, outputPath string) []string {
	return []string{
		"--format", "best[ext=mp4]/best",
		"--output", outputPath,
		"--no-playlist",
		"--no-warnings",
		"--no-part",
		url,
	}
}

func (y *YtDlp) ProbeArgs(url string) []string {
	return []string{"--dump-single-json", "--skip-download", "--no-warnings", url}
}

// ClassifyProbe reads yt-dlp JSON metadata and falls back to stderr markers.
func (y *YtDlp) ClassifyProbe(result CommandResult, runErr error) (domain.LiveStatus, string) {
	if isTimeout(runErr) {
		return domain.LiveStatusUnknown, "probe timed out"
	}
	if runErr != nil {
		if mentionsOffline(result.Stderr) {
			return domain.LiveStatusOffline, lastLine(result.Stderr)
		}
		return domain.LiveStatusUnknown, fmt.Sprintf("yt-dlp failed: %v", runErr)
	}

	var payload struct {
		IsLive     *bool  `json:"is_live"`
		LiveStatus string `json:"live_status"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(result.Stdout)), &payload); err != nil {
		return domain.LiveStatusUnknown, "malformed yt-dlp output"
	}

	switch {
	case payload.IsLive != nil && *payload.IsLive, payload.LiveStatus == "is_live":
		return domain.LiveStatusLive, "yt-dlp reports is_live"
	case payload.IsLive != nil, payload.LiveStatus == "not_live", payload.LiveStatus == "was_live":
		return domain.LiveStatusOffline, "yt-dlp reports not live"
	default:
		return domain.LiveStatusUnknown, "yt-dlp output has no live flag"
	}
}
