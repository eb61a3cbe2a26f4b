package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrRemuxUnavailable is returned when ffmpeg is not installed.
var ErrRemuxUnavailable = errors.New("ffmpeg not available")

// Remuxer rewrites a finished capture in place with ffmpeg so players can
// seek it and see its duration.
type Remuxer struct {
	ffmpegPath string
	runner     commandRunner
	lookPath   func(string) (string, error)
	rename     func(oldpath, newpath string) error
	remove     func(string) error
	logger     *slog.Logger
}

// NewRemuxer constructs a remuxer using the real ffmpeg.
func NewRemuxer(ffmpegPath string, logger *slog.Logger) *Remuxer {
	return NewRemuxerForTests(ffmpegPath, &execRunner{}, exec.LookPath, logger)
}

// NewRemuxerForTests constructs a remuxer with injectable dependencies.
func NewRemuxerForTests(ffmpegPath string, runner commandRunner, lookPath func(string) (string, error), logger *slog.Logger) *Remuxer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Remuxer{
		ffmpegPath: ffmpegPath,
		runner:     runner,
		lookPath:   lookPath,
		rename:     os.Rename,
		remove:     os.Remove,
		logger:     logger,
	}
}

// Remux copies streams into a fresh container next to path, then replaces
// path. On failure the original file is left untouched.
func (m *Remuxer) Remux(ctx context.Context, path string) error {
	binary, err := m.lookPath(m.ffmpegPath)
	if err != nil {
		return ErrRemuxUnavailable
	}

	tmpPath := remuxTempPath(path)
	args := buildRemuxArgs(path, tmpPath)
	result, runErr := m.runner.Run(ctx, binary, args...)
	log := CommandLog{
		Command:  binary,
		Args:     args,
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}
	if runErr != nil {
		_ = m.remove(tmpPath)
		return &CommandError{Message: "ffmpeg remux failed", CommandLog: log, Err: runErr}
	}

	if err := m.rename(tmpPath, path); err != nil {
		_ = m.remove(tmpPath)
		return fmt.Errorf("replace %s with remuxed file: %w", path, err)
	}
	m.logger.Debug("remux.done", "output", path, "exit", log.ExitCode)
	return nil
}

// remuxTempPath builds <base>.remux<ext> beside path.
func remuxTempPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".remux" + ext
}

// buildRemuxArgs builds a stream-copy remux with the moov atom up front.
func buildRemuxArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-c", "copy",
		"-movflags", "+faststart",
		outPath,
	}
}
