package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	goruntime "runtime"
	"strings"
	"time"

	"live-watcher/internal/domain"
)

const installCommandTimeout = 15 * time.Minute

// ErrNotFixable is returned for diagnostic items with no automatic remedy.
var ErrNotFixable = errors.New("no automatic fix available")

type installOption struct {
	manager  string
	commands [][]string
}

// FixResult is the outcome of one attempted remedy.
type FixResult struct {
	ItemID string
	Err    error
}

// Fixer installs missing tools through whichever package manager is present.
type Fixer struct {
	goos     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
	mkdirAll func(string, os.FileMode) error
	logger   *slog.Logger
}

// NewFixer builds a fixer for the current OS.
func NewFixer(logger *slog.Logger) *Fixer {
	return NewFixerForTests(goruntime.GOOS, exec.LookPath, runCommand, os.MkdirAll, logger)
}

// NewFixerForTests creates a fixer with injectable dependencies.
func NewFixerForTests(
	goos string,
	lookPath func(string) (string, error),
	run func(ctx context.Context, name string, args ...string) error,
	mkdirAll func(string, os.FileMode) error,
	logger *slog.Logger,
) *Fixer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fixer{goos: goos, lookPath: lookPath, run: run, mkdirAll: mkdirAll, logger: logger}
}

// FixAll attempts a remedy for every item that did not pass.
func (f *Fixer) FixAll(ctx context.Context, report domain.DiagnosticReport, tools []domain.ExternalTool, recordingsDir string) []FixResult {
	results := make([]FixResult, 0)
	for _, item := range report.Items {
		if item.Status == domain.DiagnosticStatusPass {
			continue
		}
		err := f.Fix(ctx, item.ID, tools, recordingsDir)
		results = append(results, FixResult{ItemID: item.ID, Err: err})
	}
	return results
}

// Fix applies the remedy for one diagnostic item.
func (f *Fixer) Fix(ctx context.Context, itemID string, tools []domain.ExternalTool, recordingsDir string) error {
	if itemID == RecordingsDirID {
		if err := f.mkdirAll(recordingsDir, 0o755); err != nil {
			return fmt.Errorf("create recordings directory %s: %w", recordingsDir, err)
		}
		return nil
	}

	var tool *domain.ExternalTool
	for i := range tools {
		if tools[i].ID == itemID {
			tool = &tools[i]
			break
		}
	}
	if tool == nil {
		return fmt.Errorf("%w for %q", ErrNotFixable, itemID)
	}

	options := f.installOptions(tool.ID)
	if len(options) == 0 {
		return fmt.Errorf("%w for %s on %s", ErrNotFixable, tool.ID, f.goos)
	}

	f.logger.Info("doctor.install", "tool", tool.ID, "os", f.goos)
	if err := f.runFirstSuccessfulInstall(ctx, options); err != nil {
		return fmt.Errorf("install %s: %w", tool.ID, err)
	}
	if _, err := f.lookPath(tool.Binary); err != nil {
		return fmt.Errorf("verify %s on PATH: installed but %s is still not found", tool.ID, tool.Binary)
	}
	return nil
}

// installOptions lists candidate install commands for a tool in preference
// order. Python-distributed tools try pipx and pip before OS packages.
func (f *Fixer) installOptions(toolID string) []installOption {
	switch toolID {
	case "streamlink", "yt-dlp":
		options := pythonToolOptions(toolID)
		return append(options, f.systemOptions(toolID, systemPackages[toolID][f.osFamily()])...)
	case "ffmpeg":
		return f.systemOptions(toolID, systemPackages[toolID][f.osFamily()])
	default:
		return nil
	}
}

// systemPackages maps tool → OS family → package name per manager.
var systemPackages = map[string]map[string]map[string]string{
	"streamlink": {
		"windows": {"winget": "Streamlink.Streamlink", "choco": "streamlink", "scoop": "streamlink"},
		"darwin":  {"brew": "streamlink"},
		"linux":   {"apt-get": "streamlink", "dnf": "streamlink", "pacman": "streamlink", "zypper": "streamlink", "brew": "streamlink"},
	},
	"yt-dlp": {
		"windows": {"winget": "yt-dlp.yt-dlp", "choco": "yt-dlp", "scoop": "yt-dlp"},
		"darwin":  {"brew": "yt-dlp"},
		"linux":   {"apt-get": "yt-dlp", "dnf": "yt-dlp", "pacman": "yt-dlp", "zypper": "yt-dlp", "brew": "yt-dlp"},
	},
	"ffmpeg": {
		"windows": {"winget": "Gyan.FFmpeg", "choco": "ffmpeg", "scoop": "ffmpeg"},
		"darwin":  {"brew": "ffmpeg"},
		"linux":   {"apt-get": "ffmpeg", "dnf": "ffmpeg", "pacman": "ffmpeg", "zypper": "ffmpeg", "brew": "ffmpeg"},
	},
}

var managerOrder = map[string][]string{
	"windows": {"winget", "choco", "scoop"},
	"darwin":  {"brew"},
	"linux":   {"apt-get", "dnf", "pacman", "zypper", "brew"},
}

func (f *Fixer) osFamily() string {
	switch f.goos {
	case "windows", "darwin":
		return f.goos
	default:
		return "linux"
	}
}

func pythonToolOptions(pkg string) []installOption {
	return []installOption{
		{manager: "pipx", commands: [][]string{{"pipx", "install", pkg}}},
		{manager: "pip3", commands: [][]string{{"pip3", "install", "--user", "--upgrade", pkg}}},
		{manager: "pip", commands: [][]string{{"pip", "install", "--user", "--upgrade", pkg}}},
	}
}

func (f *Fixer) systemOptions(toolID string, packages map[string]string) []installOption {
	options := make([]installOption, 0, len(packages))
	for _, manager := range managerOrder[f.osFamily()] {
		pkg, ok := packages[manager]
		if !ok {
			continue
		}
		var commands [][]string
		switch manager {
		case "winget":
			commands = [][]string{{"winget", "install", "--id", pkg, "--exact", "--accept-source-agreements", "--accept-package-agreements"}}
		case "choco":
			commands = [][]string{{"choco", "install", pkg, "-y"}}
		case "scoop", "brew":
			commands = [][]string{{manager, "install", pkg}}
		case "apt-get":
			commands = [][]string{{"apt-get", "update"}, {"apt-get", "install", "-y", pkg}}
		case "dnf", "zypper":
			commands = [][]string{{manager, "install", "-y", pkg}}
		case "pacman":
			commands = [][]string{{"pacman", "-Sy", "--noconfirm", pkg}}
		}
		options = append(options, installOption{manager: manager, commands: commands})
	}
	return options
}

func (f *Fixer) runFirstSuccessfulInstall(ctx context.Context, options []installOption) error {
	errorsByManager := make([]string, 0, len(options))
	atLeastOneManager := false

	for _, option := range options {
		if !f.commandAvailable(option.manager) {
			continue
		}
		atLeastOneManager = true
		err := f.runInstallCommands(ctx, option.commands)
		if err == nil {
			return nil
		}
		f.logger.Warn("doctor.install_failed", "manager", option.manager, "error", err)
		errorsByManager = append(errorsByManager, fmt.Sprintf("%s: %v", option.manager, err))
	}

	if !atLeastOneManager {
		return fmt.Errorf("no supported package manager found for %s", f.goos)
	}
	return errors.New(strings.Join(errorsByManager, " | "))
}

func (f *Fixer) runInstallCommands(ctx context.Context, commands [][]string) error {
	for _, command := range commands {
		if err := f.runWithPossibleElevation(ctx, command); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fixer) runWithPossibleElevation(ctx context.Context, command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}

	candidates := [][]string{command}
	if f.goos == "linux" && requiresElevation(command[0]) {
		if f.commandAvailable("sudo") {
			candidates = append(candidates, append([]string{"sudo", "-n"}, command...))
		}
		if f.commandAvailable("pkexec") {
			candidates = append(candidates, append([]string{"pkexec"}, command...))
		}
	}

	attemptErrors := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		err := f.run(ctx, candidate[0], candidate[1:]...)
		if err == nil {
			return nil
		}
		attemptErrors = append(attemptErrors, err.Error())
	}
	return errors.New(strings.Join(attemptErrors, " | "))
}

func (f *Fixer) commandAvailable(name string) bool {
	_, err := f.lookPath(name)
	return err == nil
}

func requiresElevation(manager string) bool {
	switch manager {
	case "apt-get", "dnf", "pacman", "zypper":
		return true
	default:
		return false
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, installCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", formatCommand(name, args), installCommandTimeout)
	}

	trimmed := strings.TrimSpace(string(output))
	if len(trimmed) > 500 {
		trimmed = trimmed[:500] + "..."
	}
	if trimmed == "" {
		return fmt.Errorf("%s failed: %w", formatCommand(name, args), err)
	}
	return fmt.Errorf("%s failed: %w (%s)", formatCommand(name, args), err, trimmed)
}

func formatCommand(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}
