package diagnostics

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"live-watcher/internal/domain"
)

// RecordingsDirID is the diagnostic item ID of the output directory check.
const RecordingsDirID = "recordings_dir"

// Checker validates external tools and the recordings directory.
type Checker struct {
	lookPath   func(string) (string, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
	now        func() time.Time
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return NewCheckerForTests(exec.LookPath, os.MkdirAll, os.CreateTemp, os.Remove)
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
		now:        time.Now,
	}
}

// Run checks every tool and the recordings directory. A missing fallback or
// remux tool only warns; the report fails when no capture tool is usable.
func (c *Checker) Run(tools []domain.ExternalTool, recordingsDir string) domain.DiagnosticReport {
	items := make([]domain.DiagnosticItem, 0, len(tools)+1)
	captureFound := false
	captureIdx := make([]int, 0, len(tools))

	for _, tool := range tools {
		item, found := c.checkTool(tool)
		if tool.Role != domain.ToolRoleRemux {
			captureIdx = append(captureIdx, len(items))
			captureFound = captureFound || found
		}
		items = append(items, item)
	}

	if !captureFound {
		for _, idx := range captureIdx {
			items[idx].Status = domain.DiagnosticStatusFail
			items[idx].Message += " (no capture tool is installed, recording is impossible)"
		}
	}

	items = append(items, c.checkRecordingsDir(recordingsDir))

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: c.now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies one CLI executable is on PATH.
func (c *Checker) checkTool(tool domain.ExternalTool) (domain.DiagnosticItem, bool) {
	path, err := c.lookPath(tool.Binary)
	if err != nil {
		return domain.DiagnosticItem{
			ID:      tool.ID,
			Name:    tool.Name,
			Status:  domain.DiagnosticStatusWarn,
			Message: fmt.Sprintf("%s not found in PATH (%s)", tool.Binary, roleDescription(tool.Role)),
			Hint:    tool.InstallHint,
		}, false
	}

	return domain.DiagnosticItem{
		ID:      tool.ID,
		Name:    tool.Name,
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}, true
}

func roleDescription(role domain.ToolRole) string {
	switch role {
	case domain.ToolRolePrimary:
		return "primary capture tool"
	case domain.ToolRoleFallback:
		return "fallback capture tool"
	case domain.ToolRoleRemux:
		return "used to fix recordings after capture"
	default:
		return string(role)
	}
}

// checkRecordingsDir validates output directory existence and write access.
func (c *Checker) checkRecordingsDir(dir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   RecordingsDirID,
		Name: "Recordings directory",
	}

	if strings.TrimSpace(dir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Recordings directory is empty."
		item.Hint = "Set recordings_dir in the config file."
		return item
	}

	if err := c.mkdirAll(dir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create recordings directory: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Recordings directory is not writable: %s", dir)
		item.Hint = "Choose a writable directory for captures."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}
