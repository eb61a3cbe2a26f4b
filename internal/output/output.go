package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"live-watcher/internal/diagnostics"
	"live-watcher/internal/domain"
	"live-watcher/internal/monitor"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
)

type Formatter struct {
	w     io.Writer
	color bool
}

// NewFormatter writes to w. Colors are used only when w is a terminal.
func NewFormatter(w io.Writer) *Formatter {
	if file, ok := w.(*os.File); ok && isTerminal(file.Fd()) {
		return &Formatter{w: colorable.NewColorable(file), color: true}
	}
	return &Formatter{w: w}
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (f *Formatter) paint(code, s string) string {
	if !f.color {
		return s
	}
	return code + s + ansiReset
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", f.paint(ansiRed, msg))
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", f.paint(ansiGreen, msg))
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", f.paint(ansiYellow, msg))
}

func (f *Formatter) Prompt(msg string) {
	fmt.Fprintf(f.w, "%s", msg)
}

func (f *Formatter) MenuHeader(recordingEnabled bool, watched int) {
	fmt.Fprintf(f.w, "\n%s\n", f.paint(ansiBold, "TikTok Live Watcher"))
	fmt.Fprintf(f.w, "%s\n", f.paint(ansiDim, fmt.Sprintf("watching %d account(s), recording %s", watched, onOff(recordingEnabled))))
}

func (f *Formatter) MenuOptions(recordingEnabled bool) {
	fmt.Fprintf(f.w, "  1. Add username\n")
	fmt.Fprintf(f.w, "  2. Remove username\n")
	fmt.Fprintf(f.w, "  3. Select username and monitor\n")
	fmt.Fprintf(f.w, "  4. Toggle recording (currently: %s)\n", onOff(recordingEnabled))
	fmt.Fprintf(f.w, "  5. Check dependencies\n")
	fmt.Fprintf(f.w, "  0. Exit\n")
}

func (f *Formatter) UsernameList(usernames []string) {
	if len(usernames) == 0 {
		f.Info("No usernames saved yet")
		return
	}
	fmt.Fprintf(f.w, "👀 Watched usernames:\n\n")
	for i, username := range usernames {
		fmt.Fprintf(f.w, "  %d. @%s\n", i+1, username)
	}
}

func (f *Formatter) RecordingSetting(enabled bool) {
	fmt.Fprintf(f.w, "🎥 Recording: %s\n", f.paint(ansiBold, onOff(enabled)))
}

// Event renders one monitor notification as a timestamped status line.
func (f *Formatter) Event(event monitor.Event) {
	stamp := f.paint(ansiDim, event.Timestamp.Format("2006-01-02 15:04:05"))
	switch event.Type {
	case monitor.EventTypeCheck:
		fmt.Fprintf(f.w, "%s 🔎 %s\n", stamp, event.Message)
	case monitor.EventTypeStatus:
		code := ansiYellow
		icon := "⚫"
		if event.Status == domain.LiveStatusLive {
			code, icon = ansiGreen, "🔴"
		}
		fmt.Fprintf(f.w, "%s %s %s\n", stamp, icon, f.paint(ansiBold+code, event.Message))
	case monitor.EventTypeUnknown:
		fmt.Fprintf(f.w, "%s ❔ %s\n", stamp, f.paint(ansiYellow, event.Message))
	case monitor.EventTypeRecordingStarted:
		fmt.Fprintf(f.w, "%s ⏺️  %s → %s\n", stamp, event.Message, event.OutputPath)
	case monitor.EventTypeRecordingStopped, monitor.EventTypeRecordingEnded:
		fmt.Fprintf(f.w, "%s ⏹️  %s (%s) → %s\n", stamp, event.Message, formatDuration(event.Duration), event.OutputPath)
	case monitor.EventTypeRecordingFailed:
		fmt.Fprintf(f.w, "%s ❌ %s\n", stamp, f.paint(ansiRed, event.Message))
	default:
		fmt.Fprintf(f.w, "%s ℹ️  %s\n", stamp, event.Message)
	}
}

func (f *Formatter) DiagnosticReport(report domain.DiagnosticReport) {
	fmt.Fprintf(f.w, "🩺 Dependencies:\n\n")
	for _, item := range report.Items {
		f.DiagnosticItem(item)
	}
	fmt.Fprintf(f.w, "\n  %d passed, %d warning(s), %d failed\n\n",
		report.Count(domain.DiagnosticStatusPass),
		report.Count(domain.DiagnosticStatusWarn),
		report.Count(domain.DiagnosticStatusFail),
	)
	if report.HasFailures {
		f.Warning("Some prerequisites are missing. Run `live-watcher doctor --fix` to install them.")
		return
	}
	f.Success("Ready to record!")
}

func (f *Formatter) DiagnosticItem(item domain.DiagnosticItem) {
	icon := "✅"
	switch item.Status {
	case domain.DiagnosticStatusWarn:
		icon = "⚠️ "
	case domain.DiagnosticStatusFail:
		icon = "❌"
	}
	fmt.Fprintf(f.w, "  %s %s: %s\n", icon, item.Name, item.Message)
	if item.Hint != "" && item.Status != domain.DiagnosticStatusPass {
		fmt.Fprintf(f.w, "       %s\n", f.paint(ansiDim, item.Hint))
	}
}

func (f *Formatter) FixResult(result diagnostics.FixResult) {
	switch {
	case result.Err == nil:
		f.Success(fmt.Sprintf("%s: fixed", result.ItemID))
	case errors.Is(result.Err, diagnostics.ErrNotFixable):
		f.Info(fmt.Sprintf("%s: %v", result.ItemID, result.Err))
	default:
		f.Error(fmt.Sprintf("%s: %v", result.ItemID, result.Err))
	}
}

func (f *Formatter) RecordingListHeader(dir string) {
	fmt.Fprintf(f.w, "📁 Recordings in %s:\n\n", dir)
}

func (f *Formatter) RecordingListItem(file domain.RecordingFile) {
	mime := file.MIME
	if mime == "" {
		mime = "empty"
	}
	fmt.Fprintf(f.w, "  %s  @%-20s %9s  %s  %s\n",
		file.StartedAt.Format("2006-01-02 15:04"),
		file.Username,
		formatSize(file.Size),
		f.paint(ansiDim, mime),
		file.Name,
	)
}

func onOff(enabled bool) string {
	if enabled {
		return "ON"
	}
	return "OFF"
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
