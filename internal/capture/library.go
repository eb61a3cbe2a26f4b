package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mozillazg/go-unidecode"

	"live-watcher/internal/domain"
)

// TimestampLayout is the start-time component of recording file names.
const TimestampLayout = "2006-01-02_15-04-05"

var (
	unsafeNameChars = regexp.MustCompile(`[^a-z0-9._-]+`)
	recordingName   = regexp.MustCompile(`^(.+)_(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})(?:_\d+)?\.[A-Za-z0-9]+$`)
)

// fileSafeName transliterates a username to ASCII and replaces anything
// outside [a-z0-9._-] so it can be embedded in a file name.
func fileSafeName(username string) string {
	name := strings.ToLower(unidecode.Unidecode(username))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "user"
	}
	return name
}

// OutputPath builds <dir>/<username>_<YYYY-MM-DD>_<HH-MM-SS>.<ext>.
func OutputPath(dir, username string, startedAt time.Time, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", fileSafeName(username), startedAt.Format(TimestampLayout), ext))
}

// maxPathSuffix caps the _N collision suffixes tried for one start time.
const maxPathSuffix = 1000

// uniquePath appends _2, _3, ... before the extension while path exists.
// A stat failure other than not-exist is returned rather than retried.
func uniquePath(path string, stat func(string) (os.FileInfo, error)) (string, error) {
	free, err := pathFree(path, stat)
	if err != nil || free {
		return path, err
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 2; i <= maxPathSuffix; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		free, err := pathFree(candidate, stat)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free file name for %s after %d attempts", path, maxPathSuffix)
}

func pathFree(path string, stat func(string) (os.FileInfo, error)) (bool, error) {
	_, err := stat(path)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, os.ErrNotExist):
		return true, nil
	default:
		return false, fmt.Errorf("check output path: %w", err)
	}
}

// ListRecordings returns captures in dir, newest first. A missing directory
// yields an empty list.
func ListRecordings(dir string) ([]domain.RecordingFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read recordings directory: %w", err)
	}

	files := make([]domain.RecordingFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		match := recordingName.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}

		startedAt, err := time.ParseInLocation(TimestampLayout, match[2], time.Local)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		file := domain.RecordingFile{
			Name:      entry.Name(),
			Path:      path,
			Username:  match[1],
			StartedAt: startedAt,
			Size:      info.Size(),
		}
		if info.Size() > 0 {
			if mtype, err := mimetype.DetectFile(path); err == nil {
				file.MIME = mtype.String()
			}
		}
		files = append(files, file)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].StartedAt.After(files[j].StartedAt)
	})
	return files, nil
}
