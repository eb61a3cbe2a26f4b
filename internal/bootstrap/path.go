package bootstrap

import (
	"os"
	"path/filepath"
)

// ensureLocalBinOnPATH prepends ~/.local/bin, where pipx and pip --user put
// streamlink and yt-dlp, so tools installed by doctor --fix are found.
func ensureLocalBinOnPATH(homeDir string) error {
	binDir := localBinDir(homeDir)
	if _, err := os.Stat(binDir); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	current := os.Getenv("PATH")
	for _, entry := range filepath.SplitList(current) {
		if filepath.Clean(entry) == filepath.Clean(binDir) {
			return nil
		}
	}

	if current == "" {
		return os.Setenv("PATH", binDir)
	}
	return os.Setenv("PATH", binDir+string(os.PathListSeparator)+current)
}

func localBinDir(homeDir string) string {
	return filepath.Join(homeDir, ".local", "bin")
}
