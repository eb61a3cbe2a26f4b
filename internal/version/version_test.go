package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func stamp(t *testing.T, version, commit, date string) {
	t.Helper()
	oldVersion, oldCommit, oldDate := Version, Commit, Date
	Version, Commit, Date = version, commit, date
	t.Cleanup(func() { Version, Commit, Date = oldVersion, oldCommit, oldDate })
}

func TestFullUnstamped(t *testing.T) {
	stamp(t, "dev", "", "")
	assert.Equal(t, "dev", Short())
	assert.Equal(t, "live-watcher dev", Full())
}

func TestFullDevWithCommit(t *testing.T) {
	stamp(t, "dev", "0123456789abcdef", "")
	assert.Equal(t, "dev+0123456", Short())
	assert.Equal(t, "live-watcher dev+0123456", Full())
}

func TestFullRelease(t *testing.T) {
	stamp(t, "v1.2.0", "0123456789abcdef", "2026-10-01")
	assert.Equal(t, "v1.2.0", Short())
	assert.Equal(t, "live-watcher v1.2.0 (0123456), built 2026-10-01", Full())
}
