package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoString(t *testing.T) {
	i := Info{CommitHash: "0123456789abcdef", BuildTime: "today", Version: "dev"}
	assert.Equal(t, "cspace dev (commit 0123456789abcdef, built today)", i.String())
	assert.Equal(t, "0123456", i.Short())

	i.Version = "v0.3.0"
	assert.Equal(t, "cspace v0.3.0 (commit 0123456789abcdef, built today)", i.String())

	i.Modified = true
	assert.Equal(t, "cspace v0.3.0 (commit 0123456789abcdef+dirty, built today)", i.String())

	assert.Equal(t, "abc", Info{CommitHash: "abc"}.Short())
}

func TestFromBuildSettings(t *testing.T) {
	i := Info{CommitHash: "dev", BuildTime: "unknown"}
	i.fromBuildSettings([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "cafebabe"},
		{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		{Key: "vcs.modified", Value: "true"},
	})
	assert.Equal(t, "cafebabe", i.CommitHash)
	assert.Equal(t, "2026-01-02T03:04:05Z", i.BuildTime)
	assert.True(t, i.Modified)

	stamped := Info{CommitHash: "fromldflags", BuildTime: "then"}
	stamped.fromBuildSettings([]debug.BuildSetting{{Key: "vcs.revision", Value: "other"}})
	assert.Equal(t, "fromldflags", stamped.CommitHash)
	assert.Equal(t, "then", stamped.BuildTime)
}

func TestSemver(t *testing.T) {
	_, ok := Info{Version: "dev"}.Semver()
	assert.False(t, ok)

	v, ok := Info{Version: "v1.4.0"}.Semver()
	require.True(t, ok)
	assert.Equal(t, uint64(1), v.Major())
}

func TestGetFillsRuntime(t *testing.T) {
	i := Get()
	assert.NotEmpty(t, i.GoVersion)
	assert.Contains(t, i.Platform, "/")
}
