package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := OpenAt(path, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "spyglass", "config.yaml")
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
}

func TestMissingFileYieldsDefaults(t *testing.T) {
	clearEnv(t)
	s := openStore(t, tempPath(t))

	assert.Equal(t, "default", s.EffectiveProfile(""))
	assert.Equal(t, "us-east-1", s.EffectiveRegion(""))
	assert.Empty(t, s.LastKind())
	assert.Empty(t, s.RecentRegions())
}

func TestPersistedPreferencesRoundTrip(t *testing.T) {
	clearEnv(t)
	path := tempPath(t)

	s := openStore(t, path)
	require.NoError(t, s.SetProfile("staging"))
	require.NoError(t, s.SetRegion("eu-west-1"))
	require.NoError(t, s.SetLastKind("ec2-instances"))

	reloaded := openStore(t, path)
	assert.Equal(t, "staging", reloaded.EffectiveProfile(""))
	assert.Equal(t, "eu-west-1", reloaded.EffectiveRegion(""))
	assert.Equal(t, "ec2-instances", reloaded.LastKind())
	assert.Equal(t, []string{"eu-west-1"}, reloaded.RecentRegions())
}

func TestOverridePriority(t *testing.T) {
	clearEnv(t)
	path := tempPath(t)

	s := openStore(t, path)
	require.NoError(t, s.SetProfile("persisted-profile"))
	require.NoError(t, s.SetRegion("ap-south-1"))

	// persisted beats built-in default
	assert.Equal(t, "persisted-profile", s.EffectiveProfile(""))
	assert.Equal(t, "ap-south-1", s.EffectiveRegion(""))

	// environment beats persisted
	t.Setenv("AWS_PROFILE", "env-profile")
	t.Setenv("AWS_DEFAULT_REGION", "eu-central-1")
	assert.Equal(t, "env-profile", s.EffectiveProfile(""))
	assert.Equal(t, "eu-central-1", s.EffectiveRegion(""))

	// AWS_REGION beats AWS_DEFAULT_REGION
	t.Setenv("AWS_REGION", "us-west-2")
	assert.Equal(t, "us-west-2", s.EffectiveRegion(""))

	// explicit override beats everything
	assert.Equal(t, "flag-profile", s.EffectiveProfile("flag-profile"))
	assert.Equal(t, "sa-east-1", s.EffectiveRegion("sa-east-1"))
}

func TestRecentRegionsDedupAndCap(t *testing.T) {
	clearEnv(t)
	s := openStore(t, tempPath(t))

	require.NoError(t, s.SetRegion("us-east-1"))
	require.NoError(t, s.SetRegion("eu-west-1"))
	assert.Equal(t, []string{"eu-west-1", "us-east-1"}, s.RecentRegions())

	// reusing a region moves it to the front
	require.NoError(t, s.SetRegion("us-east-1"))
	assert.Equal(t, []string{"us-east-1", "eu-west-1"}, s.RecentRegions())

	for _, r := range []string{"r1", "r2", "r3", "r4", "r5"} {
		require.NoError(t, s.SetRegion(r))
	}
	recent := s.RecentRegions()
	assert.Len(t, recent, 6)
	assert.Equal(t, "r5", recent[0])
}

func TestCorruptFileStartsFresh(t *testing.T) {
	clearEnv(t)
	path := tempPath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("profile: [unclosed"), 0o600))

	s := openStore(t, path)
	assert.Equal(t, "default", s.EffectiveProfile(""))
}
