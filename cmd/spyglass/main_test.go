package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spyglass-dev/spyglass/config"
	"github.com/spyglass-dev/spyglass/fetch"
	"github.com/spyglass-dev/spyglass/registry"
)

func TestNewLoggerParsesLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, newLogger("debug").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, newLogger("INFO").GetLevel())

	// unknown levels fall back to warn
	assert.Equal(t, zerolog.WarnLevel, newLogger("loud").GetLevel())
}

func TestRenderRowsShowsColumns(t *testing.T) {
	kind := registry.ResourceKind{
		ID:      "ec2-instances",
		Columns: []registry.Column{{Label: "Instance ID"}, {Label: "State"}},
	}
	rows := []fetch.Row{
		{Key: "i-0abc", Cells: []fetch.Cell{
			{Label: "Instance ID", Value: "i-0abc"},
			{Label: "State", Value: "running"},
		}},
	}

	var buf bytes.Buffer
	renderRows(&buf, kind, rows)

	// header casing is the table package's business
	out := strings.ToUpper(buf.String())
	assert.Contains(t, out, "INSTANCE ID")
	assert.Contains(t, out, strings.ToUpper("i-0abc"))
	assert.Contains(t, out, "RUNNING")
}

func confirmWith(t *testing.T, input string) bool {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(input))
	return confirm(cmd, "Stop", "i-0abc", false)
}

func TestConfirmAcceptsYes(t *testing.T) {
	assert.True(t, confirmWith(t, "y\n"))
	assert.True(t, confirmWith(t, "YES\n"))
}

func TestConfirmRejectsEverythingElse(t *testing.T) {
	assert.False(t, confirmWith(t, "\n"))
	assert.False(t, confirmWith(t, "n\n"))
	assert.False(t, confirmWith(t, "maybe\n"))
}

func TestRememberSelectionPersistsEverything(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")
	path := filepath.Join(t.TempDir(), "spyglass", "config.yaml")
	store, err := config.OpenAt(path, zerolog.Nop())
	require.NoError(t, err)

	a := &app{logger: zerolog.Nop(), prefs: store, profile: "staging", region: "eu-west-1"}
	a.rememberSelection("sqs-queues")

	reloaded, err := config.OpenAt(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "staging", reloaded.EffectiveProfile(""))
	assert.Equal(t, "sqs-queues", reloaded.LastKind())
}

func TestRememberSelectionContinuesPastFailures(t *testing.T) {
	// a regular file where the config directory should be makes every
	// write fail
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	store, err := config.OpenAt(filepath.Join(blocker, "cfg", "config.yaml"), logger)
	require.NoError(t, err)

	a := &app{logger: logger, prefs: store, profile: "default", region: "us-east-1"}
	a.rememberSelection("ec2-instances")

	// the profile failure must not stop the region and kind attempts
	out := buf.String()
	assert.Contains(t, out, "failed to persist profile")
	assert.Contains(t, out, "failed to persist region")
	assert.Contains(t, out, "failed to persist resource kind")
}

func TestCompleteKindsReturnsCatalog(t *testing.T) {
	kinds, directive := completeKinds(nil, nil, "")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.Contains(t, kinds, "ec2-instances")
	assert.Contains(t, kinds, "sqs-queues")
}
