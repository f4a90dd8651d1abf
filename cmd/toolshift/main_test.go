package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveApps_ArgsWin(t *testing.T) {
	apps, err := resolveApps([]string{"github", "trello"})
	require.NoError(t, err)
	assert.Equal(t, []string{"github", "trello"}, apps)
}

func TestResolveApps_NoArgsNoFile(t *testing.T) {
	old := flagAppsFile
	flagAppsFile = ""
	defer func() { flagAppsFile = old }()

	_, err := resolveApps(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no apps given")
}

func TestResolveApps_FileWithCommentsAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.txt")
	require.NoError(t, os.WriteFile(path, []byte(
		"# batch for the async migration\ngithub\n\nzenquotes  # still sync\n   trello\n",
	), 0o644))

	old := flagAppsFile
	flagAppsFile = path
	defer func() { flagAppsFile = old }()

	apps, err := resolveApps(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"github", "zenquotes", "trello"}, apps)
}

func TestResolveApps_FileAllComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.txt")
	require.NoError(t, os.WriteFile(path, []byte("# nothing yet\n\n"), 0o644))

	old := flagAppsFile
	flagAppsFile = path
	defer func() { flagAppsFile = old }()

	_, err := resolveApps(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lists no apps")
}
