// Package testutil provides shared test helpers for config files and wordlist fixtures.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/elicitor/internal/wordlist"
)

// SetupTestConfig creates a config file pointing every path into tmpDir and
// the directories it needs. Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	dirs := []string{"exports", "reports"}
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, d), 0755))
	}

	configContent := fmt.Sprintf(`database:
  driver: sqlite
  path: %s
export:
  directory: %s
server:
  lock_file: %s
outputs:
  report_directory: %s
`,
		filepath.Join(tmpDir, "elicitor.db"),
		filepath.Join(tmpDir, "exports"),
		filepath.Join(tmpDir, "elicitor.lock"),
		filepath.Join(tmpDir, "reports"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// WriteWordlist renders entries as a UTF-16LE document in dir and returns
// its path.
func WriteWordlist(t *testing.T, dir, name string, entries ...wordlist.Entry) string {
	t.Helper()

	data, err := wordlist.Render(entries)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
