package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupSequenceDir creates a temporary directory holding the given sequence documents,
// keyed by file name ("welcome.json", "onboarding.yaml"). It returns the absolute path
// and fails the test immediately on error.
func SetupSequenceDir(t *testing.T, files map[string]string) string {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(absPath, name), []byte(content), 0o644), "Failed to write %s", name)
	}
	return absPath
}
