// Package testutil provides common test helpers for the nodeswitch project.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TempConfigFile creates a temporary config.toml with the given content
// and returns its path. The file is automatically cleaned up.
func TempConfigFile(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("TempConfigFile: write failed: %v", err)
	}

	return path
}

// TempCacheFile creates a temporary installed.json with the given content
// and returns its path.
func TempCacheFile(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "installed.json")

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("TempCacheFile: write failed: %v", err)
	}

	return path
}

// WriteFiles creates files under root. Keys are slash-separated relative paths.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("WriteFiles: mkdir failed: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFiles: write failed: %v", err)
		}
	}
}

// NvmLsOutput renders versions the way `nvm ls --no-colors --no-alias` prints them.
// The first version is marked as the current one.
func NvmLsOutput(versions ...string) string {
	var b strings.Builder
	for i, v := range versions {
		marker := "      "
		if i == 0 {
			marker = "->    "
		}
		fmt.Fprintf(&b, "%s v%s\n", marker, v)
	}
	b.WriteString("         system\n")
	return b.String()
}

// NvmUseOutput renders the environment block printed by the nvm use script.
func NvmUseOutput(version, binDir string) string {
	return fmt.Sprintf("NVM_BIN='%s'\nNVM_INC=''\nPATH='%s:/usr/bin:/bin'\nNODE_VERSION='v%s'\n",
		binDir, binDir, version)
}
