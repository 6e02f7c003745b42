// Package cmdexec abstracts external command execution for testability.
// Production code uses Commander interface; tests inject FakeCommander from testutil.
package cmdexec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Commander abstracts external command execution.
type Commander interface {
	// Run executes an external command and returns its standard output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// RunWithEnv executes an external command with additional environment variables
	// merged on top of the current process environment.
	RunWithEnv(ctx context.Context, env map[string]string, name string, args ...string) ([]byte, error)
}

// RealCommander executes actual external commands via os/exec.
type RealCommander struct{}

// Run executes the command using os/exec.CommandContext.
func (c *RealCommander) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return c.RunWithEnv(ctx, nil, name, args...)
}

// RunWithEnv executes the command with additional environment variables.
// The provided env map is merged on top of the current process environment.
// When env overrides PATH, the executable is looked up in that PATH so a
// freshly activated toolchain is the one that runs.
func (c *RealCommander) RunWithEnv(ctx context.Context, env map[string]string, name string, args ...string) ([]byte, error) {
	bin := name
	if p, ok := env["PATH"]; ok {
		if found, ok := lookPathIn(name, p); ok {
			bin = found
		}
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), mapToEnvSlice(env)...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// mapToEnvSlice converts a map of environment variables to a slice of "KEY=VALUE" strings.
func mapToEnvSlice(env map[string]string) []string {
	if env == nil {
		return nil
	}
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

func lookPathIn(name, pathList string) (string, bool) {
	if strings.ContainsRune(name, filepath.Separator) {
		return "", false
	}
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode().Perm()&0111 != 0 {
			return candidate, true
		}
	}
	return "", false
}
