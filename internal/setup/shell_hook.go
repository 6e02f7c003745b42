package setup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hbjs97/nodeswitch/internal/shell"
)

// DetectShell은 현재 사용자의 셸을 감지한다.
func DetectShell() string {
	return shell.Detect(os.Getenv("SHELL"))
}

// ShellRCPath는 셸별 RC 파일 경로를 반환한다.
func ShellRCPath(shellType string) string {
	home, _ := os.UserHomeDir() // 홈 디렉토리 조회 실패 시 빈 문자열
	switch shellType {
	case shell.Zsh:
		if zdot := os.Getenv("ZDOTDIR"); zdot != "" {
			return filepath.Join(zdot, ".zshrc")
		}
		return filepath.Join(home, ".zshrc")
	case shell.Bash:
		return filepath.Join(home, ".bashrc")
	case shell.Fish:
		return filepath.Join(home, ".config", "fish", "conf.d", "nodeswitch.fish")
	default:
		return ""
	}
}

// HookInstalled는 RC 파일에 hook이 이미 있는지 확인한다.
func HookInstalled(rcPath string) bool {
	existing, err := os.ReadFile(rcPath)
	if err != nil {
		return false
	}
	return strings.Contains(string(existing), shell.Marker)
}

// InstallShellHook은 셸 RC 파일에 nodeswitch hook을 추가한다.
// 이미 설치되어 있으면 건너뛴다.
func InstallShellHook(shellType, rcPath string) error {
	snippet := shell.HookSnippet(shellType)
	if snippet == "" {
		return fmt.Errorf("setup.InstallShellHook: 지원하지 않는 셸: %s", shellType)
	}

	if HookInstalled(rcPath) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(rcPath), 0700); err != nil {
		return fmt.Errorf("setup.InstallShellHook: %w", err)
	}
	f, err := os.OpenFile(rcPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("setup.InstallShellHook: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "\n%s", snippet); err != nil {
		return fmt.Errorf("setup.InstallShellHook: %w", err)
	}

	return nil
}
