package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hbjs97/nodeswitch/internal/cmdexec"
	"github.com/hbjs97/nodeswitch/internal/config"
	"github.com/hbjs97/nodeswitch/internal/shell"
	"github.com/hbjs97/nodeswitch/internal/state"
)

// Status는 진단 결과 상태다.
type Status string

const (
	// StatusOK는 정상 상태다.
	StatusOK Status = "OK"
	// StatusWarn는 경고 상태다.
	StatusWarn Status = "WARN"
	// StatusFail는 실패 상태다.
	StatusFail Status = "FAIL"
)

// DiagResult는 하나의 진단 결과다.
type DiagResult struct {
	Name    string
	Status  Status
	Message string
	Fix     string
}

// NvmInfo는 nvm 진단에 필요한 조회 기능이다.
type NvmInfo interface {
	Dir() string
	Available() bool
	Version(ctx context.Context) (string, error)
}

// PnpmProbe는 현재 활성화된 pnpm 버전을 조회한다.
type PnpmProbe interface {
	PackageManager(ctx context.Context, env map[string]string) (string, error)
}

// CheckBinaries는 필수 바이너리(bash, node) 존재 여부를 확인한다.
// corepack은 pnpm 관리에만 필요하므로 없으면 경고다.
func CheckBinaries(ctx context.Context, cmd cmdexec.Commander) []DiagResult {
	binaries := []struct {
		name     string
		args     []string
		install  string
		optional bool
	}{
		{"bash", []string{"--version"}, "bash를 설치하세요 (nvm은 bash에서 로드됩니다)", false},
		{"node", []string{"--version"}, "nvm install --lts", false},
		{"corepack", []string{"--version"}, "npm install -g corepack", true},
	}

	var results []DiagResult
	for _, b := range binaries {
		out, err := cmd.Run(ctx, b.name, b.args...)
		if err != nil {
			status := StatusFail
			if b.optional {
				status = StatusWarn
			}
			results = append(results, DiagResult{
				Name:    b.name,
				Status:  status,
				Message: fmt.Sprintf("%s 없음", b.name),
				Fix:     fmt.Sprintf("설치: %s", b.install),
			})
		} else {
			results = append(results, DiagResult{
				Name:    b.name,
				Status:  StatusOK,
				Message: firstLine(out),
			})
		}
	}
	return results
}

// CheckNvm은 nvm.sh가 있고 로드되는지 확인한다.
func CheckNvm(ctx context.Context, nvm NvmInfo) DiagResult {
	if !nvm.Available() {
		return DiagResult{
			Name:    "nvm",
			Status:  StatusFail,
			Message: fmt.Sprintf("%s/nvm.sh 없음", nvm.Dir()),
			Fix:     "https://github.com/nvm-sh/nvm#installing-and-updating 또는 config.toml의 nvm_dir 확인",
		}
	}
	v, err := nvm.Version(ctx)
	if err != nil {
		return DiagResult{
			Name:    "nvm",
			Status:  StatusFail,
			Message: "nvm 로드 실패",
			Fix:     fmt.Sprintf("bash -c '. %s/nvm.sh && nvm --version' 로 확인", nvm.Dir()),
		}
	}
	return DiagResult{
		Name:    "nvm",
		Status:  StatusOK,
		Message: fmt.Sprintf("nvm %s (%s)", v, nvm.Dir()),
	}
}

// CheckPnpm은 corepack shim으로 pnpm이 오프라인에서 실행되는지 확인한다.
func CheckPnpm(ctx context.Context, probe PnpmProbe) DiagResult {
	v, err := probe.PackageManager(ctx, nil)
	if err != nil {
		return DiagResult{
			Name:    "pnpm",
			Status:  StatusWarn,
			Message: "pnpm을 실행할 수 없음",
			Fix:     "corepack enable && corepack install -g pnpm@latest",
		}
	}
	return DiagResult{
		Name:    "pnpm",
		Status:  StatusOK,
		Message: fmt.Sprintf("pnpm %s", v),
	}
}

// CheckConfig는 설정 파일이 유효한지 확인한다. 파일이 없으면 기본 설정으로 동작한다.
func CheckConfig(cfgPath string) DiagResult {
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		return DiagResult{
			Name:    "config",
			Status:  StatusOK,
			Message: "설정 파일 없음, 기본값 사용",
		}
	}
	if _, err := config.Load(cfgPath); err != nil {
		return DiagResult{
			Name:    "config",
			Status:  StatusFail,
			Message: err.Error(),
			Fix:     fmt.Sprintf("%s 수정 또는 nodeswitch setup 실행", cfgPath),
		}
	}
	return DiagResult{
		Name:    "config",
		Status:  StatusOK,
		Message: cfgPath,
	}
}

// CheckHookInstalled는 셸 RC 파일에 hook 스니펫이 있는지 확인한다.
func CheckHookInstalled(shellType, rcPath string) DiagResult {
	if !shell.IsSupported(shellType) {
		return DiagResult{
			Name:    "shell_hook",
			Status:  StatusWarn,
			Message: fmt.Sprintf("지원하지 않는 셸: %q", shellType),
			Fix:     "zsh, bash, fish 중 하나를 사용하세요",
		}
	}
	data, err := os.ReadFile(rcPath)
	if err != nil || !strings.Contains(string(data), shell.Marker) {
		return DiagResult{
			Name:    "shell_hook",
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s에 hook 없음", rcPath),
			Fix:     fmt.Sprintf("nodeswitch setup 또는 nodeswitch init %s >> %s", shellType, rcPath),
		}
	}
	return DiagResult{
		Name:    "shell_hook",
		Status:  StatusOK,
		Message: fmt.Sprintf("%s에 설치됨", rcPath),
	}
}

// CheckSession은 세션 상태 변수가 환경에 export되어 있지 않은지 확인한다.
// export된 상태는 하위 셸로 상속되어 새 세션이 다른 셸의 버전을 믿게 만든다.
func CheckSession(lookup func(string) (string, bool)) DiagResult {
	var leaked []string
	for _, key := range []string{state.EnvNode, state.EnvPnpm, state.EnvLastDir} {
		if _, ok := lookup(key); ok {
			leaked = append(leaked, key)
		}
	}
	if len(leaked) > 0 {
		return DiagResult{
			Name:    "session",
			Status:  StatusWarn,
			Message: fmt.Sprintf("세션 변수가 export됨: %s", strings.Join(leaked, ", ")),
			Fix:     "RC 파일의 hook을 nodeswitch init 출력으로 교체하고 새 셸을 여세요",
		}
	}
	return DiagResult{
		Name:    "session",
		Status:  StatusOK,
		Message: "세션 상태는 셸 로컬 변수로 유지됨",
	}
}

// Options는 RunAll 입력이다.
type Options struct {
	Commander cmdexec.Commander
	Nvm       NvmInfo
	Pnpm      PnpmProbe
	CfgPath   string
	ShellType string
	RCPath    string
	Lookup    func(string) (string, bool)
}

// RunAll은 모든 진단을 실행한다. Pnpm이 nil이면 pnpm 진단은 건너뛴다.
func RunAll(ctx context.Context, opts Options) []DiagResult {
	var results []DiagResult
	results = append(results, CheckBinaries(ctx, opts.Commander)...)
	results = append(results, CheckNvm(ctx, opts.Nvm))
	if opts.Pnpm != nil {
		results = append(results, CheckPnpm(ctx, opts.Pnpm))
	}
	results = append(results, CheckConfig(opts.CfgPath))
	results = append(results, CheckHookInstalled(opts.ShellType, opts.RCPath))
	if opts.Lookup != nil {
		results = append(results, CheckSession(opts.Lookup))
	}
	return results
}

// HasFailure는 실패한 진단이 있는지 반환한다.
func HasFailure(results []DiagResult) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
